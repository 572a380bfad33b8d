package chain

import (
	"github.com/dao-vault/internal/errors"
	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidNewOwner rejects ownership transfers to the zero address
var ErrInvalidNewOwner = errors.NewValidation("INVALID_NEW_OWNER", "Invalid new owner")

// Ownable is the single-owner access guard embedded by every contract.
// The zero owner means ownership has been renounced.
type Ownable struct {
	self        common.Address
	owner       common.Address
	notOwnerErr error
}

// NewOwnable creates an access guard for the contract at self. notOwnerErr
// is returned by OnlyOwner so every contract can report its own reason.
func NewOwnable(self, owner common.Address, notOwnerErr error) Ownable {
	return Ownable{self: self, owner: owner, notOwnerErr: notOwnerErr}
}

// Owner returns the current owner
func (o *Ownable) Owner() common.Address {
	return o.owner
}

// IsOwner reports whether account is the owner
func (o *Ownable) IsOwner(account common.Address) bool {
	return o.owner != (common.Address{}) && account == o.owner
}

// OnlyOwner rejects the call unless the sender is the owner
func (o *Ownable) OnlyOwner(tx *Tx) error {
	if !o.IsOwner(tx.From) {
		return o.notOwnerErr
	}
	return nil
}

// TransferOwnership moves ownership to newOwner. It is owner-only.
func (o *Ownable) TransferOwnership(tx *Tx, newOwner common.Address) error {
	if err := o.OnlyOwner(tx); err != nil {
		return err
	}
	if newOwner == (common.Address{}) {
		return ErrInvalidNewOwner
	}
	o.setOwner(tx, newOwner)
	return nil
}

// RenounceOwnership leaves the contract without an owner. It is owner-only.
func (o *Ownable) RenounceOwnership(tx *Tx) error {
	if err := o.OnlyOwner(tx); err != nil {
		return err
	}
	o.setOwner(tx, common.Address{})
	return nil
}

func (o *Ownable) setOwner(tx *Tx, newOwner common.Address) {
	prev := o.owner
	tx.journal(func() { o.owner = prev })
	o.owner = newOwner
	tx.Emit(o.self, OwnershipTransferred, Fields{
		"previousOwner": prev,
		"newOwner":      newOwner,
	})
}
