package treasury

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SpendingProposal is a read-only snapshot of a spending proposal
type SpendingProposal struct {
	ID          uint64         `json:"id"`
	Asset       common.Address `json:"asset"`
	Amount      *uint256.Int   `json:"amount"`
	Recipient   common.Address `json:"recipient"`
	Description string         `json:"description"`
	Proposer    common.Address `json:"proposer"`
	Approvals   uint64         `json:"approvals"`
	CreatedAt   time.Time      `json:"createdAt"`
	Deadline    time.Time      `json:"deadline"`
	Executed    bool           `json:"executed"`
	ExecutedAt  time.Time      `json:"executedAt,omitempty"`
	LastFailure string         `json:"lastFailure,omitempty"`
}

// Expired reports whether the proposal stopped accepting approvals at now
func (p SpendingProposal) Expired(now time.Time) bool {
	return !p.Executed && !now.Before(p.Deadline)
}

// Info summarizes a vault
type Info struct {
	Address            common.Address `json:"address"`
	DAO                common.Address `json:"dao"`
	Owner              common.Address `json:"owner"`
	WithdrawalLimit    *uint256.Int   `json:"withdrawalLimit"`
	RequiredSignatures uint64         `json:"requiredSignatures"`
	SignerCount        int            `json:"signerCount"`
	ProposalCount      uint64         `json:"proposalCount"`
	Paused             bool           `json:"paused"`
	PauseReason        string         `json:"pauseReason,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// GetBalance returns the tracked balance of asset
func (v *Vault) GetBalance(asset common.Address) *uint256.Int {
	if b, ok := v.balances[asset]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// GetSpendingProposal returns a snapshot of proposal id
func (v *Vault) GetSpendingProposal(id uint64) (SpendingProposal, error) {
	p, ok := v.proposals[id]
	if !ok {
		return SpendingProposal{}, ErrProposalNotFound
	}
	return SpendingProposal{
		ID:          p.id,
		Asset:       p.asset,
		Amount:      new(uint256.Int).Set(p.amount),
		Recipient:   p.recipient,
		Description: p.description,
		Proposer:    p.proposer,
		Approvals:   p.approvals,
		CreatedAt:   p.createdAt,
		Deadline:    p.deadline,
		Executed:    p.executed,
		ExecutedAt:  p.executedAt,
		LastFailure: p.lastFailure,
	}, nil
}

// HasApproved reports whether signer approved proposal id
func (v *Vault) HasApproved(id uint64, signer common.Address) bool {
	p, ok := v.proposals[id]
	return ok && p.approvers[signer]
}

// GetSigners returns a copy of the signer list. Order is not stable across removals.
func (v *Vault) GetSigners() []common.Address {
	out := make([]common.Address, len(v.signers))
	copy(out, v.signers)
	return out
}

// GetSupportedTokens lists every token ever deposited, in first-deposit order
func (v *Vault) GetSupportedTokens() []common.Address {
	out := make([]common.Address, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// IsSigner reports whether account is an authorized signer
func (v *Vault) IsSigner(account common.Address) bool {
	_, ok := v.signerIdx[account]
	return ok
}

// DAO returns the owning DAO address
func (v *Vault) DAO() common.Address { return v.dao }

// WithdrawalLimit returns the direct withdrawal ceiling
func (v *Vault) WithdrawalLimit() *uint256.Int { return new(uint256.Int).Set(v.withdrawalLimit) }

// RequiredSignatures returns the approval threshold
func (v *Vault) RequiredSignatures() uint64 { return v.requiredSignatures }

// Paused reports the emergency pause flag
func (v *Vault) Paused() bool { return v.paused }

// ProposalCount returns the number of spending proposals ever created
func (v *Vault) ProposalCount() uint64 { return v.nextID }

// Info summarizes the vault
func (v *Vault) Info() Info {
	return Info{
		Address:            v.addr,
		DAO:                v.dao,
		Owner:              v.Owner(),
		WithdrawalLimit:    v.WithdrawalLimit(),
		RequiredSignatures: v.requiredSignatures,
		SignerCount:        len(v.signers),
		ProposalCount:      v.nextID,
		Paused:             v.paused,
		PauseReason:        v.pauseReason,
		CreatedAt:          v.createdAt,
	}
}
