package chain

import (
	"github.com/dao-vault/internal/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger failures
var (
	ErrInsufficientFunds     = errors.NewTransfer("INSUFFICIENT_FUNDS", "Insufficient funds")
	ErrInsufficientAllowance = errors.NewTransfer("INSUFFICIENT_ALLOWANCE", "Insufficient allowance")
	ErrTransferRejected      = errors.NewTransfer("TRANSFER_REJECTED", "Transfer rejected by recipient")
	ErrZeroRecipient         = errors.NewValidation("ZERO_RECIPIENT", "Transfer to the zero address")
	ErrBalanceOverflow       = errors.NewValidation("BALANCE_OVERFLOW", "Balance overflow")
)

type allowanceKey struct {
	asset   common.Address
	owner   common.Address
	spender common.Address
}

type balanceKey struct {
	asset   common.Address
	account common.Address
}

// Ledger is custody for every asset in the runtime: native balances, token
// balances and token allowances. The zero asset is the native currency.
// Mutations go through a Tx so a reverted call leaves the ledger untouched.
type Ledger struct {
	balances   map[balanceKey]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
	rejecting  map[common.Address]bool
}

func newLedger() *Ledger {
	return &Ledger{
		balances:   make(map[balanceKey]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
		rejecting:  make(map[common.Address]bool),
	}
}

// BalanceOf returns a copy of account's balance of asset
func (l *Ledger) BalanceOf(asset, account common.Address) *uint256.Int {
	if v, ok := l.balances[balanceKey{asset, account}]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

// Allowance returns how much spender may move out of owner's asset balance
func (l *Ledger) Allowance(asset, owner, spender common.Address) *uint256.Int {
	if v, ok := l.allowances[allowanceKey{asset, owner, spender}]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

// IsRejecting reports whether transfers into account fail
func (l *Ledger) IsRejecting(account common.Address) bool {
	return l.rejecting[account]
}

func (l *Ledger) setBalance(tx *Tx, key balanceKey, v *uint256.Int) {
	prev, had := l.balances[key]
	tx.journal(func() {
		if had {
			l.balances[key] = prev
		} else {
			delete(l.balances, key)
		}
	})
	l.balances[key] = v
}

func (l *Ledger) setAllowance(tx *Tx, key allowanceKey, v *uint256.Int) {
	prev, had := l.allowances[key]
	tx.journal(func() {
		if had {
			l.allowances[key] = prev
		} else {
			delete(l.allowances, key)
		}
	})
	l.allowances[key] = v
}

func (l *Ledger) move(tx *Tx, asset, from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroRecipient
	}
	if l.rejecting[to] {
		return ErrTransferRejected
	}
	bal := l.BalanceOf(asset, from)
	if bal.Lt(amount) {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	credited, overflow := new(uint256.Int).AddOverflow(l.BalanceOf(asset, to), amount)
	if overflow {
		return ErrBalanceOverflow
	}
	l.setBalance(tx, balanceKey{asset, from}, new(uint256.Int).Sub(bal, amount))
	l.setBalance(tx, balanceKey{asset, to}, credited)
	return nil
}

func (l *Ledger) moveFrom(tx *Tx, asset, spender, from, to common.Address, amount *uint256.Int) error {
	key := allowanceKey{asset, from, spender}
	allowed := l.Allowance(asset, from, spender)
	if allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := l.move(tx, asset, from, to, amount); err != nil {
		return err
	}
	l.setAllowance(tx, key, new(uint256.Int).Sub(allowed, amount))
	return nil
}

func (l *Ledger) mint(tx *Tx, asset, to common.Address, amount *uint256.Int) error {
	minted, overflow := new(uint256.Int).AddOverflow(l.BalanceOf(asset, to), amount)
	if overflow {
		return ErrBalanceOverflow
	}
	l.setBalance(tx, balanceKey{asset, to}, minted)
	return nil
}
