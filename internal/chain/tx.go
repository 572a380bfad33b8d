package chain

import (
	"fmt"
	"time"

	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Contract is anything deployed into the runtime's contract directory
type Contract interface {
	Address() common.Address
	Kind() types.ContractKind
}

// Reader is the read-only state visible to views and to running calls
type Reader interface {
	Contract(addr common.Address) (Contract, bool)
	BalanceOf(asset, account common.Address) *uint256.Int
	Allowance(asset, owner, spender common.Address) *uint256.Int
	Now() time.Time
}

// Lookup resolves addr to a contract of type T.
func Lookup[T Contract](r Reader, addr common.Address) (T, bool) {
	var zero T
	c, ok := r.Contract(addr)
	if !ok {
		return zero, false
	}
	typed, ok := c.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Call describes a submitted transaction. Value is native currency moved
// from From to To before the call body runs.
type Call struct {
	From   common.Address
	To     common.Address
	Value  *uint256.Int
	Method string
}

// Tx is the execution context of one call. Everything it changes is
// journaled and undone if the call body returns an error.
type Tx struct {
	ID     string
	Seq    uint64
	From   common.Address
	To     common.Address
	Value  *uint256.Int
	Method string
	Time   time.Time

	rt     *Runtime
	events []Event
	undo   []func()
}

// Now returns the block time of the call
func (tx *Tx) Now() time.Time {
	return tx.Time
}

// Contract resolves a deployed contract
func (tx *Tx) Contract(addr common.Address) (Contract, bool) {
	c, ok := tx.rt.contracts[addr]
	return c, ok
}

// BalanceOf reads custody balances
func (tx *Tx) BalanceOf(asset, account common.Address) *uint256.Int {
	return tx.rt.ledger.BalanceOf(asset, account)
}

// Allowance reads token allowances
func (tx *Tx) Allowance(asset, owner, spender common.Address) *uint256.Int {
	return tx.rt.ledger.Allowance(asset, owner, spender)
}

// CallValue returns the native value attached to the call, never nil
func (tx *Tx) CallValue() *uint256.Int {
	if tx.Value == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(tx.Value)
}

// Emit buffers an event. Events are published only if the call commits.
func (tx *Tx) Emit(contract common.Address, ev EventType, fields Fields) {
	tx.events = append(tx.events, Event{
		Contract:  contract,
		Name:      ev.Name,
		Topic:     ev.Topic,
		Fields:    renderFields(fields),
		TxID:      tx.ID,
		TxSeq:     tx.Seq,
		Timestamp: tx.Time,
	})
}

// OnRevert registers an undo step run if the call fails
func (tx *Tx) OnRevert(fn func()) {
	tx.journal(fn)
}

func (tx *Tx) journal(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.events = nil
}

// Transfer moves amount of asset between two accounts
func (tx *Tx) Transfer(asset, from, to common.Address, amount *uint256.Int) error {
	return tx.rt.ledger.move(tx, asset, from, to, amount)
}

// TransferFrom moves amount of a token out of from using spender's allowance
func (tx *Tx) TransferFrom(asset, spender, from, to common.Address, amount *uint256.Int) error {
	if types.IsNative(asset) {
		return fmt.Errorf("transferFrom is not defined for the native asset")
	}
	return tx.rt.ledger.moveFrom(tx, asset, spender, from, to, amount)
}

// Approve sets spender's allowance over owner's token balance
func (tx *Tx) Approve(asset, owner, spender common.Address, amount *uint256.Int) {
	tx.rt.ledger.setAllowance(tx, allowanceKey{asset, owner, spender}, new(uint256.Int).Set(amount))
}

// Mint credits new units of asset to an account. It fails rather than
// wrapping when the balance would overflow.
func (tx *Tx) Mint(asset, to common.Address, amount *uint256.Int) error {
	return tx.rt.ledger.mint(tx, asset, to, amount)
}

// SetRejecting marks account as refusing incoming transfers
func (tx *Tx) SetRejecting(account common.Address, rejecting bool) {
	l := tx.rt.ledger
	prev := l.rejecting[account]
	tx.journal(func() {
		if prev {
			l.rejecting[account] = true
		} else {
			delete(l.rejecting, account)
		}
	})
	if rejecting {
		l.rejecting[account] = true
	} else {
		delete(l.rejecting, account)
	}
}

// Deploy allocates the next CREATE address for deployer, builds the
// contract there and records it in the directory.
func (tx *Tx) Deploy(deployer common.Address, build func(addr common.Address) (Contract, error)) (Contract, error) {
	rt := tx.rt
	nonce := rt.nonces[deployer]
	addr := crypto.CreateAddress(deployer, nonce)
	if _, taken := rt.contracts[addr]; taken {
		return nil, fmt.Errorf("address collision at %s", addr.Hex())
	}

	c, err := build(addr)
	if err != nil {
		return nil, err
	}

	rt.nonces[deployer] = nonce + 1
	rt.contracts[addr] = c
	tx.journal(func() {
		delete(rt.contracts, addr)
		rt.nonces[deployer] = nonce
	})
	return c, nil
}

// view is the Reader handed to Runtime.View
type view struct {
	rt  *Runtime
	now time.Time
}

func (v view) Contract(addr common.Address) (Contract, bool) {
	c, ok := v.rt.contracts[addr]
	return c, ok
}

func (v view) BalanceOf(asset, account common.Address) *uint256.Int {
	return v.rt.ledger.BalanceOf(asset, account)
}

func (v view) Allowance(asset, owner, spender common.Address) *uint256.Int {
	return v.rt.ledger.Allowance(asset, owner, spender)
}

func (v view) Now() time.Time {
	return v.now
}
