// Package treasury implements the vault: per-asset custody with a direct
// withdrawal limit and a multi-signature spending workflow above it.
package treasury

import (
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	MaxSigners       = 20
	ProposalLifetime = 7 * 24 * time.Hour
)

type spendingProposal struct {
	id          uint64
	asset       common.Address
	amount      *uint256.Int
	recipient   common.Address
	description string
	proposer    common.Address
	approvals   uint64
	approvers   map[common.Address]bool
	createdAt   time.Time
	deadline    time.Time
	executed    bool
	executedAt  time.Time
	lastFailure string
}

// Vault holds assets on behalf of a DAO. Its tracked balances always equal
// the ledger custody of the vault address.
type Vault struct {
	chain.Ownable

	addr common.Address
	dao  common.Address

	withdrawalLimit    *uint256.Int
	requiredSignatures uint64

	signers   []common.Address
	signerIdx map[common.Address]int

	balances  map[common.Address]*uint256.Int
	tokens    []common.Address
	tokenSeen map[common.Address]bool

	proposals map[uint64]*spendingProposal
	nextID    uint64

	paused      bool
	pauseReason string
	createdAt   time.Time
}

// New creates a vault at addr for dao. owner becomes the first signer.
// requiredSignatures may exceed the initial signer count.
func New(addr, dao, owner common.Address, withdrawalLimit *uint256.Int, requiredSignatures uint64, now time.Time) (*Vault, error) {
	if dao == (common.Address{}) {
		return nil, ErrZeroDAO
	}
	if withdrawalLimit == nil || withdrawalLimit.IsZero() {
		return nil, ErrZeroLimit
	}
	if requiredSignatures < 1 || requiredSignatures > MaxSigners {
		return nil, ErrInvalidRequiredSigs
	}
	if owner == (common.Address{}) {
		return nil, chain.ErrInvalidNewOwner
	}

	return &Vault{
		Ownable:            chain.NewOwnable(addr, owner, ErrNotOwner),
		addr:               addr,
		dao:                dao,
		withdrawalLimit:    new(uint256.Int).Set(withdrawalLimit),
		requiredSignatures: requiredSignatures,
		signers:            []common.Address{owner},
		signerIdx:          map[common.Address]int{owner: 0},
		balances:           make(map[common.Address]*uint256.Int),
		tokenSeen:          make(map[common.Address]bool),
		proposals:          make(map[uint64]*spendingProposal),
		createdAt:          now,
	}, nil
}

// Address implements chain.Contract
func (v *Vault) Address() common.Address { return v.addr }

// Kind implements chain.Contract
func (v *Vault) Kind() types.ContractKind { return types.KindVault }

func (v *Vault) whenNotPaused() error {
	if v.paused {
		return ErrPaused
	}
	return nil
}

func (v *Vault) onlySigner(tx *chain.Tx) error {
	if !v.IsSigner(tx.From) {
		return ErrNotSigner
	}
	return nil
}

func (v *Vault) setBalance(tx *chain.Tx, asset common.Address, amount *uint256.Int) {
	prev, had := v.balances[asset]
	tx.OnRevert(func() {
		if had {
			v.balances[asset] = prev
		} else {
			delete(v.balances, asset)
		}
	})
	v.balances[asset] = amount
}

func (v *Vault) credit(tx *chain.Tx, asset common.Address, amount *uint256.Int) error {
	sum, overflow := new(uint256.Int).AddOverflow(v.GetBalance(asset), amount)
	if overflow {
		return chain.ErrBalanceOverflow
	}
	v.setBalance(tx, asset, sum)
	return nil
}

func (v *Vault) debit(tx *chain.Tx, asset common.Address, amount *uint256.Int) {
	v.setBalance(tx, asset, new(uint256.Int).Sub(v.GetBalance(asset), amount))
}

func (v *Vault) trackToken(tx *chain.Tx, asset common.Address) {
	if types.IsNative(asset) || v.tokenSeen[asset] {
		return
	}
	v.tokenSeen[asset] = true
	v.tokens = append(v.tokens, asset)
	tx.OnRevert(func() {
		delete(v.tokenSeen, asset)
		v.tokens = v.tokens[:len(v.tokens)-1]
	})
}

// Deposit credits amount of asset. Native deposits must carry exactly
// amount as call value; token deposits pull amount from the caller under
// its allowance to the vault.
func (v *Vault) Deposit(tx *chain.Tx, asset common.Address, amount *uint256.Int) error {
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	if tx.From == v.addr {
		return ErrSelfDeposit
	}

	value := tx.CallValue()
	if types.IsNative(asset) {
		if tx.To != v.addr || !value.Eq(amount) {
			return ErrAmountMismatch
		}
	} else {
		if !value.IsZero() {
			return ErrAmountMismatch
		}
		if err := tx.TransferFrom(asset, v.addr, tx.From, v.addr, amount); err != nil {
			return err
		}
		v.trackToken(tx, asset)
	}

	if err := v.credit(tx, asset, amount); err != nil {
		return err
	}
	tx.Emit(v.addr, EvDeposit, chain.Fields{
		"token":  asset,
		"from":   tx.From,
		"amount": amount,
	})
	return nil
}

// Withdraw sends up to the withdrawal limit directly. Only the DAO may call
// it and any transfer failure rejects the whole call.
func (v *Vault) Withdraw(tx *chain.Tx, asset common.Address, amount *uint256.Int, recipient common.Address) error {
	if tx.From != v.dao {
		return ErrNotDAO
	}
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	if recipient == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount.Gt(v.withdrawalLimit) {
		return ErrExceedsLimit
	}
	if amount.Gt(v.GetBalance(asset)) {
		return ErrInsufficientBalance
	}

	before := v.GetBalance(asset)
	v.debit(tx, asset, amount)
	if err := tx.Transfer(asset, v.addr, recipient, amount); err != nil {
		v.setBalance(tx, asset, before)
		return ErrTransferFailed
	}

	tx.Emit(v.addr, EvWithdrawal, chain.Fields{
		"token":     asset,
		"recipient": recipient,
		"amount":    amount,
	})
	return nil
}

// CreateSpendingProposal opens a multi-signature spend for an amount above
// the withdrawal limit. It accepts approvals for ProposalLifetime.
func (v *Vault) CreateSpendingProposal(tx *chain.Tx, asset common.Address, amount *uint256.Int, recipient common.Address, description string) (uint64, error) {
	if err := v.onlySigner(tx); err != nil {
		return 0, err
	}
	if err := v.whenNotPaused(); err != nil {
		return 0, err
	}
	switch {
	case amount == nil || amount.IsZero():
		return 0, ErrZeroAmount
	case recipient == (common.Address{}):
		return 0, ErrInvalidRecipient
	case !amount.Gt(v.withdrawalLimit):
		return 0, ErrUseWithdraw
	case description == "":
		return 0, ErrDescriptionEmpty
	case amount.Gt(v.GetBalance(asset)):
		return 0, ErrInsufficientBalance
	}

	v.nextID++
	id := v.nextID
	v.proposals[id] = &spendingProposal{
		id:          id,
		asset:       asset,
		amount:      new(uint256.Int).Set(amount),
		recipient:   recipient,
		description: description,
		proposer:    tx.From,
		approvers:   make(map[common.Address]bool),
		createdAt:   tx.Now(),
		deadline:    tx.Now().Add(ProposalLifetime),
	}
	tx.OnRevert(func() {
		delete(v.proposals, id)
		v.nextID = id - 1
	})

	tx.Emit(v.addr, EvProposalCreated, chain.Fields{
		"proposalId": id,
		"token":      asset,
		"amount":     amount,
		"recipient":  recipient,
		"proposer":   tx.From,
	})
	return id, nil
}

// ApproveSpendingProposal records the caller's approval and executes the
// proposal as soon as the approval count reaches the required signatures.
func (v *Vault) ApproveSpendingProposal(tx *chain.Tx, id uint64) error {
	if err := v.onlySigner(tx); err != nil {
		return err
	}
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	p, ok := v.proposals[id]
	if !ok {
		return ErrProposalNotFound
	}
	if p.executed {
		return ErrAlreadyExecuted
	}
	if !tx.Now().Before(p.deadline) {
		return ErrProposalExpired
	}
	if p.approvers[tx.From] {
		return ErrAlreadyApproved
	}

	signer := tx.From
	p.approvers[signer] = true
	p.approvals++
	tx.OnRevert(func() {
		delete(p.approvers, signer)
		p.approvals--
	})

	tx.Emit(v.addr, EvProposalApproved, chain.Fields{
		"proposalId": id,
		"signer":     signer,
		"approvals":  p.approvals,
	})

	if p.approvals >= v.requiredSignatures {
		v.execute(tx, p)
	}
	return nil
}

// ExecuteSpendingProposal retries execution of a proposal that already has
// enough approvals. A failed transfer does not reject the call: the balance
// is restored, the proposal stays unexecuted and a failure event is emitted.
func (v *Vault) ExecuteSpendingProposal(tx *chain.Tx, id uint64) error {
	if err := v.onlySigner(tx); err != nil {
		return err
	}
	p, ok := v.proposals[id]
	if !ok {
		return ErrProposalNotFound
	}
	if p.executed {
		return ErrAlreadyExecuted
	}
	if p.approvals < v.requiredSignatures {
		return ErrInsufficientApprovals
	}
	if p.amount.Gt(v.GetBalance(p.asset)) {
		return ErrInsufficientBalance
	}

	v.execute(tx, p)
	return nil
}

// execute moves the funds of an approved proposal. Failures are reported
// through an event and leave the proposal retryable.
func (v *Vault) execute(tx *chain.Tx, p *spendingProposal) {
	if p.amount.Gt(v.GetBalance(p.asset)) {
		v.executionFailed(tx, p, ErrInsufficientBalance.Message)
		return
	}

	p.executed = true
	before := v.GetBalance(p.asset)
	v.debit(tx, p.asset, p.amount)
	if err := tx.Transfer(p.asset, v.addr, p.recipient, p.amount); err != nil {
		p.executed = false
		v.setBalance(tx, p.asset, before)
		v.executionFailed(tx, p, ErrTransferFailed.Message)
		return
	}

	p.executedAt = tx.Now()
	tx.OnRevert(func() {
		p.executed = false
		p.executedAt = time.Time{}
	})
	tx.Emit(v.addr, EvProposalExecuted, chain.Fields{
		"proposalId": p.id,
		"token":      p.asset,
		"amount":     p.amount,
		"recipient":  p.recipient,
	})
}

func (v *Vault) executionFailed(tx *chain.Tx, p *spendingProposal, reason string) {
	prev := p.lastFailure
	p.lastFailure = reason
	tx.OnRevert(func() { p.lastFailure = prev })
	tx.Emit(v.addr, EvProposalExecutionFailed, chain.Fields{
		"proposalId": p.id,
		"reason":     reason,
	})
}

// AddSigner authorizes a new signer. Owner only.
func (v *Vault) AddSigner(tx *chain.Tx, signer common.Address) error {
	if err := v.OnlyOwner(tx); err != nil {
		return err
	}
	if signer == (common.Address{}) {
		return ErrInvalidSigner
	}
	if v.IsSigner(signer) {
		return ErrAlreadySigner
	}
	if len(v.signers) >= MaxSigners {
		return ErrMaxSigners
	}

	v.signerIdx[signer] = len(v.signers)
	v.signers = append(v.signers, signer)
	tx.OnRevert(func() { v.dropSigner(signer) })
	tx.Emit(v.addr, EvSignerAdded, chain.Fields{"signer": signer})
	return nil
}

// RemoveSigner revokes a signer. The signer count must stay at or above the
// required signatures.
func (v *Vault) RemoveSigner(tx *chain.Tx, signer common.Address) error {
	if err := v.OnlyOwner(tx); err != nil {
		return err
	}
	if !v.IsSigner(signer) {
		return ErrSignerNotFound
	}
	if uint64(len(v.signers)) <= v.requiredSignatures {
		return ErrBelowRequired
	}

	prev := v.GetSigners()
	v.dropSigner(signer)
	tx.OnRevert(func() {
		v.signers = prev
		v.signerIdx = make(map[common.Address]int, len(prev))
		for i, s := range prev {
			v.signerIdx[s] = i
		}
	})
	tx.Emit(v.addr, EvSignerRemoved, chain.Fields{"signer": signer})
	return nil
}

func (v *Vault) dropSigner(signer common.Address) {
	i, ok := v.signerIdx[signer]
	if !ok {
		return
	}
	last := len(v.signers) - 1
	if i != last {
		moved := v.signers[last]
		v.signers[i] = moved
		v.signerIdx[moved] = i
	}
	v.signers = v.signers[:last]
	delete(v.signerIdx, signer)
}

// UpdateWithdrawalLimit changes the direct withdrawal ceiling
func (v *Vault) UpdateWithdrawalLimit(tx *chain.Tx, limit *uint256.Int) error {
	if err := v.OnlyOwner(tx); err != nil {
		return err
	}
	if limit == nil || limit.IsZero() {
		return ErrZeroLimit
	}

	prev := v.withdrawalLimit
	v.withdrawalLimit = new(uint256.Int).Set(limit)
	tx.OnRevert(func() { v.withdrawalLimit = prev })
	tx.Emit(v.addr, EvWithdrawalLimitUpdated, chain.Fields{
		"oldLimit": prev,
		"newLimit": limit,
	})
	return nil
}

// UpdateRequiredSignatures sets the approval threshold within [1, signerCount]
func (v *Vault) UpdateRequiredSignatures(tx *chain.Tx, required uint64) error {
	if err := v.OnlyOwner(tx); err != nil {
		return err
	}
	if required < 1 || required > uint64(len(v.signers)) {
		return ErrInvalidRequiredSigs
	}

	prev := v.requiredSignatures
	v.requiredSignatures = required
	tx.OnRevert(func() { v.requiredSignatures = prev })
	tx.Emit(v.addr, EvRequiredSignaturesUpdated, chain.Fields{
		"oldRequired": prev,
		"newRequired": required,
	})
	return nil
}

// EmergencyPause halts deposits, withdrawals, proposal creation and
// approvals. The owner or any signer may pause.
func (v *Vault) EmergencyPause(tx *chain.Tx, reason string) error {
	if !v.IsOwner(tx.From) && !v.IsSigner(tx.From) {
		return ErrNotAuthorizedToPause
	}
	if err := v.whenNotPaused(); err != nil {
		return err
	}
	if reason == "" {
		return ErrEmptyReason
	}

	v.paused = true
	v.pauseReason = reason
	tx.OnRevert(func() {
		v.paused = false
		v.pauseReason = ""
	})
	tx.Emit(v.addr, EvEmergencyPause, chain.Fields{
		"by":     tx.From,
		"reason": reason,
	})
	return nil
}

// Unpause resumes normal operation. Owner only.
func (v *Vault) Unpause(tx *chain.Tx) error {
	if err := v.OnlyOwner(tx); err != nil {
		return err
	}
	if !v.paused {
		return ErrNotPaused
	}

	reason := v.pauseReason
	v.paused = false
	v.pauseReason = ""
	tx.OnRevert(func() {
		v.paused = true
		v.pauseReason = reason
	})
	tx.Emit(v.addr, EvUnpaused, chain.Fields{"by": tx.From})
	return nil
}
