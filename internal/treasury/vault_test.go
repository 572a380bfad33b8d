package treasury

import (
	"testing"
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesParameters(t *testing.T) {
	tests := []struct {
		name     string
		dao      common.Address
		limit    uint64
		required uint64
		want     error
	}{
		{name: "zero dao", dao: common.Address{}, limit: 10, required: 1, want: ErrZeroDAO},
		{name: "zero limit", dao: daoAddr, limit: 0, required: 1, want: ErrZeroLimit},
		{name: "zero signatures", dao: daoAddr, limit: 10, required: 0, want: ErrInvalidRequiredSigs},
		{name: "too many signatures", dao: daoAddr, limit: 10, required: MaxSigners + 1, want: ErrInvalidRequiredSigs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(recipient, tt.dao, signer1, amt(tt.limit), tt.required, genesis)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	v, err := New(recipient, daoAddr, signer1, amt(10), MaxSigners, genesis)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{signer1}, v.GetSigners())
	assert.Equal(t, uint64(MaxSigners), v.RequiredSignatures())
}

func TestScenarioMultiSigSpend(t *testing.T) {
	h := newHarness(t, 10, 2)
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer2) })
	h.fund(100)

	id, err := h.propose(signer1, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, 1) })
	p, _ := h.vault.GetSpendingProposal(1)
	assert.Equal(t, uint64(1), p.Approvals)
	assert.False(t, p.Executed)

	r := h.mustCall(signer2, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, 1) })
	assert.Len(t, r.EventsNamed("SpendingProposalExecuted"), 1)

	p, _ = h.vault.GetSpendingProposal(1)
	assert.Equal(t, uint64(2), p.Approvals)
	assert.True(t, p.Executed)
	assert.Equal(t, uint64(50), h.vault.GetBalance(types.NativeAsset).Uint64())
	assert.Equal(t, uint64(50), h.ledgerBalance(types.NativeAsset, recipient).Uint64())
	assert.Equal(t, uint64(50), h.ledgerBalance(types.NativeAsset, h.vault.Address()).Uint64())
}

func TestDepositNative(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.mint(types.NativeAsset, outsider, 20)

	_, err := h.call(outsider, func(tx *chain.Tx) error { return h.vault.Deposit(tx, types.NativeAsset, amt(0)) })
	assert.ErrorIs(t, err, ErrZeroAmount)

	// no value attached
	_, err = h.call(outsider, func(tx *chain.Tx) error { return h.vault.Deposit(tx, types.NativeAsset, amt(5)) })
	assert.ErrorIs(t, err, ErrAmountMismatch)

	r, err := h.depositNative(outsider, 5)
	require.NoError(t, err)
	ev := r.EventsNamed("Deposit")
	require.Len(t, ev, 1)
	assert.Equal(t, outsider.Hex(), ev[0].Field("from"))
	assert.Equal(t, "5", ev[0].Field("amount"))

	assert.Equal(t, uint64(5), h.vault.GetBalance(types.NativeAsset).Uint64())
	assert.Equal(t, uint64(15), h.ledgerBalance(types.NativeAsset, outsider).Uint64())
	assert.Empty(t, h.vault.GetSupportedTokens())
}

func TestDepositToken(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.mint(tokenA, outsider, 100)

	_, err := h.call(outsider, func(tx *chain.Tx) error { return h.vault.Deposit(tx, tokenA, amt(30)) })
	assert.ErrorIs(t, err, chain.ErrInsufficientAllowance)

	h.mustCall(outsider, func(tx *chain.Tx) error {
		tx.Approve(tokenA, outsider, h.vault.Address(), amt(60))
		return nil
	})
	h.mustCall(outsider, func(tx *chain.Tx) error { return h.vault.Deposit(tx, tokenA, amt(30)) })
	h.mustCall(outsider, func(tx *chain.Tx) error { return h.vault.Deposit(tx, tokenA, amt(30)) })

	assert.Equal(t, uint64(60), h.vault.GetBalance(tokenA).Uint64())
	assert.Equal(t, uint64(60), h.ledgerBalance(tokenA, h.vault.Address()).Uint64())
	assert.Equal(t, []common.Address{tokenA}, h.vault.GetSupportedTokens())

	// value cannot ride along with a token deposit
	h.mint(types.NativeAsset, outsider, 1)
	_, err = h.rt.Submit(t.Context(), chain.Call{From: outsider, To: h.vault.Address(), Value: amt(1)}, func(tx *chain.Tx) error {
		return h.vault.Deposit(tx, tokenA, amt(1))
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
	assert.Equal(t, uint64(1), h.ledgerBalance(types.NativeAsset, outsider).Uint64())
}

func TestWithdrawRules(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(8)

	tests := []struct {
		name   string
		from   common.Address
		amount uint64
		to     common.Address
		want   error
	}{
		{name: "not dao", from: signer1, amount: 1, to: recipient, want: ErrNotDAO},
		{name: "zero amount", from: daoAddr, amount: 0, to: recipient, want: ErrZeroAmount},
		{name: "zero recipient", from: daoAddr, amount: 1, to: common.Address{}, want: ErrInvalidRecipient},
		{name: "over limit", from: daoAddr, amount: 11, to: recipient, want: ErrExceedsLimit},
		{name: "over balance", from: daoAddr, amount: 9, to: recipient, want: ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := h.call(tt.from, func(tx *chain.Tx) error {
				return h.vault.Withdraw(tx, types.NativeAsset, amt(tt.amount), tt.to)
			})
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, r.Events)
		})
	}
	assert.Equal(t, uint64(8), h.vault.GetBalance(types.NativeAsset).Uint64())
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(3)
	h.mint(types.NativeAsset, outsider, 10)
	before := h.vault.GetBalance(types.NativeAsset)

	dep, err := h.depositNative(outsider, 10)
	require.NoError(t, err)
	wd := h.mustCall(daoAddr, func(tx *chain.Tx) error {
		return h.vault.Withdraw(tx, types.NativeAsset, amt(10), outsider)
	})

	assert.Equal(t, before, h.vault.GetBalance(types.NativeAsset))
	d := dep.EventsNamed("Deposit")[0]
	w := wd.EventsNamed("Withdrawal")[0]
	assert.Equal(t, d.Field("amount"), w.Field("amount"))
	assert.Equal(t, d.Field("token"), w.Field("token"))
}

func TestWithdrawTransferFailureIsFatal(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(10)
	h.setRejecting(recipient, true)

	r, err := h.call(daoAddr, func(tx *chain.Tx) error {
		return h.vault.Withdraw(tx, types.NativeAsset, amt(5), recipient)
	})
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, "Transfer failed", r.Reason)
	assert.Empty(t, r.Events)
	assert.Equal(t, uint64(10), h.vault.GetBalance(types.NativeAsset).Uint64())
	assert.Equal(t, uint64(10), h.ledgerBalance(types.NativeAsset, h.vault.Address()).Uint64())
}

func TestSpendingExecutionSoftFails(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(100)
	h.setRejecting(recipient, true)

	id, err := h.propose(signer1, 40)
	require.NoError(t, err)

	r, err := h.call(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	require.NoError(t, err, "a failed transfer must not reject the approval")
	failed := r.EventsNamed("SpendingProposalExecutionFailed")
	require.Len(t, failed, 1)
	assert.Equal(t, "Transfer failed", failed[0].Field("reason"))
	assert.Empty(t, r.EventsNamed("SpendingProposalExecuted"))

	p, _ := h.vault.GetSpendingProposal(id)
	assert.False(t, p.Executed)
	assert.Equal(t, uint64(1), p.Approvals)
	assert.Equal(t, "Transfer failed", p.LastFailure)
	assert.Equal(t, uint64(100), h.vault.GetBalance(types.NativeAsset).Uint64())

	r, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.ExecuteSpendingProposal(tx, id) })
	require.NoError(t, err, "manual execute reports the failure through an event")
	assert.Len(t, r.EventsNamed("SpendingProposalExecutionFailed"), 1)
	p, _ = h.vault.GetSpendingProposal(id)
	assert.False(t, p.Executed)
	assert.Equal(t, uint64(100), h.vault.GetBalance(types.NativeAsset).Uint64())

	// retry without re-approval once the recipient accepts funds
	h.setRejecting(recipient, false)
	r = h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ExecuteSpendingProposal(tx, id) })
	assert.Len(t, r.EventsNamed("SpendingProposalExecuted"), 1)
	assert.Equal(t, uint64(60), h.vault.GetBalance(types.NativeAsset).Uint64())
	assert.Equal(t, uint64(40), h.ledgerBalance(types.NativeAsset, recipient).Uint64())

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.ExecuteSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestCreateSpendingProposalRules(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(50)

	tests := []struct {
		name        string
		from        common.Address
		amount      uint64
		to          common.Address
		description string
		want        error
	}{
		{name: "non signer", from: outsider, amount: 20, to: recipient, description: "d", want: ErrNotSigner},
		{name: "zero amount", from: signer1, amount: 0, to: recipient, description: "d", want: ErrZeroAmount},
		{name: "zero recipient", from: signer1, amount: 20, to: common.Address{}, description: "d", want: ErrInvalidRecipient},
		{name: "at limit", from: signer1, amount: 10, to: recipient, description: "d", want: ErrUseWithdraw},
		{name: "empty description", from: signer1, amount: 20, to: recipient, description: "", want: ErrDescriptionEmpty},
		{name: "over balance", from: signer1, amount: 51, to: recipient, description: "d", want: ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.call(tt.from, func(tx *chain.Tx) error {
				_, err := h.vault.CreateSpendingProposal(tx, types.NativeAsset, amt(tt.amount), tt.to, tt.description)
				return err
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, uint64(0), h.vault.ProposalCount())

	id, err := h.propose(signer1, 11)
	require.NoError(t, err)
	p, _ := h.vault.GetSpendingProposal(id)
	assert.Equal(t, genesis.Add(ProposalLifetime), p.Deadline)
	assert.Equal(t, signer1, p.Proposer)
}

func TestApproveRules(t *testing.T) {
	h := newHarness(t, 10, 2)
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer2) })
	h.fund(100)
	id, err := h.propose(signer1, 20)
	require.NoError(t, err)

	_, err = h.call(outsider, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrNotSigner)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, 7) })
	assert.ErrorIs(t, err, ErrProposalNotFound)

	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	r, err := h.call(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrAlreadyApproved)
	assert.Equal(t, "Already approved", r.Reason)

	p, _ := h.vault.GetSpendingProposal(id)
	assert.Equal(t, uint64(1), p.Approvals)
	assert.True(t, h.vault.HasApproved(id, signer1))
	assert.False(t, h.vault.HasApproved(id, signer2))

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.ExecuteSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrInsufficientApprovals)

	h.clock.Advance(ProposalLifetime)
	_, err = h.call(signer2, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrProposalExpired)

	p, _ = h.vault.GetSpendingProposal(id)
	assert.True(t, p.Expired(h.clock.Now()))
}

func TestApproveAfterExecution(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer2) })
	h.fund(100)
	id, err := h.propose(signer1, 20)
	require.NoError(t, err)

	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	_, err = h.call(signer2, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestSignerManagement(t *testing.T) {
	h := newHarness(t, 10, 1)

	_, err := h.call(outsider, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer2) })
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, common.Address{}) })
	assert.ErrorIs(t, err, ErrInvalidSigner)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer1) })
	assert.ErrorIs(t, err, ErrAlreadySigner)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.RemoveSigner(tx, signer1) })
	assert.ErrorIs(t, err, ErrBelowRequired)

	for i := 1; i < MaxSigners; i++ {
		signer := common.BytesToAddress([]byte{0x55, byte(i)})
		h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer) })
	}
	require.Len(t, h.vault.GetSigners(), MaxSigners)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer2) })
	assert.ErrorIs(t, err, ErrMaxSigners)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.RemoveSigner(tx, signer2) })
	assert.ErrorIs(t, err, ErrSignerNotFound)

	gone := common.BytesToAddress([]byte{0x55, 3})
	r := h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.RemoveSigner(tx, gone) })
	assert.Len(t, r.EventsNamed("SignerRemoved"), 1)
	assert.False(t, h.vault.IsSigner(gone))
	assert.Len(t, h.vault.GetSigners(), MaxSigners-1)
}

func TestUpdateParameters(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer2) })

	_, err := h.call(signer1, func(tx *chain.Tx) error { return h.vault.UpdateWithdrawalLimit(tx, amt(0)) })
	assert.ErrorIs(t, err, ErrZeroLimit)

	_, err = h.call(signer2, func(tx *chain.Tx) error { return h.vault.UpdateWithdrawalLimit(tx, amt(5)) })
	assert.ErrorIs(t, err, ErrNotOwner)

	r := h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.UpdateWithdrawalLimit(tx, amt(5)) })
	ev := r.EventsNamed("WithdrawalLimitUpdated")
	require.Len(t, ev, 1)
	assert.Equal(t, "10", ev[0].Field("oldLimit"))
	assert.Equal(t, uint64(5), h.vault.WithdrawalLimit().Uint64())

	for _, n := range []uint64{0, 3} {
		_, err := h.call(signer1, func(tx *chain.Tx) error { return h.vault.UpdateRequiredSignatures(tx, n) })
		assert.ErrorIs(t, err, ErrInvalidRequiredSigs)
	}
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.UpdateRequiredSignatures(tx, 2) })
	assert.Equal(t, uint64(2), h.vault.RequiredSignatures())

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.RemoveSigner(tx, signer2) })
	assert.ErrorIs(t, err, ErrBelowRequired)
}

func TestEmergencyPause(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.AddSigner(tx, signer2) })
	h.fund(100)
	id, err := h.propose(signer1, 20)
	require.NoError(t, err)

	_, err = h.call(outsider, func(tx *chain.Tx) error { return h.vault.EmergencyPause(tx, "x") })
	assert.ErrorIs(t, err, ErrNotAuthorizedToPause)

	_, err = h.call(signer2, func(tx *chain.Tx) error { return h.vault.EmergencyPause(tx, "") })
	assert.ErrorIs(t, err, ErrEmptyReason)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.Unpause(tx) })
	assert.ErrorIs(t, err, ErrNotPaused)

	r := h.mustCall(signer2, func(tx *chain.Tx) error { return h.vault.EmergencyPause(tx, "key leak") })
	ev := r.EventsNamed("EmergencyPause")
	require.Len(t, ev, 1)
	assert.Equal(t, "key leak", ev[0].Field("reason"))
	assert.Equal(t, "key leak", h.vault.Info().PauseReason)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.EmergencyPause(tx, "again") })
	assert.ErrorIs(t, err, ErrPaused)

	h.mint(types.NativeAsset, outsider, 1)
	_, err = h.depositNative(outsider, 1)
	assert.ErrorIs(t, err, ErrPaused)

	_, err = h.call(daoAddr, func(tx *chain.Tx) error {
		return h.vault.Withdraw(tx, types.NativeAsset, amt(1), recipient)
	})
	assert.ErrorIs(t, err, ErrPaused)

	_, err = h.propose(signer1, 20)
	assert.ErrorIs(t, err, ErrPaused)

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrPaused)

	_, err = h.call(signer2, func(tx *chain.Tx) error { return h.vault.Unpause(tx) })
	assert.ErrorIs(t, err, ErrNotOwner)

	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.Unpause(tx) })
	assert.False(t, h.vault.Paused())
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
}

func TestExecuteNotBlockedByPause(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(100)
	id, err := h.propose(signer1, 20)
	require.NoError(t, err)

	h.setRejecting(recipient, true)
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.EmergencyPause(tx, "incident") })
	h.setRejecting(recipient, false)

	_, err = h.call(outsider, func(tx *chain.Tx) error { return h.vault.ExecuteSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrNotSigner)

	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ExecuteSpendingProposal(tx, id) })
	p, _ := h.vault.GetSpendingProposal(id)
	assert.True(t, p.Executed)
}

func TestAutoExecuteWithInsufficientBalanceKeepsApproval(t *testing.T) {
	h := newHarness(t, 30, 1)
	h.fund(40)
	id, err := h.propose(signer1, 35)
	require.NoError(t, err)

	h.mustCall(daoAddr, func(tx *chain.Tx) error {
		return h.vault.Withdraw(tx, types.NativeAsset, amt(30), recipient)
	})

	r := h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	failed := r.EventsNamed("SpendingProposalExecutionFailed")
	require.Len(t, failed, 1)
	assert.Equal(t, "Insufficient balance", failed[0].Field("reason"))

	_, err = h.call(signer1, func(tx *chain.Tx) error { return h.vault.ExecuteSpendingProposal(tx, id) })
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, h.vault.HasApproved(id, signer1))
}

func TestTrackedBalanceMatchesCustody(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(70)
	h.mint(tokenA, outsider, 9)
	h.mustCall(outsider, func(tx *chain.Tx) error {
		tx.Approve(tokenA, outsider, h.vault.Address(), amt(9))
		return nil
	})
	h.mustCall(outsider, func(tx *chain.Tx) error { return h.vault.Deposit(tx, tokenA, amt(9)) })
	h.mustCall(daoAddr, func(tx *chain.Tx) error { return h.vault.Withdraw(tx, tokenA, amt(4), recipient) })
	id, err := h.propose(signer1, 25)
	require.NoError(t, err)
	h.mustCall(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
	h.clock.Advance(time.Hour)

	for _, asset := range []common.Address{types.NativeAsset, tokenA} {
		assert.Equal(t, h.ledgerBalance(asset, h.vault.Address()), h.vault.GetBalance(asset), types.AssetLabel(asset))
	}
}

func TestSelfDepositRejected(t *testing.T) {
	h := newHarness(t, 10, 1)
	h.fund(100)
	self := h.vault.Address()

	_, err := h.depositNative(self, 50)
	assert.ErrorIs(t, err, ErrSelfDeposit)

	h.mint(tokenA, self, 30)
	h.mustCall(self, func(tx *chain.Tx) error {
		tx.Approve(tokenA, self, self, amt(30))
		return nil
	})
	_, err = h.call(self, func(tx *chain.Tx) error { return h.vault.Deposit(tx, tokenA, amt(30)) })
	assert.ErrorIs(t, err, ErrSelfDeposit)

	assert.Equal(t, uint64(100), h.vault.GetBalance(types.NativeAsset).Uint64())
	assert.True(t, h.vault.GetBalance(tokenA).IsZero())
	assert.Equal(t, h.ledgerBalance(types.NativeAsset, self), h.vault.GetBalance(types.NativeAsset))
}
