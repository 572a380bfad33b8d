package treasury

import (
	"testing"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/types"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: spending proposals are rejected exactly when the amount does not
// exceed the withdrawal limit, and withdrawals exactly when it does
func TestWithdrawalLimitSplitProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("limit separates withdraw from proposals", prop.ForAll(
		func(limit, amount uint64) bool {
			h := newHarness(t, limit, 1)
			h.fund(2000)

			_, propErr := h.propose(signer1, amount)
			_, wdErr := h.call(daoAddr, func(tx *chain.Tx) error {
				return h.vault.Withdraw(tx, types.NativeAsset, amt(amount), recipient)
			})

			if amount <= limit {
				return propErr == ErrUseWithdraw && wdErr == nil
			}
			return propErr == nil && wdErr == ErrExceedsLimit
		},
		gen.UInt64Range(1, 1000),
		gen.UInt64Range(1, 1000),
	))

	properties.TestingRun(t)
}

// Property: depositing then withdrawing the same amount restores the balance
func TestDepositWithdrawRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("deposit then withdraw is identity", prop.ForAll(
		func(initial, x uint64) bool {
			h := newHarness(t, 500, 1)
			if initial > 0 {
				h.fund(initial)
			}
			before := h.vault.GetBalance(types.NativeAsset)

			h.mint(types.NativeAsset, outsider, x)
			dep, err := h.depositNative(outsider, x)
			if err != nil {
				return false
			}
			wd, err := h.call(daoAddr, func(tx *chain.Tx) error {
				return h.vault.Withdraw(tx, types.NativeAsset, amt(x), outsider)
			})
			if err != nil {
				return false
			}

			d, w := dep.EventsNamed("Deposit"), wd.EventsNamed("Withdrawal")
			return h.vault.GetBalance(types.NativeAsset).Eq(before) &&
				len(d) == 1 && len(w) == 1 &&
				d[0].Field("amount") == w[0].Field("amount")
		},
		gen.UInt64Range(0, 1000),
		gen.UInt64Range(1, 500),
	))

	properties.TestingRun(t)
}

// Property: a repeated approval by the same signer never raises the count
func TestApproveIdempotenceProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("second approval fails with Already approved", prop.ForAll(
		func(repeats int) bool {
			h := newHarness(t, 10, 2)
			h.fund(100)
			id, err := h.propose(signer1, 50)
			if err != nil {
				return false
			}
			if _, err := h.call(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) }); err != nil {
				return false
			}
			for i := 0; i < repeats; i++ {
				_, err := h.call(signer1, func(tx *chain.Tx) error { return h.vault.ApproveSpendingProposal(tx, id) })
				if err != ErrAlreadyApproved {
					return false
				}
			}
			p, _ := h.vault.GetSpendingProposal(id)
			return p.Approvals == 1 && !p.Executed
		},
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}
