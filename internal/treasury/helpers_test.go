package treasury

import (
	"context"
	"testing"
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var (
	daoAddr   = common.HexToAddress("0x0000000000000000000000000000000000000da0")
	signer1   = common.HexToAddress("0x0000000000000000000000000000000000000051")
	signer2   = common.HexToAddress("0x0000000000000000000000000000000000000052")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000ec")
	outsider  = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	tokenA    = common.HexToAddress("0x00000000000000000000000000000000000070a0")
)

var genesis = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func amt(n uint64) *uint256.Int { return uint256.NewInt(n) }

type harness struct {
	t     *testing.T
	rt    *chain.Runtime
	clock *clockwork.FakeClock
	vault *Vault
}

// newHarness deploys a vault owned by signer1 with the given parameters
func newHarness(t *testing.T, limit uint64, required uint64) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(genesis)
	rt := chain.NewRuntime(chain.WithClock(clock), chain.WithLogger(logging.NewNop()))
	h := &harness{t: t, rt: rt, clock: clock}

	_, err := rt.Submit(context.Background(), chain.Call{From: signer1, Method: "deploy"}, func(tx *chain.Tx) error {
		c, err := tx.Deploy(signer1, func(addr common.Address) (chain.Contract, error) {
			return New(addr, daoAddr, signer1, amt(limit), required, tx.Now())
		})
		if err != nil {
			return err
		}
		h.vault = c.(*Vault)
		return nil
	})
	require.NoError(t, err)
	return h
}

func (h *harness) call(from common.Address, fn func(tx *chain.Tx) error) (*chain.Receipt, error) {
	h.t.Helper()
	return h.rt.Submit(context.Background(), chain.Call{From: from, To: h.vault.Address()}, fn)
}

func (h *harness) mustCall(from common.Address, fn func(tx *chain.Tx) error) *chain.Receipt {
	h.t.Helper()
	r, err := h.call(from, fn)
	require.NoError(h.t, err)
	return r
}

func (h *harness) mint(asset, to common.Address, amount uint64) {
	h.t.Helper()
	_, err := h.rt.Submit(context.Background(), chain.Call{From: to}, func(tx *chain.Tx) error {
		return tx.Mint(asset, to, amt(amount))
	})
	require.NoError(h.t, err)
}

func (h *harness) depositNative(from common.Address, amount uint64) (*chain.Receipt, error) {
	h.t.Helper()
	call := chain.Call{From: from, To: h.vault.Address(), Value: amt(amount), Method: "deposit"}
	return h.rt.Submit(context.Background(), call, func(tx *chain.Tx) error {
		return h.vault.Deposit(tx, types.NativeAsset, amt(amount))
	})
}

func (h *harness) fund(amount uint64) {
	h.t.Helper()
	h.mint(types.NativeAsset, outsider, amount)
	_, err := h.depositNative(outsider, amount)
	require.NoError(h.t, err)
}

func (h *harness) setRejecting(account common.Address, rejecting bool) {
	h.t.Helper()
	_, err := h.rt.Submit(context.Background(), chain.Call{From: account}, func(tx *chain.Tx) error {
		tx.SetRejecting(account, rejecting)
		return nil
	})
	require.NoError(h.t, err)
}

func (h *harness) ledgerBalance(asset, account common.Address) *uint256.Int {
	var out *uint256.Int
	_ = h.rt.View(func(r chain.Reader) error {
		out = r.BalanceOf(asset, account)
		return nil
	})
	return out
}

func (h *harness) propose(from common.Address, amount uint64) (uint64, error) {
	var id uint64
	_, err := h.call(from, func(tx *chain.Tx) error {
		var err error
		id, err = h.vault.CreateSpendingProposal(tx, types.NativeAsset, amt(amount), recipient, "desc")
		return err
	})
	return id, err
}
