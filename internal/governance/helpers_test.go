package governance

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/logging"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var (
	owner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	mallory   = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	someVault = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

var genesis = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t     *testing.T
	rt    *chain.Runtime
	clock *clockwork.FakeClock
	dao   *DAO
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(genesis)
	rt := chain.NewRuntime(chain.WithClock(clock), chain.WithLogger(logging.NewNop()))

	h := &harness{t: t, rt: rt, clock: clock}
	_, err := rt.Submit(context.Background(), chain.Call{From: owner, Method: "deploy"}, func(tx *chain.Tx) error {
		c, err := tx.Deploy(owner, func(addr common.Address) (chain.Contract, error) {
			return New(addr, "Test DAO", owner, tx.Now())
		})
		if err != nil {
			return err
		}
		h.dao = c.(*DAO)
		return nil
	})
	require.NoError(t, err)
	return h
}

func (h *harness) call(from common.Address, fn func(tx *chain.Tx) error) (*chain.Receipt, error) {
	h.t.Helper()
	return h.rt.Submit(context.Background(), chain.Call{From: from, To: h.dao.Address()}, fn)
}

func (h *harness) mustCall(from common.Address, fn func(tx *chain.Tx) error) *chain.Receipt {
	h.t.Helper()
	r, err := h.call(from, fn)
	require.NoError(h.t, err)
	return r
}

func (h *harness) addMembers(n int) []common.Address {
	h.t.Helper()
	out := make([]common.Address, n)
	for i := range out {
		out[i] = memberAddr(i)
		m := out[i]
		h.mustCall(owner, func(tx *chain.Tx) error { return h.dao.AddMember(tx, m) })
	}
	return out
}

func (h *harness) propose(from common.Address, duration time.Duration) uint64 {
	h.t.Helper()
	var id uint64
	h.mustCall(from, func(tx *chain.Tx) error {
		var err error
		id, err = h.dao.Propose(tx, "T", "D", duration)
		return err
	})
	return id
}

func memberAddr(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x10000 + i)))
}
