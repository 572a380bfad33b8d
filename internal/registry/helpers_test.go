package registry

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/governance"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/treasury"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var (
	admin   = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	mallory = common.HexToAddress("0x00000000000000000000000000000000000000e1")
)

var genesis = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	rt     *chain.Runtime
	clock  *clockwork.FakeClock
	daos   *DAOFactory
	vaults *VaultFactory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(genesis)
	rt := chain.NewRuntime(chain.WithClock(clock), chain.WithLogger(logging.NewNop()))
	h := &harness{t: t, rt: rt, clock: clock}

	_, err := rt.Submit(context.Background(), chain.Call{From: admin, Method: "bootstrap"}, func(tx *chain.Tx) error {
		c, err := tx.Deploy(admin, func(addr common.Address) (chain.Contract, error) {
			return NewDAOFactory(addr, admin), nil
		})
		if err != nil {
			return err
		}
		h.daos = c.(*DAOFactory)
		c, err = tx.Deploy(admin, func(addr common.Address) (chain.Contract, error) {
			return NewVaultFactory(addr, admin), nil
		})
		if err != nil {
			return err
		}
		h.vaults = c.(*VaultFactory)
		return nil
	})
	require.NoError(t, err)
	return h
}

func (h *harness) call(from, to common.Address, fn func(tx *chain.Tx) error) (*chain.Receipt, error) {
	h.t.Helper()
	return h.rt.Submit(context.Background(), chain.Call{From: from, To: to}, fn)
}

func (h *harness) createDAO(from common.Address, name string) (common.Address, error) {
	h.t.Helper()
	var dao common.Address
	_, err := h.call(from, h.daos.Address(), func(tx *chain.Tx) error {
		var err error
		dao, err = h.daos.CreateDAO(tx, name)
		return err
	})
	return dao, err
}

func (h *harness) mustCreateDAO(from common.Address, name string) common.Address {
	h.t.Helper()
	dao, err := h.createDAO(from, name)
	require.NoError(h.t, err)
	return dao
}

func (h *harness) createVault(from, dao common.Address) (common.Address, error) {
	h.t.Helper()
	var vault common.Address
	_, err := h.call(from, h.vaults.Address(), func(tx *chain.Tx) error {
		var err error
		vault, err = h.vaults.CreateVault(tx, dao, types.EtherAmount(1))
		return err
	})
	return vault, err
}

func (h *harness) mustCreateVault(from, dao common.Address) common.Address {
	h.t.Helper()
	vault, err := h.createVault(from, dao)
	require.NoError(h.t, err)
	return vault
}

func (h *harness) register(from, dao, vault common.Address) error {
	h.t.Helper()
	_, err := h.call(from, h.daos.Address(), func(tx *chain.Tx) error {
		return h.daos.RegisterVault(tx, dao, vault)
	})
	return err
}

func (h *harness) dao(addr common.Address) *governance.DAO {
	h.t.Helper()
	var d *governance.DAO
	require.NoError(h.t, h.rt.View(func(r chain.Reader) error {
		var ok bool
		d, ok = chain.Lookup[*governance.DAO](r, addr)
		require.True(h.t, ok)
		return nil
	}))
	return d
}

func (h *harness) vault(addr common.Address) *treasury.Vault {
	h.t.Helper()
	var v *treasury.Vault
	require.NoError(h.t, h.rt.View(func(r chain.Reader) error {
		var ok bool
		v, ok = chain.Lookup[*treasury.Vault](r, addr)
		require.True(h.t, ok)
		return nil
	}))
	return v
}

func userAddr(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(0x20000 + i)))
}
