package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	token = common.HexToAddress("0x00000000000000000000000000000000000070c3")

	errCounterNotOwner = apperrors.NewAuthorization("NOT_OWNER", "Only owner can call this function")
	counterBumped      = NewEventType("Bumped(uint256)")
)

type counter struct {
	Ownable
	addr  common.Address
	value uint64
}

func (c *counter) Address() common.Address  { return c.addr }
func (c *counter) Kind() types.ContractKind { return "counter" }

func (c *counter) bump(tx *Tx) {
	prev := c.value
	tx.OnRevert(func() { c.value = prev })
	c.value++
	tx.Emit(c.addr, counterBumped, Fields{"value": c.value})
}

func newTestRuntime(t *testing.T) (*Runtime, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewRuntime(WithClock(clock), WithLogger(logging.NewNop())), clock
}

func deployCounter(t *testing.T, rt *Runtime) *counter {
	t.Helper()
	var c *counter
	_, err := rt.Submit(context.Background(), Call{From: alice, Method: "deploy"}, func(tx *Tx) error {
		deployed, err := tx.Deploy(alice, func(addr common.Address) (Contract, error) {
			return &counter{Ownable: NewOwnable(addr, alice, errCounterNotOwner), addr: addr}, nil
		})
		if err != nil {
			return err
		}
		c = deployed.(*counter)
		return nil
	})
	require.NoError(t, err)
	return c
}

func TestDeployUsesCreateAddresses(t *testing.T) {
	rt, _ := newTestRuntime(t)

	first := deployCounter(t, rt)
	second := deployCounter(t, rt)

	assert.Equal(t, crypto.CreateAddress(alice, 0), first.Address())
	assert.Equal(t, crypto.CreateAddress(alice, 1), second.Address())

	err := rt.View(func(r Reader) error {
		got, ok := Lookup[*counter](r, first.Address())
		assert.True(t, ok)
		assert.Same(t, first, got)

		_, ok = Lookup[*counter](r, bob)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestSubmitCommitsEvents(t *testing.T) {
	rt, clock := newTestRuntime(t)
	c := deployCounter(t, rt)

	clock.Advance(time.Minute)
	receipt, err := rt.Submit(context.Background(), Call{From: alice, To: c.Address(), Method: "bump"}, func(tx *Tx) error {
		c.bump(tx)
		return nil
	})
	require.NoError(t, err)
	require.True(t, receipt.Succeeded())
	require.Len(t, receipt.Events, 1)

	ev := receipt.Events[0]
	assert.Equal(t, "Bumped", ev.Name)
	assert.Equal(t, crypto.Keccak256Hash([]byte("Bumped(uint256)")), ev.Topic)
	assert.Equal(t, "1", ev.Field("value"))
	assert.Equal(t, receipt.TxID, ev.TxID)
	assert.Equal(t, clock.Now(), receipt.Timestamp)

	stored, ok := rt.Receipt(receipt.TxID)
	require.True(t, ok)
	assert.Same(t, receipt, stored)
}

func TestSubmitRevertRollsBackEverything(t *testing.T) {
	rt, _ := newTestRuntime(t)
	c := deployCounter(t, rt)
	boom := apperrors.NewConflict("BOOM", "Boom")

	_, err := rt.Submit(context.Background(), Call{From: alice}, func(tx *Tx) error {
		return tx.Mint(types.NativeAsset, alice, uint256.NewInt(100))
	})
	require.NoError(t, err)

	receipt, err := rt.Submit(context.Background(), Call{From: alice, To: c.Address()}, func(tx *Tx) error {
		c.bump(tx)
		if err := tx.Transfer(types.NativeAsset, alice, bob, uint256.NewInt(40)); err != nil {
			return err
		}
		_, err := tx.Deploy(alice, func(addr common.Address) (Contract, error) {
			return &counter{addr: addr}, nil
		})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, types.StatusReverted, receipt.Status)
	assert.Equal(t, "Boom", receipt.Reason)
	assert.Empty(t, receipt.Events)

	assert.Equal(t, uint64(0), c.value)
	_ = rt.View(func(r Reader) error {
		assert.Equal(t, uint64(100), r.BalanceOf(types.NativeAsset, alice).Uint64())
		assert.True(t, r.BalanceOf(types.NativeAsset, bob).IsZero())
		_, deployed := r.Contract(crypto.CreateAddress(alice, 1))
		assert.False(t, deployed)
		return nil
	})

	// the nonce was rolled back too, so the next deploy reuses it
	next := deployCounter(t, rt)
	assert.Equal(t, crypto.CreateAddress(alice, 1), next.Address())
}

func TestSubmitRecoversPanics(t *testing.T) {
	rt, _ := newTestRuntime(t)

	receipt, err := rt.Submit(context.Background(), Call{From: alice}, func(tx *Tx) error {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Equal(t, types.StatusReverted, receipt.Status)
	assert.Equal(t, "call panicked", receipt.Reason)
}

func TestSubmitHonorsCancelledContext(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	receipt, err := rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error { return nil })
	assert.Nil(t, receipt)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uint64(0), rt.Height())
}

func TestCallValueMovesNativeFunds(t *testing.T) {
	rt, _ := newTestRuntime(t)
	c := deployCounter(t, rt)

	_, err := rt.Submit(context.Background(), Call{From: alice}, func(tx *Tx) error {
		return tx.Mint(types.NativeAsset, alice, uint256.NewInt(10))
	})
	require.NoError(t, err)

	_, err = rt.Submit(context.Background(), Call{From: alice, To: c.Address(), Value: uint256.NewInt(7)}, func(tx *Tx) error {
		assert.Equal(t, uint64(7), tx.CallValue().Uint64())
		return nil
	})
	require.NoError(t, err)

	_, err = rt.Submit(context.Background(), Call{From: alice, To: c.Address(), Value: uint256.NewInt(7)}, func(tx *Tx) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_ = rt.View(func(r Reader) error {
		assert.Equal(t, uint64(3), r.BalanceOf(types.NativeAsset, alice).Uint64())
		assert.Equal(t, uint64(7), r.BalanceOf(types.NativeAsset, c.Address()).Uint64())
		return nil
	})
}

func TestLedgerAllowancesAndRejection(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()

	_, err := rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error {
		require.NoError(t, tx.Mint(token, alice, uint256.NewInt(50)))
		tx.Approve(token, alice, bob, uint256.NewInt(20))
		return nil
	})
	require.NoError(t, err)

	_, err = rt.Submit(ctx, Call{From: bob}, func(tx *Tx) error {
		return tx.TransferFrom(token, bob, alice, bob, uint256.NewInt(30))
	})
	assert.ErrorIs(t, err, ErrInsufficientAllowance)

	_, err = rt.Submit(ctx, Call{From: bob}, func(tx *Tx) error {
		return tx.TransferFrom(token, bob, alice, bob, uint256.NewInt(15))
	})
	require.NoError(t, err)

	_, err = rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error {
		tx.SetRejecting(bob, true)
		return nil
	})
	require.NoError(t, err)

	_, err = rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error {
		return tx.Transfer(token, alice, bob, uint256.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrTransferRejected)

	_ = rt.View(func(r Reader) error {
		assert.Equal(t, uint64(35), r.BalanceOf(token, alice).Uint64())
		assert.Equal(t, uint64(15), r.BalanceOf(token, bob).Uint64())
		assert.Equal(t, uint64(5), r.Allowance(token, alice, bob).Uint64())
		return nil
	})
}

func TestLedgerRejectsOverflow(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ctx := context.Background()
	ceiling := new(uint256.Int).SetAllOne()

	_, err := rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error {
		if err := tx.Mint(token, alice, ceiling); err != nil {
			return err
		}
		return tx.Mint(token, bob, uint256.NewInt(1))
	})
	require.NoError(t, err)

	_, err = rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error {
		return tx.Mint(token, alice, uint256.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	_, err = rt.Submit(ctx, Call{From: bob}, func(tx *Tx) error {
		return tx.Transfer(token, bob, alice, uint256.NewInt(1))
	})
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	_ = rt.View(func(r Reader) error {
		assert.True(t, r.BalanceOf(token, alice).Eq(ceiling))
		assert.Equal(t, uint64(1), r.BalanceOf(token, bob).Uint64())
		return nil
	})
}

func TestOwnableTransferAndRenounce(t *testing.T) {
	rt, _ := newTestRuntime(t)
	c := deployCounter(t, rt)
	ctx := context.Background()

	_, err := rt.Submit(ctx, Call{From: bob}, func(tx *Tx) error {
		return c.TransferOwnership(tx, bob)
	})
	assert.ErrorIs(t, err, errCounterNotOwner)

	_, err = rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error {
		return c.TransferOwnership(tx, common.Address{})
	})
	assert.ErrorIs(t, err, ErrInvalidNewOwner)

	receipt, err := rt.Submit(ctx, Call{From: alice}, func(tx *Tx) error {
		return c.TransferOwnership(tx, bob)
	})
	require.NoError(t, err)
	assert.Equal(t, bob, c.Owner())
	transferred := receipt.EventsNamed("OwnershipTransferred")
	require.Len(t, transferred, 1)
	assert.Equal(t, alice.Hex(), transferred[0].Field("previousOwner"))

	_, err = rt.Submit(ctx, Call{From: bob}, func(tx *Tx) error {
		return c.RenounceOwnership(tx)
	})
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, c.Owner())
	assert.False(t, c.IsOwner(common.Address{}))
}

func TestSubscribeDeliversAndDrops(t *testing.T) {
	rt, _ := newTestRuntime(t)
	ch, cancel := rt.Subscribe(1)
	defer cancel()

	for i := 0; i < 3; i++ {
		_, _ = rt.Submit(context.Background(), Call{From: alice}, func(tx *Tx) error { return nil })
	}

	first := <-ch
	assert.Equal(t, uint64(1), first.Seq)
	select {
	case r := <-ch:
		t.Fatalf("expected dropped receipts, got seq %d", r.Seq)
	default:
	}

	assert.Len(t, rt.Receipts(0, 0), 3)
	assert.Len(t, rt.Receipts(1, 1), 1)
	assert.Nil(t, rt.Receipts(3, 0))

	cancel()
	_, open := <-ch
	assert.False(t, open)
}
