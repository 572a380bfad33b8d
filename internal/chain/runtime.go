// Package chain provides the single-writer transaction runtime the
// governance and treasury contracts execute on.
package chain

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Runtime executes calls one at a time against in-memory contract state.
// A call either commits all of its effects and events or none of them.
type Runtime struct {
	mu sync.Mutex

	clock  clockwork.Clock
	logger *logging.Logger

	ledger    *Ledger
	contracts map[common.Address]Contract
	nonces    map[common.Address]uint64

	txSeq      uint64
	eventIndex uint64
	log        []*Receipt
	byID       map[string]*Receipt

	subs    map[int]chan *Receipt
	nextSub int
}

// Option configures a Runtime
type Option func(*Runtime)

// WithClock sets the clock used for block timestamps
func WithClock(clock clockwork.Clock) Option {
	return func(rt *Runtime) { rt.clock = clock }
}

// WithLogger sets the runtime logger
func WithLogger(logger *logging.Logger) Option {
	return func(rt *Runtime) { rt.logger = logger }
}

// NewRuntime creates an empty runtime
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		clock:     clockwork.NewRealClock(),
		ledger:    newLedger(),
		contracts: make(map[common.Address]Contract),
		nonces:    make(map[common.Address]uint64),
		byID:      make(map[string]*Receipt),
		subs:      make(map[int]chan *Receipt),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = logging.GetGlobalLogger()
	}
	return rt
}

// Clock returns the runtime clock
func (rt *Runtime) Clock() clockwork.Clock {
	return rt.clock
}

// Submit runs fn as one serial call. The returned error is fn's error, so
// callers can match precondition sentinels with errors.Is. A receipt is
// returned for every call that reached the runtime.
func (rt *Runtime) Submit(ctx context.Context, call Call, fn func(tx *Tx) error) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.txSeq++
	tx := &Tx{
		ID:     uuid.NewString(),
		Seq:    rt.txSeq,
		From:   call.From,
		To:     call.To,
		Value:  call.Value,
		Method: call.Method,
		Time:   rt.clock.Now(),
		rt:     rt,
	}

	err := rt.execute(tx, fn)
	receipt := &Receipt{
		TxID:      tx.ID,
		Seq:       tx.Seq,
		From:      tx.From,
		To:        tx.To,
		Method:    tx.Method,
		Timestamp: tx.Time,
	}

	logger := rt.logger.WithFields(map[string]interface{}{
		"tx":     tx.ID,
		"seq":    tx.Seq,
		"from":   tx.From.Hex(),
		"to":     tx.To.Hex(),
		"method": tx.Method,
	})

	if err != nil {
		tx.rollback()
		receipt.Status = types.StatusReverted
		receipt.Reason = apperrors.Reason(err)
		receipt.Err = err
		logger.WithField("reason", receipt.Reason).Debug("call reverted")
	} else {
		for i := range tx.events {
			rt.eventIndex++
			tx.events[i].Index = rt.eventIndex
		}
		receipt.Status = types.StatusSuccess
		receipt.Events = tx.events
		logger.WithField("events", len(tx.events)).Debug("call committed")
	}

	rt.log = append(rt.log, receipt)
	rt.byID[receipt.TxID] = receipt
	rt.publish(receipt)

	return receipt, err
}

func (rt *Runtime) execute(tx *Tx, fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewInternalError("call panicked", fmt.Errorf("%v", r))
		}
	}()

	if tx.Value != nil && !tx.Value.IsZero() {
		if tx.To == (common.Address{}) {
			return apperrors.NewInvalidParameterError("value", "value sent without a target")
		}
		if err := tx.rt.ledger.move(tx, types.NativeAsset, tx.From, tx.To, tx.Value); err != nil {
			return err
		}
	}
	return fn(tx)
}

// View runs fn against a consistent snapshot of state.
func (rt *Runtime) View(fn func(r Reader) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return fn(view{rt: rt, now: rt.clock.Now()})
}

// Subscribe registers a receiver for every future receipt. Delivery never
// blocks the runtime: when the buffer is full the receipt is dropped for
// that subscriber. The returned function unsubscribes and closes the channel.
func (rt *Runtime) Subscribe(buffer int) (<-chan *Receipt, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan *Receipt, buffer)

	rt.mu.Lock()
	id := rt.nextSub
	rt.nextSub++
	rt.subs[id] = ch
	rt.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			rt.mu.Lock()
			delete(rt.subs, id)
			rt.mu.Unlock()
			close(ch)
		})
	}
}

func (rt *Runtime) publish(receipt *Receipt) {
	for id, ch := range rt.subs {
		select {
		case ch <- receipt:
		default:
			rt.logger.WithFields(map[string]interface{}{
				"subscriber": id,
				"tx":         receipt.TxID,
			}).Warn("subscriber buffer full, dropping receipt")
		}
	}
}

// Receipt returns a past receipt by transaction id
func (rt *Runtime) Receipt(txID string) (*Receipt, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	r, ok := rt.byID[txID]
	return r, ok
}

// Receipts returns up to limit receipts with sequence numbers greater than after
func (rt *Runtime) Receipts(after uint64, limit int) []*Receipt {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if after >= uint64(len(rt.log)) {
		return nil
	}
	out := rt.log[after:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	res := make([]*Receipt, len(out))
	copy(res, out)
	return res
}

// Height returns the number of calls processed so far
func (rt *Runtime) Height() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.txSeq
}
