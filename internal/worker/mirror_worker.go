// Package worker runs background consumers of the chain runtime.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/circuitbreaker"
	apperrors "github.com/dao-vault/internal/errors"
	"github.com/dao-vault/internal/logging"
	"github.com/jonboulle/clockwork"
)

// Sink receives every receipt the runtime publishes
type Sink interface {
	Name() string
	Handle(ctx context.Context, receipt *chain.Receipt) error
}

// Source hands out receipt subscriptions. *chain.Runtime implements it.
type Source interface {
	Subscribe(buffer int) (<-chan *chain.Receipt, func())
}

// MirrorWorker drains runtime receipts into the mirror sinks. A failing
// sink is retried and then skipped; it never affects the runtime.
type MirrorWorker struct {
	source   Source
	sinks    []Sink
	breakers []*circuitbreaker.CircuitBreaker
	buffer   int
	attempts uint
	delay    time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
	cancel  func()
	doneCh  chan struct{}

	processed atomic.Uint64
	failed    atomic.Uint64
	skipped   atomic.Uint64
}

// MirrorWorkerConfig holds configuration for a mirror worker
type MirrorWorkerConfig struct {
	Source        Source
	Sinks         []Sink
	Buffer        int
	RetryAttempts uint
	RetryDelay    time.Duration
	Logger        *logging.Logger

	// BreakerFailures opens a sink's circuit after that many consecutive
	// failed attempts. Zero disables the breakers.
	BreakerFailures int
	BreakerCooldown time.Duration
	Clock           clockwork.Clock
}

// MirrorStats counts handled receipts and sink failures
type MirrorStats struct {
	Processed uint64                 `json:"processed"`
	Failed    uint64                 `json:"failed"`
	Skipped   uint64                 `json:"skipped"`
	Breakers  []circuitbreaker.Stats `json:"breakers,omitempty"`
}

// NewMirrorWorker creates a new mirror worker
func NewMirrorWorker(cfg *MirrorWorkerConfig) (*MirrorWorker, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("receipt source cannot be nil")
	}
	if len(cfg.Sinks) == 0 {
		return nil, fmt.Errorf("at least one sink is required")
	}

	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = 1024
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	w := &MirrorWorker{
		source:   cfg.Source,
		sinks:    cfg.Sinks,
		buffer:   buffer,
		attempts: attempts,
		delay:    cfg.RetryDelay,
		logger:   logger.WithField("component", "mirror_worker"),
	}
	if cfg.BreakerFailures > 0 {
		for _, sink := range cfg.Sinks {
			bc := circuitbreaker.DefaultConfig(sink.Name())
			bc.MaxFailures = cfg.BreakerFailures
			if cfg.BreakerCooldown > 0 {
				bc.Cooldown = cfg.BreakerCooldown
			}
			bc.Clock = cfg.Clock
			bc.Logger = w.logger
			w.breakers = append(w.breakers, circuitbreaker.NewCircuitBreaker(bc))
		}
	}
	return w, nil
}

// Start subscribes to the source and processes receipts until Stop or ctx is done
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("mirror worker is already running")
	}

	receipts, unsubscribe := w.source.Subscribe(w.buffer)
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = func() {
		cancel()
		unsubscribe()
	}
	done := make(chan struct{})
	w.doneCh = done
	w.running = true

	go w.loop(runCtx, receipts, done)

	w.logger.WithField("sinks", len(w.sinks)).Info("Mirror worker started")
	return nil
}

// Stop unsubscribes and waits for the in-flight receipt to finish
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is not running")
	}
	w.cancel()
	done := w.doneCh
	w.running = false
	w.mu.Unlock()

	select {
	case <-done:
		w.logger.Info("Mirror worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the worker counters
func (w *MirrorWorker) Stats() MirrorStats {
	stats := MirrorStats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
		Skipped:   w.skipped.Load(),
	}
	for _, b := range w.breakers {
		stats.Breakers = append(stats.Breakers, b.GetStats())
	}
	return stats
}

func (w *MirrorWorker) loop(ctx context.Context, receipts <-chan *chain.Receipt, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-receipts:
			if !ok {
				return
			}
			w.handle(ctx, r)
		}
	}
}

func (w *MirrorWorker) handle(ctx context.Context, r *chain.Receipt) {
	for i, sink := range w.sinks {
		call := func() error { return sink.Handle(ctx, r) }
		if w.breakers != nil {
			breaker := w.breakers[i]
			call = func() error {
				return breaker.Execute(func() error { return sink.Handle(ctx, r) })
			}
		}
		err := retry.Do(
			call,
			retry.Context(ctx),
			retry.Attempts(w.attempts),
			retry.Delay(w.delay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				return !apperrors.IsUserError(err) && !errors.Is(err, circuitbreaker.ErrOpen)
			}),
			retry.OnRetry(func(attempt uint, err error) {
				w.logger.WithError(err).WithFields(map[string]interface{}{
					"sink":    sink.Name(),
					"tx_id":   r.TxID,
					"attempt": attempt + 1,
				}).Warn("Mirror sink failed, retrying")
			}),
		)
		if errors.Is(err, circuitbreaker.ErrOpen) {
			w.skipped.Add(1)
			w.logger.WithFields(map[string]interface{}{
				"sink":  sink.Name(),
				"tx_id": r.TxID,
			}).Debug("Mirror sink circuit open, skipping receipt")
			continue
		}
		if err != nil {
			w.failed.Add(1)
			w.logger.WithError(err).WithFields(map[string]interface{}{
				"sink":  sink.Name(),
				"tx_id": r.TxID,
				"seq":   r.Seq,
			}).Error("Mirror sink gave up on receipt")
		}
	}
	w.processed.Add(1)
}
