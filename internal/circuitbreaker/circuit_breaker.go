// Package circuitbreaker stops calling a mirror store after it keeps failing
// and probes it again once a cooldown has passed.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/dao-vault/internal/logging"
	"github.com/jonboulle/clockwork"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means calls go through
	StateClosed State = "closed"
	// StateOpen means calls are rejected without running
	StateOpen State = "open"
	// StateHalfOpen means trial calls are probing whether the store recovered
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned instead of running the call while the circuit is open
var ErrOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	Name             string
	MaxFailures      int           // consecutive failures before opening
	Cooldown         time.Duration // time spent open before a trial call
	HalfOpenMaxCalls int           // trial successes needed to close again
	Clock            clockwork.Clock
	Logger           *logging.Logger
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		MaxFailures:      5,
		Cooldown:         30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker guards one downstream store
type CircuitBreaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	halfOpenMax int
	clock       clockwork.Clock
	logger      *logging.Logger

	mu                sync.Mutex
	state             State
	consecutiveFails  int
	halfOpenSuccesses int
	halfOpenInFlight  int
	lastStateChange   time.Time
	lastFailureTime   time.Time

	totalCalls int
	failures   int
	rejected   int
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(config *Config) *CircuitBreaker {
	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	maxFailures := config.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 1
	}
	halfOpenMax := config.HalfOpenMaxCalls
	if halfOpenMax <= 0 {
		halfOpenMax = 1
	}
	return &CircuitBreaker{
		name:            config.Name,
		maxFailures:     maxFailures,
		cooldown:        config.Cooldown,
		halfOpenMax:     halfOpenMax,
		clock:           clock,
		logger:          logger.WithField("circuit_breaker", config.Name),
		state:           StateClosed,
		lastStateChange: clock.Now(),
	}
}

// Execute runs fn unless the circuit is open
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := fn()

	cb.afterRequest(err)

	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.clock.Since(cb.lastStateChange) < cb.cooldown {
			cb.rejected++
			return ErrOpen
		}
		cb.setState(StateHalfOpen)
		cb.logger.Info("Circuit breaker transitioning to half-open")
		fallthrough

	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.halfOpenMax {
			cb.rejected++
			return ErrOpen
		}
		cb.halfOpenInFlight++
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++
	if cb.state == StateHalfOpen {
		cb.halfOpenInFlight--
	}

	if err != nil {
		cb.onFailure()
	} else {
		cb.onSuccess()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.consecutiveFails = 0

	if cb.state == StateHalfOpen {
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.halfOpenMax {
			cb.setState(StateClosed)
			cb.logger.Info("Circuit breaker closed after successful recovery")
		}
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.consecutiveFails++
	cb.lastFailureTime = cb.clock.Now()

	switch cb.state {
	case StateClosed:
		if cb.consecutiveFails >= cb.maxFailures {
			cb.setState(StateOpen)
			cb.logger.WithFields(map[string]interface{}{
				"consecutive_fails": cb.consecutiveFails,
				"cooldown":          cb.cooldown.String(),
			}).Warn("Circuit breaker opened due to failures")
		}

	case StateHalfOpen:
		cb.setState(StateOpen)
		cb.logger.Warn("Circuit breaker reopened after failure in half-open state")
	}
}

// setState changes state and clears the per-state counters
func (cb *CircuitBreaker) setState(state State) {
	cb.state = state
	cb.lastStateChange = cb.clock.Now()
	cb.halfOpenSuccesses = 0
	cb.halfOpenInFlight = 0
	if state == StateClosed {
		cb.consecutiveFails = 0
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		Name:             cb.name,
		State:            cb.state,
		TotalCalls:       cb.totalCalls,
		Failures:         cb.failures,
		Rejected:         cb.rejected,
		ConsecutiveFails: cb.consecutiveFails,
		LastFailureTime:  cb.lastFailureTime,
		LastStateChange:  cb.lastStateChange,
	}
}

// Stats represents circuit breaker statistics
type Stats struct {
	Name             string    `json:"name"`
	State            State     `json:"state"`
	TotalCalls       int       `json:"totalCalls"`
	Failures         int       `json:"failures"`
	Rejected         int       `json:"rejected"`
	ConsecutiveFails int       `json:"consecutiveFails"`
	LastFailureTime  time.Time `json:"lastFailureTime"`
	LastStateChange  time.Time `json:"lastStateChange"`
}

// Reset manually closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setState(StateClosed)
	cb.logger.Info("Circuit breaker manually reset")
}
