package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/iptv-italy/iptv-italy/logging"
)

// State represents the current state of the circuit breaker
type State int

const (
	// StateClosed means calls flow through normally
	StateClosed State = iota
	// StateOpen means calls are rejected without reaching the provider
	StateOpen
	// StateHalfOpen means a limited number of probe calls are allowed through
	StateHalfOpen
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrCircuitOpen is returned when the breaker rejects a call outright
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyProbes is returned when the half-open probe budget is spent
	ErrTooManyProbes = errors.New("circuit breaker half-open probe limit reached")
)

// Config contains the configuration for a circuit breaker
type Config struct {
	FailureThreshold int             // Consecutive failures before opening
	Timeout          time.Duration   // Time in OPEN before probing again
	ProbeRequests    int             // Probe calls allowed in HALF-OPEN
	Logger           *logging.Logger // Logger for state changes (optional)
	Provider         string          // Provider name for logging context (optional)
	OnTrip           func()          // Called on each transition to OPEN (optional)
}

// Breaker guards calls to one provider API. A run of consecutive failures
// opens the circuit so the remaining channels of that provider fail fast
// instead of each waiting out an upstream timeout.
type Breaker struct {
	cfg Config

	mu        sync.Mutex
	state     State
	failures  int
	probes    int
	probeWins int
	openedAt  time.Time
}

// New creates a circuit breaker with the given configuration
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ProbeRequests <= 0 {
		cfg.ProbeRequests = 1
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Execute runs fn if the circuit allows it and records the outcome
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

// allow decides whether a call may proceed, advancing OPEN to HALF-OPEN
// once the open timeout has elapsed
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.openedAt) >= b.cfg.Timeout {
		b.transitionTo(StateHalfOpen)
	}

	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.cfg.ProbeRequests {
			return ErrTooManyProbes
		}
		b.probes++
	}

	return nil
}

// record accounts for a completed call's outcome
func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		if err != nil {
			b.transitionTo(StateOpen)
			return
		}
		b.probeWins++
		if b.probeWins >= b.cfg.ProbeRequests {
			b.transitionTo(StateClosed)
		}

	case StateClosed:
		if err != nil {
			b.failures++
			if b.failures >= b.cfg.FailureThreshold {
				b.transitionTo(StateOpen)
			}
			return
		}
		b.failures = 0
	}
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset returns the circuit breaker to CLOSED state
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitionTo(StateClosed)
}

// transitionTo changes state and resets the associated counters.
// Must be called with the lock held.
func (b *Breaker) transitionTo(newState State) {
	if b.state == newState {
		return
	}

	oldState := b.state
	b.state = newState

	if b.cfg.Logger != nil {
		b.cfg.Logger.LogCircuitBreakerChange(oldState.String(), newState.String(), b.cfg.Provider)
	}

	b.failures = 0
	b.probes = 0
	b.probeWins = 0

	switch newState {
	case StateOpen:
		b.openedAt = time.Now()
		if b.cfg.OnTrip != nil {
			b.cfg.OnTrip()
		}
	default:
		b.openedAt = time.Time{}
	}
}
