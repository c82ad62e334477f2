package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Circuit breaker (closed → open → half-open) guarding the SMTP server.
// While open, email jobs fail fast and land in the DLQ for later replay.

// CBState represents the current circuit breaker state.
type CBState int

const (
	CBClosed   CBState = iota // requests flow
	CBOpen                    // fast-fail
	CBHalfOpen                // probing
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when Execute is called while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds tunable parameters. Zero values take the defaults.
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures to open (default 5)
	SuccessThreshold int           // consecutive half-open successes to close (default 2)
	OpenTimeout      time.Duration // time spent open before probing (default 60s)
}

// DefaultCBConfig returns the defaults used for the SMTP breaker.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             "smtp",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

// CBSnapshot is a point-in-time view for the health endpoint.
type CBSnapshot struct {
	Name     string `json:"name"`
	State    string `json:"state"`
	Failures int    `json:"consecutive_failures"`
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    CBState
	failures int
	probes   int
	openedAt time.Time
	now      func() time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	return &CircuitBreaker{cfg: cfg, state: CBClosed, now: time.Now}
}

// State returns the current state, moving open → half-open once the timeout elapsed.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentLocked()
}

func (cb *CircuitBreaker) currentLocked() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.transitionLocked(CBHalfOpen)
	}
	return cb.state
}

// Snapshot reports name, state and failure count.
func (cb *CircuitBreaker) Snapshot() CBSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CBSnapshot{Name: cb.cfg.Name, State: cb.currentLocked().String(), Failures: cb.failures}
}

// Execute runs fn unless the breaker is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if cb.State() == CBOpen {
		return ErrCircuitOpen
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailureLocked()
		return err
	}
	cb.recordSuccessLocked()
	return nil
}

func (cb *CircuitBreaker) recordFailureLocked() {
	cb.failures++
	switch cb.state {
	case CBClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transitionLocked(CBOpen)
		}
	case CBHalfOpen:
		cb.transitionLocked(CBOpen)
	}
}

func (cb *CircuitBreaker) recordSuccessLocked() {
	switch cb.state {
	case CBClosed:
		cb.failures = 0
	case CBHalfOpen:
		cb.probes++
		if cb.probes >= cb.cfg.SuccessThreshold {
			cb.transitionLocked(CBClosed)
		}
	}
}

func (cb *CircuitBreaker) transitionLocked(to CBState) {
	from := cb.state
	cb.state = to
	cb.probes = 0
	switch to {
	case CBOpen:
		cb.openedAt = cb.now()
	case CBClosed:
		cb.failures = 0
	}
	log.Warn().Str("breaker", cb.cfg.Name).Str("from", from.String()).Str("to", to.String()).
		Msg("circuit breaker state change")
}
