// Package breaker guards calls to a placement source with a circuit breaker
package breaker

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker states
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds circuit breaker configuration
type Config struct {
	// Consecutive failures before opening the circuit
	FailureThreshold int
	// Successes in half-open state needed to close it
	SuccessThreshold int
	// Time to wait before retrying an open circuit
	Timeout       time.Duration
	OnStateChange func(from, to string)
}

// DefaultConfig returns the defaults used for catalog sources
func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          30 * time.Second,
	}
}

// Stats holds circuit breaker statistics
type Stats struct {
	State          string `json:"state"`
	TotalRequests  int64  `json:"total_requests"`
	TotalFailures  int64  `json:"total_failures"`
	TotalSuccesses int64  `json:"total_successes"`
	TotalRejected  int64  `json:"total_rejected"`
	Failures       int    `json:"current_failures"`
}

// CircuitBreaker rejects calls after repeated failures, then lets a single
// trial through once the timeout elapsed.
type CircuitBreaker struct {
	config *Config
	now    func() time.Time

	mu              sync.Mutex
	state           string
	failures        int
	successes       int
	trialRunning    bool
	lastFailureTime time.Time
	stats           Stats
}

// New creates a closed circuit breaker
func New(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
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
	cb.stats.TotalRequests++

	var from string
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) <= cb.config.Timeout {
			cb.stats.TotalRejected++
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		from = cb.setState(StateHalfOpen)
		cb.trialRunning = true
	case StateHalfOpen:
		if cb.trialRunning {
			cb.stats.TotalRejected++
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.trialRunning = true
	}
	cb.mu.Unlock()

	cb.notify(from, StateHalfOpen)
	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	cb.trialRunning = false

	var from, to string
	if err != nil {
		cb.stats.TotalFailures++
		cb.failures++
		cb.successes = 0
		cb.lastFailureTime = cb.now()
		if cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.config.FailureThreshold) {
			to = StateOpen
			from = cb.setState(to)
		}
	} else {
		cb.stats.TotalSuccesses++
		cb.successes++
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			if cb.successes >= cb.config.SuccessThreshold {
				cb.failures = 0
				to = StateClosed
				from = cb.setState(to)
			}
		}
	}
	cb.mu.Unlock()

	cb.notify(from, to)
}

// setState switches state and returns the previous one. Callers hold mu.
func (cb *CircuitBreaker) setState(state string) string {
	from := cb.state
	cb.state = state
	cb.successes = 0
	return from
}

func (cb *CircuitBreaker) notify(from, to string) {
	if from == "" || from == to || cb.config.OnStateChange == nil {
		return
	}
	cb.config.OnStateChange(from, to)
}

// State returns the current state
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the counters
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	s := cb.stats
	s.State = cb.state
	s.Failures = cb.failures
	return s
}

// Reset closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.setState(StateClosed)
	cb.failures = 0
	cb.trialRunning = false
	cb.mu.Unlock()

	cb.notify(from, StateClosed)
}
