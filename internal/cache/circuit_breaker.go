package cache

import (
	"errors"
	"sync"
	"time"
)

type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerOpen
	CircuitBreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
	// OnStateChange is called without the breaker lock held.
	OnStateChange func(from, to CircuitBreakerState)
}

func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker stops calling a failing backend for Timeout after
// MaxFailures consecutive errors, then lets HalfOpenMaxCalls trial calls
// through. Any trial failure reopens it; that many successes close it.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	halfOpenCalls   int
	lastFailureTime time.Time

	maxFailures      int
	timeout          time.Duration
	halfOpenMaxCalls int
	onStateChange    func(from, to CircuitBreakerState)
	now              func() time.Time
}

func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}

	return &CircuitBreaker{
		state:            CircuitBreakerClosed,
		maxFailures:      max(config.MaxFailures, 1),
		timeout:          config.Timeout,
		halfOpenMaxCalls: max(config.HalfOpenMaxCalls, 1),
		onStateChange:    config.OnStateChange,
		now:              time.Now,
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	var from CircuitBreakerState
	changed := false

	switch cb.state {
	case CircuitBreakerOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			cb.mu.Unlock()
			return ErrCircuitBreakerOpen
		}
		from, changed = cb.setState(CircuitBreakerHalfOpen)
		cb.halfOpenCalls = 1
	case CircuitBreakerHalfOpen:
		if cb.halfOpenCalls >= cb.halfOpenMaxCalls {
			cb.mu.Unlock()
			return ErrCircuitBreakerOpen
		}
		cb.halfOpenCalls++
	}
	cb.mu.Unlock()

	if changed {
		cb.notify(from, CircuitBreakerHalfOpen)
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	var from, to CircuitBreakerState
	changed := false

	if err != nil {
		cb.failureCount++
		cb.lastFailureTime = cb.now()
		if cb.state == CircuitBreakerHalfOpen || cb.failureCount >= cb.maxFailures {
			to = CircuitBreakerOpen
			from, changed = cb.setState(to)
		}
	} else {
		switch cb.state {
		case CircuitBreakerClosed:
			cb.failureCount = 0
		case CircuitBreakerHalfOpen:
			cb.successCount++
			if cb.successCount >= cb.halfOpenMaxCalls {
				to = CircuitBreakerClosed
				from, changed = cb.setState(to)
			}
		}
	}
	cb.mu.Unlock()

	if changed {
		cb.notify(from, to)
	}
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(to CircuitBreakerState) (CircuitBreakerState, bool) {
	from := cb.state
	if from == to {
		return from, false
	}
	cb.state = to
	cb.successCount = 0
	cb.halfOpenCalls = 0
	if to == CircuitBreakerClosed {
		cb.failureCount = 0
	}
	return from, true
}

func (cb *CircuitBreaker) notify(from, to CircuitBreakerState) {
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}

func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":           cb.state.String(),
		"failure_count":   cb.failureCount,
		"success_count":   cb.successCount,
		"last_failure":    cb.lastFailureTime.Unix(),
		"max_failures":    cb.maxFailures,
		"timeout_seconds": cb.timeout.Seconds(),
	}
}
