package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/treewalk/tree"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means enumerations flow through normally.
	StateClosed State = iota
	// StateOpen means enumerations are rejected without reaching the
	// source.
	StateOpen
	// StateHalfOpen means a limited number of probe enumerations are
	// allowed to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the circuit breaker decorator.
type BreakerConfig struct {
	// MaxFailures is the number of failures before opening the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long to wait before attempting recovery.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the max probe enumerations allowed in the
	// half-open state.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: transient source failures (tree.ErrSourceUnavailable)
	// count; a missing node does not.
	IsFailure func(err error) bool
}

// Breaker decorates an adapter with the circuit breaker pattern.
type Breaker struct {
	inner  tree.Adapter
	config BreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	lastFailure   time.Time
	halfOpenCount int
}

// NewBreaker creates a circuit breaker decorator around inner.
func NewBreaker(inner tree.Adapter, config BreakerConfig) (*Breaker, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: breaker requires an inner adapter", tree.ErrConfiguration)
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return errors.Is(err, tree.ErrSourceUnavailable)
		}
	}
	return &Breaker{inner: inner, config: config, state: StateClosed}, nil
}

// Children enumerates through the inner adapter unless the circuit is open.
func (b *Breaker) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	if err := b.beforeRequest(); err != nil {
		return nil, err
	}

	children, err := b.inner.Children(ctx, node, opts...)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		// Cancellation says nothing about source health.
		return nil, err
	}
	b.afterRequest(err)
	return children, err
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked()
}

// Reset forces the circuit back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	oldState := b.state
	b.state = StateClosed
	b.failures = 0
	b.halfOpenCount = 0

	if oldState != StateClosed && b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, StateClosed)
	}
}

func (b *Breaker) beforeRequest() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentStateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.halfOpenCount >= b.config.HalfOpenMaxRequests {
			return ErrCircuitOpen
		}
		b.halfOpenCount++
	}
	return nil
}

func (b *Breaker) afterRequest(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	isFailure := b.config.IsFailure(err)
	oldState := b.state

	switch b.state {
	case StateClosed:
		if isFailure {
			b.failures++
			b.lastFailure = time.Now()
			if b.failures >= b.config.MaxFailures {
				b.state = StateOpen
			}
		} else {
			b.failures = 0
		}

	case StateHalfOpen:
		if isFailure {
			// Failed during probe, back to open with a fresh timeout.
			b.lastFailure = time.Now()
			b.state = StateOpen
		} else {
			b.state = StateClosed
			b.failures = 0
		}
	}

	if oldState != b.state && b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, b.state)
	}
}

func (b *Breaker) currentStateLocked() State {
	if b.state == StateOpen && time.Since(b.lastFailure) >= b.config.ResetTimeout {
		b.state = StateHalfOpen
		b.halfOpenCount = 0
		if b.config.OnStateChange != nil {
			b.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return b.state
}

// Identity returns the inner identity unchanged.
func (b *Breaker) Identity() string { return b.inner.Identity() }

var _ tree.Adapter = (*Breaker)(nil)
