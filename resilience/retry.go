package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jonwraymond/treewalk/tree"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// RetryConfig configures the retry decorator.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the maximum delay between retries.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% random variance to each delay.
	Jitter bool

	// RetryIf determines if an error should trigger a retry.
	// Default: only transient source failures (tree.ErrSourceUnavailable)
	// are retried. A missing node is never retried.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry decorates an adapter with retrying child enumeration.
type Retry struct {
	inner  tree.Adapter
	config RetryConfig
}

// NewRetry creates a retry decorator around inner.
func NewRetry(inner tree.Adapter, config RetryConfig) (*Retry, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: retry requires an inner adapter", tree.ErrConfiguration)
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool {
			return errors.Is(err, tree.ErrSourceUnavailable)
		}
	}
	return &Retry{inner: inner, config: config}, nil
}

// Children enumerates through the inner adapter, retrying retryable
// failures with backoff. Context cancellation always stops the attempts.
func (r *Retry) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		children, err := r.inner.Children(ctx, node, opts...)
		if err == nil {
			return children, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !r.config.RetryIf(err) {
			return nil, err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}

func (r *Retry) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter && delay > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		jitter := time.Duration(rand.Int63n(int64(delay / 4)))
		delay = delay + jitter
	}

	return delay
}

// Identity returns the inner identity unchanged; retrying does not alter
// enumeration results.
func (r *Retry) Identity() string { return r.inner.Identity() }

var _ tree.Adapter = (*Retry)(nil)
