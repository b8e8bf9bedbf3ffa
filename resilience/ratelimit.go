package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/treewalk/tree"
)

// RateLimitConfig configures the rate limiter decorator.
type RateLimitConfig struct {
	// Rate is the number of enumerations allowed per second.
	// Default: 100
	Rate float64

	// Burst is the maximum burst size.
	// Default: 10
	Burst int

	// WaitOnLimit waits for a token instead of returning an error.
	// Default: false
	WaitOnLimit bool

	// MaxWait is the maximum time to wait for a token.
	// Default: 1 second
	MaxWait time.Duration
}

// RateLimit decorates an adapter with a token bucket rate limiter on
// child enumeration.
type RateLimit struct {
	inner  tree.Adapter
	config RateLimitConfig

	mu          sync.Mutex
	tokens      float64
	lastRefresh time.Time
}

// NewRateLimit creates a rate limiter decorator around inner.
func NewRateLimit(inner tree.Adapter, config RateLimitConfig) (*RateLimit, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: rate limit requires an inner adapter", tree.ErrConfiguration)
	}
	if config.Rate <= 0 {
		config.Rate = 100
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxWait <= 0 {
		config.MaxWait = time.Second
	}
	return &RateLimit{
		inner:       inner,
		config:      config,
		tokens:      float64(config.Burst),
		lastRefresh: time.Now(),
	}, nil
}

// Children enumerates through the inner adapter when a token is available.
func (rl *RateLimit) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	if rl.config.WaitOnLimit {
		if err := rl.wait(ctx); err != nil {
			return nil, err
		}
	} else if !rl.allow() {
		return nil, ErrRateLimitExceeded
	}

	return rl.inner.Children(ctx, node, opts...)
}

func (rl *RateLimit) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

func (rl *RateLimit) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rl.allow() {
		return nil
	}

	rl.mu.Lock()
	tokensNeeded := 1 - rl.tokens
	waitTime := time.Duration(tokensNeeded / rl.config.Rate * float64(time.Second))
	rl.mu.Unlock()

	if waitTime > rl.config.MaxWait {
		waitTime = rl.config.MaxWait
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(waitTime):
		if rl.allow() {
			return nil
		}
		return ErrRateLimitExceeded
	}
}

func (rl *RateLimit) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefresh)
	rl.lastRefresh = now

	rl.tokens += elapsed.Seconds() * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// Tokens returns the current number of available tokens.
func (rl *RateLimit) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Identity returns the inner identity unchanged.
func (rl *RateLimit) Identity() string { return rl.inner.Identity() }

var _ tree.Adapter = (*RateLimit)(nil)
