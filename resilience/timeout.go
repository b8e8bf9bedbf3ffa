package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/treewalk/tree"
)

// TimeoutConfig configures the timeout decorator.
type TimeoutConfig struct {
	// Timeout is the maximum duration for one child enumeration.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout decorates an adapter with a per-enumeration deadline.
type Timeout struct {
	inner  tree.Adapter
	config TimeoutConfig
}

// NewTimeout creates a timeout decorator around inner.
func NewTimeout(inner tree.Adapter, config TimeoutConfig) (*Timeout, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: timeout requires an inner adapter", tree.ErrConfiguration)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{inner: inner, config: config}, nil
}

// Children enumerates through the inner adapter under a deadline. A scan
// that exceeds the deadline returns ErrTimeout; the caller's own
// cancellation is passed through unchanged.
func (t *Timeout) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	scanCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	children, err := t.inner.Children(scanCtx, node, opts...)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, node.Key(), t.config.Timeout)
	}
	return children, err
}

// Identity returns the inner identity unchanged.
func (t *Timeout) Identity() string { return t.inner.Identity() }

var _ tree.Adapter = (*Timeout)(nil)
