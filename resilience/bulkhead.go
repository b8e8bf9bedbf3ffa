package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/treewalk/tree"
)

// BulkheadConfig configures the bulkhead decorator.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of concurrent enumerations
	// allowed through to the inner adapter.
	// Default: 10
	MaxConcurrent int

	// MaxWait is the maximum time to wait for a slot.
	// Default: 0 (no waiting, fail immediately)
	MaxWait time.Duration
}

// Bulkhead decorates an adapter with a concurrency cap on child
// enumeration, protecting slow sources from fan-out spikes.
type Bulkhead struct {
	inner  tree.Adapter
	config BulkheadConfig
	sem    chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
	rejected  int64
}

// NewBulkhead creates a bulkhead decorator around inner.
func NewBulkhead(inner tree.Adapter, config BulkheadConfig) (*Bulkhead, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: bulkhead requires an inner adapter", tree.ErrConfiguration)
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	return &Bulkhead{
		inner:  inner,
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}, nil
}

// Children enumerates through the inner adapter within the concurrency cap.
func (b *Bulkhead) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.release()

	return b.inner.Children(ctx, node, opts...)
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		b.noteAcquired()
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		b.noteRejected()
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		b.noteAcquired()
		return nil
	case <-timer.C:
		b.noteRejected()
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) release() {
	<-b.sem
	b.mu.Lock()
	b.active--
	b.mu.Unlock()
}

func (b *Bulkhead) noteAcquired() {
	b.mu.Lock()
	b.active++
	if b.active > b.maxActive {
		b.maxActive = b.active
	}
	b.mu.Unlock()
}

func (b *Bulkhead) noteRejected() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// BulkheadStats contains bulkhead statistics.
type BulkheadStats struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}

// Stats returns current bulkhead statistics.
func (b *Bulkhead) Stats() BulkheadStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadStats{
		Active:        b.active,
		MaxActive:     b.maxActive,
		Available:     b.config.MaxConcurrent - b.active,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.rejected,
	}
}

// Identity returns the inner identity unchanged.
func (b *Bulkhead) Identity() string { return b.inner.Identity() }

var _ tree.Adapter = (*Bulkhead)(nil)
