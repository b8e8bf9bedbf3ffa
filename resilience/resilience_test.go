package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/treewalk/tree"
)

type stubNode struct{ key tree.Key }

func (n stubNode) Key() tree.Key { return n.key }
func (n stubNode) Name() string  { return string(n.key) }

// stubAdapter returns queued errors before succeeding, counting every call.
type stubAdapter struct {
	mu       sync.Mutex
	errs     []error
	children []tree.Node
	calls    int
	delay    time.Duration
}

func (a *stubAdapter) Children(ctx context.Context, _ tree.Node, _ ...tree.ChildrenOption) ([]tree.Node, error) {
	if a.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.delay):
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		return nil, err
	}
	return a.children, nil
}

func (a *stubAdapter) Identity() string { return "stub:1" }

func (a *stubAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
