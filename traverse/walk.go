package traverse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonwraymond/treewalk/observe"
	"github.com/jonwraymond/treewalk/tree"
)

// SkipSubtree is returned from a VisitFunc to prune the subtree below the
// visited node. In post-order walks children are visited before their
// parent, so SkipSubtree has no effect there.
var SkipSubtree = errors.New("traverse: skip subtree")

// VisitFunc is invoked once per visited node with the node's depth below
// the root (root is 0). Returning SkipSubtree prunes the node's subtree;
// any other non-nil error aborts the walk.
type VisitFunc func(node tree.Node, depth int) error

// Failure records one enumeration failure encountered under the
// CollectErrors policy.
type Failure struct {
	Key tree.Key
	Err error
}

// Summary reports what a walk did.
type Summary struct {
	// Visited is the number of callback invocations.
	Visited int

	// Failures holds enumeration failures when the policy is
	// CollectErrors; empty otherwise.
	Failures []Failure
}

// Walk traverses the tree rooted at root through adapter, invoking fn per
// node in the order the strategy defines. Child enumerations run
// concurrently up to the configured bound; emission order is unaffected.
//
// Walk returns the summary together with the first aborting error: a
// callback error, an enumeration failure under FailFast, or the context's
// error on cancellation.
func Walk(ctx context.Context, adapter tree.Adapter, root tree.Node, fn VisitFunc, opts ...Option) (Summary, error) {
	if adapter == nil {
		return Summary{}, fmt.Errorf("%w: walk requires an adapter", tree.ErrConfiguration)
	}
	if root == nil {
		return Summary{}, fmt.Errorf("%w: walk requires a root node", tree.ErrConfiguration)
	}
	if fn == nil {
		return Summary{}, fmt.Errorf("%w: walk requires a visit callback", tree.ErrConfiguration)
	}
	o, err := evalOptions(opts...)
	if err != nil {
		return Summary{}, err
	}

	e := &engine{
		adapter: adapter,
		opts:    o,
		fn:      fn,
		sem:     semaphore.NewWeighted(int64(o.maxConcurrent)),
	}

	switch o.strategy {
	case BFS:
		err = e.bfs(ctx, root)
	case DFSPre:
		err = e.dfs(ctx, root, 0, nil, true)
	case DFSPost:
		err = e.dfs(ctx, root, 0, nil, false)
	}

	e.mu.Lock()
	summary := e.summary
	e.mu.Unlock()
	return summary, err
}

type engine struct {
	adapter tree.Adapter
	opts    options
	fn      VisitFunc
	sem     *semaphore.Weighted

	mu      sync.Mutex
	summary Summary
}

// expandable reports whether children of a node at the given depth are
// within the depth limit.
func (e *engine) expandable(depth int) bool {
	return e.opts.maxDepth < 0 || depth < e.opts.maxDepth
}

// depthHint computes the further depth an adapter scan for a node at the
// given depth must cover.
func (e *engine) depthHint(depth int) int {
	if e.opts.maxDepth < 0 {
		return tree.DepthAll
	}
	return e.opts.maxDepth - depth - 1
}

// visit runs the callback for one node. The skip result prunes the subtree;
// a non-nil error aborts the walk.
func (e *engine) visit(ctx context.Context, node tree.Node, depth int) (skip bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e.mu.Lock()
	e.summary.Visited++
	e.mu.Unlock()
	e.opts.metrics.RecordVisit(ctx, e.adapter.Identity())

	switch err := e.fn(node, depth); {
	case err == nil:
		return false, nil
	case errors.Is(err, SkipSubtree):
		return true, nil
	default:
		return false, err
	}
}

// scan enumerates a node's children through the adapter, recording scan
// telemetry.
func (e *engine) scan(ctx context.Context, node tree.Node, depth int) ([]tree.Node, error) {
	start := time.Now()
	children, err := e.adapter.Children(ctx, node, tree.WithDepthHint(e.depthHint(depth)))
	e.opts.metrics.RecordScan(ctx, e.adapter.Identity(), time.Since(start), err)
	return children, err
}

// scanFailure applies the error policy to an enumeration failure. A nil
// return means the walk continues with the node treated as childless.
func (e *engine) scanFailure(ctx context.Context, node tree.Node, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch e.opts.errorPolicy {
	case FailFast:
		return err
	case CollectErrors:
		e.mu.Lock()
		e.summary.Failures = append(e.summary.Failures, Failure{Key: node.Key(), Err: err})
		e.mu.Unlock()
		return nil
	default:
		e.opts.logger.Warn(ctx, "child enumeration failed",
			observe.Field{Key: "node", Value: string(node.Key())},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil
	}
}

// bfs walks level by level. All callbacks for a level run in parent order
// before any node of the next level; enumerations for the level run
// concurrently in bounded batches.
func (e *engine) bfs(ctx context.Context, root tree.Node) error {
	level := []tree.Node{root}
	for depth := 0; len(level) > 0; depth++ {
		expand := make([]bool, len(level))
		for i, node := range level {
			skip, err := e.visit(ctx, node, depth)
			if err != nil {
				return err
			}
			expand[i] = !skip
		}
		if !e.expandable(depth) {
			return nil
		}

		var next []tree.Node
		for start := 0; start < len(level); start += e.opts.batchSize {
			end := min(start+e.opts.batchSize, len(level))
			results := make([][]tree.Node, end-start)

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(e.opts.maxConcurrent)
			for i := start; i < end; i++ {
				if !expand[i] {
					continue
				}
				node, slot := level[i], i-start
				g.Go(func() error {
					children, err := e.scan(gctx, node, depth)
					if err != nil {
						return e.scanFailure(gctx, node, err)
					}
					results[slot] = children
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, children := range results {
				next = append(next, children...)
			}
		}
		level = next
	}
	return nil
}

// future is a speculative child enumeration started while an earlier
// sibling is still being walked.
type future struct {
	done     chan struct{}
	children []tree.Node
	err      error
}

func (f *future) await(ctx context.Context) ([]tree.Node, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.children, f.err
	}
}

// prefetch starts enumerations for as many children as free concurrency
// slots allow. Children without a slot are scanned inline when reached,
// once a slot is free.
func (e *engine) prefetch(ctx context.Context, children []tree.Node, depth int) []*future {
	futs := make([]*future, len(children))
	if !e.expandable(depth) {
		return futs
	}
	for i, child := range children {
		if !e.sem.TryAcquire(1) {
			break
		}
		f := &future{done: make(chan struct{})}
		futs[i] = f
		go func(n tree.Node) {
			defer e.sem.Release(1)
			f.children, f.err = e.scan(ctx, n, depth)
			close(f.done)
		}(child)
	}
	return futs
}

// dfs walks depth first. pre selects pre-order (node before descendants)
// against post-order (descendants first). fut, when non-nil, holds a
// prefetched enumeration for node.
func (e *engine) dfs(ctx context.Context, node tree.Node, depth int, fut *future, pre bool) error {
	if pre {
		skip, err := e.visit(ctx, node, depth)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}
	}

	if e.expandable(depth) {
		var children []tree.Node
		var err error
		if fut != nil {
			children, err = fut.await(ctx)
		} else if err = e.sem.Acquire(ctx, 1); err == nil {
			children, err = e.scan(ctx, node, depth)
			e.sem.Release(1)
		}
		if err != nil {
			if ferr := e.scanFailure(ctx, node, err); ferr != nil {
				return ferr
			}
			children = nil
		}

		futs := e.prefetch(ctx, children, depth+1)
		for i, child := range children {
			if err := e.dfs(ctx, child, depth+1, futs[i], pre); err != nil {
				return err
			}
		}
	}

	if !pre {
		if _, err := e.visit(ctx, node, depth); err != nil {
			return err
		}
	}
	return nil
}
