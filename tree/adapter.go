package tree

import "context"

// DepthAll is the depth hint meaning "the entire subtree will be visited".
const DepthAll = -1

// Adapter enumerates the direct children of a node.
//
// Contract:
// - Completeness: Children produces all direct children exactly once, in a
//   source-defined deterministic order (sorted by key unless the source has
//   an intrinsic order).
// - Concurrency: implementations must be safe for concurrent use from
//   independent traversals. Per-call resources must not be shared.
// - Errors: ErrSourceUnavailable when the source cannot be read, ErrNodeGone
//   when the node no longer exists. Both are per-node, not fatal to a
//   traversal.
// - Context: Children should honor cancellation where the source allows it.
type Adapter interface {
	// Children returns the direct children of node.
	Children(ctx context.Context, node Node, opts ...ChildrenOption) ([]Node, error)

	// Identity returns an opaque tag, stable for the lifetime of this
	// adapter instance. Two adapters wrapping the same source with
	// different configuration must return distinct tags. Cache layers
	// derive their scope tag from it.
	Identity() string
}

// ChildrenOptions carries per-call modifiers for Children. Decorators read
// the fields relevant to them and forward the rest unchanged.
type ChildrenOptions struct {
	// DepthHint is how many further levels below the direct children the
	// caller intends to traverse. 0 means only the direct children are
	// required; DepthAll means the entire subtree.
	DepthHint int

	// BypassCache makes caching decorators delegate without reading or
	// writing their tables.
	BypassCache bool
}

// ChildrenOption modifies a single Children call.
type ChildrenOption func(*ChildrenOptions)

// WithDepthHint declares how many further levels the caller intends to
// traverse below the direct children. Caching decorators use it to record
// scan completeness.
func WithDepthHint(depth int) ChildrenOption {
	return func(o *ChildrenOptions) {
		o.DepthHint = depth
	}
}

// WithoutCache bypasses cache lookup and insertion for this call.
func WithoutCache() ChildrenOption {
	return func(o *ChildrenOptions) {
		o.BypassCache = true
	}
}

// EvalChildrenOptions folds a ChildrenOption list into its effective
// ChildrenOptions value.
func EvalChildrenOptions(opts ...ChildrenOption) ChildrenOptions {
	var o ChildrenOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
