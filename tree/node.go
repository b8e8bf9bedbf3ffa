package tree

import "context"

// Key is the stable, value-comparable identity of a node within its source.
// Two nodes with equal keys refer to the same tree position.
type Key string

// Node is an opaque handle to a position in a source tree.
//
// Contract:
// - Immutability: nodes never change after creation.
// - Identity: Key is stable for the node's lifetime and value-equal
//   across repeated enumerations of the same position.
// - Ownership: nodes are produced by adapters and owned by whoever holds
//   the reference. Decorators may retain copies of child keys, never
//   resources attached to a node.
type Node interface {
	// Key returns the node's stable identity.
	Key() Key

	// Name returns the node's display name (last path element, map key,
	// array index). Purely informational.
	Name() string
}

// Metadater is implemented by nodes that can produce source-specific
// metadata. The traversal engine never requires it.
type Metadater interface {
	// Metadata returns a key/value map of source-specific attributes.
	Metadata(ctx context.Context) (map[string]any, error)
}

// Metadata returns node metadata when the node supports it, or an empty
// map otherwise.
func Metadata(ctx context.Context, node Node) (map[string]any, error) {
	if m, ok := node.(Metadater); ok {
		return m.Metadata(ctx)
	}
	return map[string]any{}, nil
}
