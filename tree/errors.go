package tree

import "errors"

// Sentinel errors shared across adapters and the traversal engine.
var (
	// ErrSourceUnavailable is returned when a source cannot be read
	// (permissions, transport failure). It is per-node, not fatal.
	ErrSourceUnavailable = errors.New("tree: source unavailable")

	// ErrNodeGone is returned when a node disappeared between discovery
	// and enumeration.
	ErrNodeGone = errors.New("tree: node gone")

	// ErrConfiguration is returned by constructors for invalid parameters.
	ErrConfiguration = errors.New("tree: invalid configuration")

	// ErrInvariant indicates a bug in treewalk itself. It must be
	// surfaced, never swallowed.
	ErrInvariant = errors.New("tree: internal invariant violated")
)
