package cache

import (
	"time"

	"github.com/jonwraymond/treewalk/tree"
)

// DepthComplete is the scanned-depth sentinel meaning the subtree below a
// node is exhaustively known.
const DepthComplete = -1

// entry is one completeness record. Entries are immutable after publish;
// revalidation replaces an entry, never rewrites it.
type entry struct {
	// children holds the node handles produced by one inner scan. Nodes
	// are immutable, so retaining them keeps identity only, never
	// source resources.
	children []tree.Node

	// nodeKey is the key of the scanned node, kept for eviction
	// callbacks and prefix invalidation.
	nodeKey tree.Key

	// depthScanned records how many further levels below the direct
	// children are guaranteed enumerated within this same cache.
	// DepthComplete means the whole subtree.
	depthScanned int

	// insertedAt is the publish time of the scan that produced this
	// entry. Never rewritten on hit.
	insertedAt time.Time

	// validator is the source change token captured right after the
	// scan, compared for equality on revalidation.
	validator    string
	hasValidator bool
}

// satisfies reports whether this entry answers a request needing the given
// depth below the direct children.
func (e *entry) satisfies(required int) bool {
	if e.depthScanned == DepthComplete {
		return true
	}
	if required == DepthComplete {
		return false
	}
	return e.depthScanned >= required
}

// scanDepth maps a caller's required depth to the depth recorded on a fresh
// entry. A plain direct-children scan records depth 0; positive requirements
// record the engine-supplied value, which the engine discharges by
// descending through this same cache, so a later request at the same depth
// is a hit.
func scanDepth(required int) int {
	switch {
	case required == DepthComplete:
		return DepthComplete
	case required <= 0:
		return 0
	default:
		return required
	}
}
