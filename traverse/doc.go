// Package traverse walks trees exposed through the adapter protocol.
//
// Walk visits nodes under a strategy (breadth-first, depth-first pre-order,
// depth-first post-order) with bounded concurrent child enumeration.
// Emission order is deterministic for a given strategy regardless of how
// scans interleave. Callbacks can prune subtrees with SkipSubtree, and
// adapter failures are handled per the configured error policy.
package traverse
