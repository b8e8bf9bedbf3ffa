// Package cache provides a completeness-aware caching decorator for tree
// adapters.
//
// Each cached entry records how deeply the subtree below a node was scanned,
// so a request needing less depth than was recorded is served from memory
// while a deeper request triggers a rescan that replaces the entry.
// Concurrent scans of the same node are coalesced into a single inner call.
// Safe mode bounds memory with LRU eviction; Fast mode trades bounded memory
// for a cheaper hit path. Entries can be revalidated against a source change
// token once a TTL has elapsed, and invalidated by key or key prefix.
package cache
