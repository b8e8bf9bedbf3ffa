// Package adapters provides base adapters over concrete tree sources and
// the filtering decorator.
//
// The filesystem adapter enumerates directories with the platform's batched
// directory read and skips symbolic links by default. The JSON adapter walks
// an in-memory document deterministically by key and index. Filter wraps any
// adapter with an inclusion predicate in its own cache scope.
package adapters
