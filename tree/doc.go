// Package tree defines the node and adapter contracts shared by every
// traversal source and decorator in treewalk.
//
// An Adapter enumerates the direct children of a Node. Base adapters talk
// to a concrete source (filesystem, JSON document); decorator adapters wrap
// another adapter and add filtering, caching, or resilience. The traversal
// engine in package traverse depends only on the contracts defined here.
package tree
