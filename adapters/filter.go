package adapters

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/jonwraymond/treewalk/tree"
)

// FilterConfig configures a filtering wrapper.
type FilterConfig struct {
	// Keep reports whether a child is passed through. Required.
	Keep func(tree.Node) bool

	// Tag identifies the predicate configuration. It is folded into the
	// wrapper's identity so cache layers above and below the filter use
	// separate scopes. Two filters with the same inner adapter and the
	// same Tag share a scope, so the tag must change when the predicate
	// does.
	Tag string

	// TrackFiltered records the keys of filtered-out children for
	// WasFiltered queries. Default: false.
	TrackFiltered bool
}

// Filter decorates an adapter with an inclusion predicate. Children returns
// the inner adapter's children with those failing the predicate removed.
// The filter never mutates the inner adapter's results or cache entries.
type Filter struct {
	inner    tree.Adapter
	config   FilterConfig
	identity string

	mu       sync.Mutex
	filtered map[tree.Key]struct{}
}

// NewFilter creates a filtering wrapper around inner.
func NewFilter(inner tree.Adapter, config FilterConfig) (*Filter, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: filter requires an inner adapter", tree.ErrConfiguration)
	}
	if config.Keep == nil {
		return nil, fmt.Errorf("%w: filter requires a Keep predicate", tree.ErrConfiguration)
	}
	digest := xxhash.Sum64String(config.Tag)
	f := &Filter{
		inner:    inner,
		config:   config,
		identity: "filter(" + inner.Identity() + "):" + strconv.FormatUint(digest, 16),
	}
	if config.TrackFiltered {
		f.filtered = make(map[tree.Key]struct{})
	}
	return f, nil
}

// Children returns the inner children that pass the predicate, preserving
// the inner order. Options are forwarded unchanged.
func (f *Filter) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	children, err := f.inner.Children(ctx, node, opts...)
	if err != nil {
		return nil, err
	}
	kept := make([]tree.Node, 0, len(children))
	for _, child := range children {
		if f.config.Keep(child) {
			kept = append(kept, child)
			continue
		}
		if f.filtered != nil {
			f.mu.Lock()
			f.filtered[child.Key()] = struct{}{}
			f.mu.Unlock()
		}
	}
	return kept, nil
}

// Identity combines the inner identity with the predicate tag digest.
func (f *Filter) Identity() string { return f.identity }

// WasFiltered reports whether a child with the given key was removed by
// the predicate. Always false when TrackFiltered is disabled.
func (f *Filter) WasFiltered(key tree.Key) bool {
	if f.filtered == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.filtered[key]
	return ok
}

// FilteredCount returns the number of distinct keys removed so far, or 0
// when tracking is disabled.
func (f *Filter) FilteredCount() int {
	if f.filtered == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filtered)
}

var _ tree.Adapter = (*Filter)(nil)
