package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/treewalk/tree"
)

// Mode selects the adapter's memory discipline.
type Mode int

const (
	// ModeSafe bounds the table with LRU eviction and keeps node tracking
	// bounded as well.
	ModeSafe Mode = iota

	// ModeFast keeps an unbounded table with no recency bookkeeping. Hits
	// skip eviction work entirely.
	ModeFast
)

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "safe"
	case ModeFast:
		return "fast"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Validator produces a change token for a node's source state. Equal tokens
// across time mean a cached listing for the node is still current.
type Validator func(ctx context.Context, node tree.Node) (string, error)

// Config configures the caching adapter.
type Config struct {
	// MaxEntries bounds the table in Safe mode. Zero selects the default
	// of 10000; negative values are rejected. Ignored in Fast mode.
	MaxEntries int

	// Mode selects Safe (bounded) or Fast (unbounded) operation.
	Mode Mode

	// Validator, when set, enables revalidation of entries older than
	// ValidationTTL. When nil, entries are never revalidated.
	Validator Validator

	// ValidationTTL is the age below which entries are served without
	// consulting the Validator. Zero selects the default of 5s; a
	// negative value revalidates on every hit.
	ValidationTTL time.Duration

	// TrackNodes enables discovery and expansion tracking. Default: false.
	TrackNodes bool

	// MaxTrackedNodes bounds each tracking set in Safe mode. Zero selects
	// the default of 10000; negative values are rejected. Ignored in Fast
	// mode and when TrackNodes is false.
	MaxTrackedNodes int
}

// DefaultConfig returns a Safe-mode configuration with default bounds and no
// revalidation.
func DefaultConfig() Config {
	return Config{
		MaxEntries:      10000,
		ValidationTTL:   5 * time.Second,
		MaxTrackedNodes: 10000,
	}
}

// Stats is a point-in-time snapshot of the adapter's counters. Counters are
// advisory: under concurrency a snapshot may mix counts from in-flight
// operations.
type Stats struct {
	Hits           int64
	Misses         int64
	Bypasses       int64
	Evictions      int64
	Upgrades       int64
	CoalescedWaits int64
	Entries        int
}

// instanceSeq distinguishes otherwise identically configured adapters so two
// cache layers never share a scope.
var instanceSeq atomic.Uint64

// Adapter decorates an inner adapter with completeness-aware caching.
//
// Every successful scan records the depth to which the subtree below the
// node is known. A later request is a hit only when the recorded depth
// covers the requested depth; otherwise the node is rescanned and the entry
// replaced. Failed scans are never cached.
type Adapter struct {
	inner    tree.Adapter
	config   Config
	scopeTag string
	identity string

	mu    sync.Mutex
	table store

	flight  singleflight.Group
	tracker *Tracker

	hits           atomic.Int64
	misses         atomic.Int64
	bypasses       atomic.Int64
	evictions      atomic.Int64
	upgrades       atomic.Int64
	coalescedWaits atomic.Int64

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a caching adapter around inner.
func New(inner tree.Adapter, config Config) (*Adapter, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: cache requires an inner adapter", tree.ErrConfiguration)
	}
	if config.MaxEntries < 0 {
		return nil, fmt.Errorf("%w: MaxEntries must not be negative, got %d", tree.ErrConfiguration, config.MaxEntries)
	}
	if config.MaxTrackedNodes < 0 {
		return nil, fmt.Errorf("%w: MaxTrackedNodes must not be negative, got %d", tree.ErrConfiguration, config.MaxTrackedNodes)
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = 10000
	}
	if config.ValidationTTL == 0 {
		config.ValidationTTL = 5 * time.Second
	}
	if config.MaxTrackedNodes == 0 {
		config.MaxTrackedNodes = 10000
	}

	var table store
	if config.Mode == ModeFast {
		table = newFlatStore()
	} else {
		table = newLRUStore(config.MaxEntries)
	}

	digest := xxhash.Sum64String(fmt.Sprintf("%s|%s|%d", inner.Identity(), config.Mode, config.ValidationTTL))
	scopeTag := strconv.FormatUint(digest, 16) + "#" + strconv.FormatUint(instanceSeq.Add(1), 10)

	a := &Adapter{
		inner:    inner,
		config:   config,
		scopeTag: scopeTag,
		identity: "cache(" + inner.Identity() + "):" + scopeTag,
		table:    table,
		now:      time.Now,
	}
	if config.TrackNodes {
		a.tracker = newTracker(config.Mode, config.MaxTrackedNodes)
	}
	return a, nil
}

// scanResult is the value shared between single-flight waiters.
type scanResult struct {
	children     []tree.Node
	depthScanned int
}

// Children serves the node's children from cache when a sufficiently deep
// entry exists, scanning the inner adapter otherwise. Concurrent requests
// for the same node share one inner scan.
func (a *Adapter) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	evaluated := tree.EvalChildrenOptions(opts...)
	if evaluated.BypassCache {
		a.bypasses.Add(1)
		return a.inner.Children(ctx, node, opts...)
	}

	required := evaluated.DepthHint
	if required < 0 {
		required = DepthComplete
	}

	key := string(node.Key())
	if a.tracker != nil {
		a.tracker.TrackExpansion(node.Key())
	}

	for {
		if children, ok := a.lookup(ctx, key, node, required); ok {
			return children, nil
		}

		v, err, shared := a.flight.Do(key, func() (any, error) {
			return a.scan(ctx, node, required, opts)
		})
		if shared {
			a.coalescedWaits.Add(1)
		}
		if err != nil {
			return nil, err
		}
		res := v.(*scanResult)
		if !shared || (&entry{depthScanned: res.depthScanned}).satisfies(required) {
			return res.children, nil
		}
		// A shared scan launched for a shallower request cannot answer
		// this one; go around again.
	}
}

// lookup checks the table for an entry covering required, revalidating it
// against the source when the TTL has elapsed. The validator runs outside
// the table lock.
func (a *Adapter) lookup(ctx context.Context, key string, node tree.Node, required int) ([]tree.Node, bool) {
	a.mu.Lock()
	e, ok := a.table.get(key)
	if !ok {
		a.mu.Unlock()
		return nil, false
	}
	insertedAt := e.insertedAt
	storedToken := e.validator
	hasToken := e.hasValidator
	a.mu.Unlock()

	if a.config.Validator != nil && a.ttlExpired(insertedAt) {
		token, err := a.config.Validator(ctx, node)
		// A validator failure serves the entry optimistically; the
		// source will surface the error on the next real scan.
		if err == nil && (!hasToken || token != storedToken) {
			a.mu.Lock()
			if current, ok := a.table.get(key); ok && current == e {
				a.table.remove(key)
			}
			a.mu.Unlock()
			return nil, false
		}
	}

	a.mu.Lock()
	e, ok = a.table.get(key)
	if !ok {
		a.mu.Unlock()
		return nil, false
	}
	if !e.satisfies(required) {
		a.mu.Unlock()
		a.upgrades.Add(1)
		return nil, false
	}
	a.table.touch(key)
	children := make([]tree.Node, len(e.children))
	copy(children, e.children)
	a.mu.Unlock()

	a.hits.Add(1)
	if a.tracker != nil {
		for _, child := range children {
			a.tracker.TrackDiscovery(child.Key())
		}
	}
	return children, true
}

// scan performs the inner enumeration and publishes the resulting entry
// before returning, so the entry is visible to any request that follows the
// flight's completion.
func (a *Adapter) scan(ctx context.Context, node tree.Node, required int, opts []tree.ChildrenOption) (*scanResult, error) {
	children, err := a.inner.Children(ctx, node, opts...)
	if err != nil {
		return nil, err
	}

	e := &entry{
		children:     children,
		nodeKey:      node.Key(),
		depthScanned: scanDepth(required),
		insertedAt:   a.now(),
	}
	if a.config.Validator != nil {
		token, verr := a.config.Validator(ctx, node)
		if verr == nil {
			e.validator = token
			e.hasValidator = true
		}
	}

	a.mu.Lock()
	evicted := a.table.put(string(node.Key()), e)
	a.mu.Unlock()

	if len(evicted) > 0 {
		a.evictions.Add(int64(len(evicted)))
		if a.tracker != nil {
			for _, ev := range evicted {
				a.tracker.MarkEvicted(ev.nodeKey)
			}
		}
	}
	a.misses.Add(1)
	if a.tracker != nil {
		for _, child := range children {
			a.tracker.TrackDiscovery(child.Key())
		}
	}
	return &scanResult{children: children, depthScanned: e.depthScanned}, nil
}

func (a *Adapter) ttlExpired(insertedAt time.Time) bool {
	if a.config.ValidationTTL < 0 {
		return true
	}
	return a.now().Sub(insertedAt) >= a.config.ValidationTTL
}

// Identity returns a tag combining the inner identity with this layer's
// scope, so stacked caches never collide.
func (a *Adapter) Identity() string { return a.identity }

// Invalidate removes the entry for key, reporting whether one was present.
func (a *Adapter) Invalidate(key tree.Key) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.table.remove(string(key))
}

// InvalidatePrefix removes every entry whose node key begins with prefix and
// returns the number removed.
func (a *Adapter) InvalidatePrefix(prefix tree.Key) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var doomed []string
	a.table.forEach(func(key string, e *entry) bool {
		if hasKeyPrefix(e.nodeKey, prefix) {
			doomed = append(doomed, key)
		}
		return true
	})
	for _, key := range doomed {
		a.table.remove(key)
	}
	return len(doomed)
}

// InvalidateAll empties the table and returns the number of entries removed.
func (a *Adapter) InvalidateAll() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var doomed []string
	a.table.forEach(func(key string, _ *entry) bool {
		doomed = append(doomed, key)
		return true
	})
	for _, key := range doomed {
		a.table.remove(key)
	}
	return len(doomed)
}

// Stats returns a snapshot of the adapter's counters.
func (a *Adapter) Stats() Stats {
	a.mu.Lock()
	entries := a.table.size()
	a.mu.Unlock()
	return Stats{
		Hits:           a.hits.Load(),
		Misses:         a.misses.Load(),
		Bypasses:       a.bypasses.Load(),
		Evictions:      a.evictions.Load(),
		Upgrades:       a.upgrades.Load(),
		CoalescedWaits: a.coalescedWaits.Load(),
		Entries:        entries,
	}
}

// Tracker returns the node tracker, or nil when tracking is disabled.
func (a *Adapter) Tracker() *Tracker { return a.tracker }

func hasKeyPrefix(key, prefix tree.Key) bool {
	return len(key) >= len(prefix) && key[:len(prefix)] == prefix
}

var _ tree.Adapter = (*Adapter)(nil)
