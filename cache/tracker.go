package cache

import (
	"container/list"
	"sync"

	"github.com/jonwraymond/treewalk/tree"
)

// TrackingState is the answer a tracker gives about a node. Bounded tracking
// can forget nodes, so absence of a record is distinguishable from a record
// that was evicted.
type TrackingState int

const (
	// TrackingNo means the node was never recorded.
	TrackingNo TrackingState = iota

	// TrackingYes means the node is currently recorded.
	TrackingYes

	// TrackingEvicted means the node was recorded and later dropped to
	// stay within the tracking bound.
	TrackingEvicted
)

func (s TrackingState) String() string {
	switch s {
	case TrackingNo:
		return "no"
	case TrackingYes:
		return "yes"
	case TrackingEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// trackSet records node keys with optional LRU bounding. When bounded, keys
// pushed out leave an evicted marker so queries report TrackingEvicted
// rather than TrackingNo.
type trackSet struct {
	max     int
	elems   map[tree.Key]*list.Element
	order   *list.List
	evicted map[tree.Key]struct{}
}

// newTrackSet creates a set bounded to max keys. max <= 0 means unbounded,
// in which case no recency list or eviction markers are kept.
func newTrackSet(max int) *trackSet {
	s := &trackSet{
		max:   max,
		elems: make(map[tree.Key]*list.Element),
	}
	if max > 0 {
		s.order = list.New()
		s.evicted = make(map[tree.Key]struct{})
	}
	return s
}

func (s *trackSet) add(key tree.Key) {
	if el, ok := s.elems[key]; ok {
		if s.order != nil {
			s.order.MoveToBack(el)
		}
		return
	}
	if s.order == nil {
		s.elems[key] = nil
		return
	}
	delete(s.evicted, key)
	s.elems[key] = s.order.PushBack(key)
	for s.order.Len() > s.max {
		front := s.order.Front()
		victim := front.Value.(tree.Key)
		s.order.Remove(front)
		delete(s.elems, victim)
		s.evicted[victim] = struct{}{}
	}
}

func (s *trackSet) state(key tree.Key) TrackingState {
	if _, ok := s.elems[key]; ok {
		return TrackingYes
	}
	if s.evicted != nil {
		if _, ok := s.evicted[key]; ok {
			return TrackingEvicted
		}
	}
	return TrackingNo
}

func (s *trackSet) markEvicted(key tree.Key) {
	el, ok := s.elems[key]
	if !ok {
		return
	}
	if s.order != nil {
		s.order.Remove(el)
		s.evicted[key] = struct{}{}
	}
	delete(s.elems, key)
}

func (s *trackSet) len() int { return len(s.elems) }

// Tracker records which nodes a cache layer has discovered (seen as a child
// in a scan result) and expanded (had their own children requested). In Safe
// mode both sets are bounded and track evictions; in Fast mode they grow
// without bound.
type Tracker struct {
	mu         sync.Mutex
	discovered *trackSet
	expanded   *trackSet
}

func newTracker(mode Mode, maxTracked int) *Tracker {
	bound := maxTracked
	if mode == ModeFast {
		bound = 0
	}
	return &Tracker{
		discovered: newTrackSet(bound),
		expanded:   newTrackSet(bound),
	}
}

// TrackDiscovery records that key appeared in a scan result.
func (t *Tracker) TrackDiscovery(key tree.Key) {
	t.mu.Lock()
	t.discovered.add(key)
	t.mu.Unlock()
}

// TrackExpansion records that key's children were requested.
func (t *Tracker) TrackExpansion(key tree.Key) {
	t.mu.Lock()
	t.expanded.add(key)
	t.mu.Unlock()
}

// WasDiscovered reports whether key is currently recorded as discovered.
func (t *Tracker) WasDiscovered(key tree.Key) bool {
	return t.DiscoveryState(key) == TrackingYes
}

// WasExpanded reports whether key is currently recorded as expanded.
func (t *Tracker) WasExpanded(key tree.Key) bool {
	return t.ExpansionState(key) == TrackingYes
}

// DiscoveryState returns the tri-state discovery record for key.
func (t *Tracker) DiscoveryState(key tree.Key) TrackingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discovered.state(key)
}

// ExpansionState returns the tri-state expansion record for key.
func (t *Tracker) ExpansionState(key tree.Key) TrackingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expanded.state(key)
}

// MarkEvicted flips key's records to the evicted state when the cache drops
// the corresponding entry. In Fast mode the sets keep no eviction markers,
// so the records are dropped and later queries report TrackingNo.
func (t *Tracker) MarkEvicted(key tree.Key) {
	t.mu.Lock()
	t.discovered.markEvicted(key)
	t.expanded.markEvicted(key)
	t.mu.Unlock()
}

// DiscoveredCount returns the number of currently recorded discovered keys.
func (t *Tracker) DiscoveredCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discovered.len()
}

// ExpandedCount returns the number of currently recorded expanded keys.
func (t *Tracker) ExpandedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.expanded.len()
}
