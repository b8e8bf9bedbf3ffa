package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonwraymond/treewalk/tree"
)

func TestTracker_DiscoveryAndExpansion(t *testing.T) {
	tr := newTracker(ModeSafe, 100)

	tr.TrackExpansion("root")
	tr.TrackDiscovery("root/a")
	tr.TrackDiscovery("root/b")

	if !tr.WasExpanded("root") {
		t.Error("WasExpanded(root) = false, want true")
	}
	if tr.WasExpanded("root/a") {
		t.Error("WasExpanded(root/a) = true, want false")
	}
	if !tr.WasDiscovered("root/a") {
		t.Error("WasDiscovered(root/a) = false, want true")
	}
	if tr.WasDiscovered("root") {
		t.Error("WasDiscovered(root) = true, want false")
	}
	if got := tr.DiscoveredCount(); got != 2 {
		t.Errorf("DiscoveredCount() = %d, want 2", got)
	}
	if got := tr.ExpandedCount(); got != 1 {
		t.Errorf("ExpandedCount() = %d, want 1", got)
	}
}

func TestTracker_BoundedEviction(t *testing.T) {
	tr := newTracker(ModeSafe, 3)

	for i := 0; i < 5; i++ {
		tr.TrackDiscovery(tree.Key(fmt.Sprintf("n%d", i)))
	}

	if got := tr.DiscoveredCount(); got != 3 {
		t.Errorf("DiscoveredCount() = %d, want 3", got)
	}
	if got := tr.DiscoveryState("n0"); got != TrackingEvicted {
		t.Errorf("DiscoveryState(n0) = %s, want evicted", got)
	}
	if got := tr.DiscoveryState("n4"); got != TrackingYes {
		t.Errorf("DiscoveryState(n4) = %s, want yes", got)
	}
	if got := tr.DiscoveryState("never"); got != TrackingNo {
		t.Errorf("DiscoveryState(never) = %s, want no", got)
	}
}

func TestTracker_FastModeUnbounded(t *testing.T) {
	tr := newTracker(ModeFast, 3)

	for i := 0; i < 100; i++ {
		tr.TrackDiscovery(tree.Key(fmt.Sprintf("n%d", i)))
	}

	if got := tr.DiscoveredCount(); got != 100 {
		t.Errorf("DiscoveredCount() = %d, want 100", got)
	}
	if got := tr.DiscoveryState("n0"); got != TrackingYes {
		t.Errorf("DiscoveryState(n0) = %s, want yes", got)
	}
}

func TestTracker_MarkEvicted(t *testing.T) {
	tr := newTracker(ModeSafe, 100)

	tr.TrackDiscovery("gone")
	tr.TrackExpansion("gone")
	tr.MarkEvicted("gone")

	if got := tr.DiscoveryState("gone"); got != TrackingEvicted {
		t.Errorf("DiscoveryState(gone) = %s, want evicted", got)
	}
	if got := tr.ExpansionState("gone"); got != TrackingEvicted {
		t.Errorf("ExpansionState(gone) = %s, want evicted", got)
	}

	// Re-discovering clears the evicted marker.
	tr.TrackDiscovery("gone")
	if got := tr.DiscoveryState("gone"); got != TrackingYes {
		t.Errorf("DiscoveryState(gone) after re-discovery = %s, want yes", got)
	}
}

func TestAdapter_TrackingIntegration(t *testing.T) {
	inner := newFakeAdapter()
	a, err := New(inner, Config{TrackNodes: true})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if a.Tracker() == nil {
		t.Fatal("Tracker() = nil with TrackNodes enabled")
	}
	if _, err := a.Children(ctx, fakeNode{"root"}); err != nil {
		t.Fatal(err)
	}

	tr := a.Tracker()
	if !tr.WasExpanded("root") {
		t.Error("WasExpanded(root) = false, want true")
	}
	if !tr.WasDiscovered("root/a") || !tr.WasDiscovered("root/b") {
		t.Error("scan children not tracked as discovered")
	}
}

func TestAdapter_TrackingDisabled(t *testing.T) {
	a, err := New(newFakeAdapter(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Tracker() != nil {
		t.Error("Tracker() != nil with TrackNodes disabled")
	}
}

func TestTrackingState_String(t *testing.T) {
	tests := []struct {
		state TrackingState
		want  string
	}{
		{TrackingNo, "no"},
		{TrackingYes, "yes"},
		{TrackingEvicted, "evicted"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}
