package traverse

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/jonwraymond/treewalk/tree"
)

type staticNode struct{ key tree.Key }

func (n staticNode) Key() tree.Key { return n.key }
func (n staticNode) Name() string  { return string(n.key) }

// staticAdapter serves a fixed tree and records the depth hints it receives.
type staticAdapter struct {
	mu       sync.Mutex
	children map[tree.Key][]tree.Node
	fail     map[tree.Key]error
	hints    map[tree.Key]int
}

func newStaticAdapter() *staticAdapter {
	return &staticAdapter{
		children: map[tree.Key][]tree.Node{
			"root": {staticNode{"a"}, staticNode{"b"}},
			"a":    {staticNode{"a1"}, staticNode{"a2"}},
			"b":    {staticNode{"b1"}},
		},
		fail:  make(map[tree.Key]error),
		hints: make(map[tree.Key]int),
	}
}

func (s *staticAdapter) Children(ctx context.Context, node tree.Node, opts ...tree.ChildrenOption) ([]tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	evaluated := tree.EvalChildrenOptions(opts...)
	s.mu.Lock()
	s.hints[node.Key()] = evaluated.DepthHint
	err := s.fail[node.Key()]
	children := s.children[node.Key()]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (s *staticAdapter) Identity() string { return "static:test" }

func (s *staticAdapter) hint(key tree.Key) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hints[key]
}

func walkKeys(t *testing.T, adapter tree.Adapter, opts ...Option) []tree.Key {
	t.Helper()
	var keys []tree.Key
	_, err := Walk(context.Background(), adapter, staticNode{"root"}, func(node tree.Node, _ int) error {
		keys = append(keys, node.Key())
		return nil
	}, opts...)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return keys
}

func TestWalk_BFSOrder(t *testing.T) {
	got := walkKeys(t, newStaticAdapter(), WithStrategy(BFS))
	want := []tree.Key{"root", "a", "b", "a1", "a2", "b1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestWalk_DFSPreOrder(t *testing.T) {
	got := walkKeys(t, newStaticAdapter(), WithStrategy(DFSPre))
	want := []tree.Key{"root", "a", "a1", "a2", "b", "b1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestWalk_DFSPostOrder(t *testing.T) {
	got := walkKeys(t, newStaticAdapter(), WithStrategy(DFSPost))
	want := []tree.Key{"a1", "a2", "a", "b1", "b", "root"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestWalk_MaxDepth(t *testing.T) {
	for _, strategy := range []Strategy{BFS, DFSPre} {
		t.Run(strategy.String(), func(t *testing.T) {
			got := walkKeys(t, newStaticAdapter(), WithStrategy(strategy), WithMaxDepth(1))
			want := []tree.Key{"root", "a", "b"}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("order = %v, want %v", got, want)
			}
		})
	}
}

func TestWalk_MaxDepthZero(t *testing.T) {
	got := walkKeys(t, newStaticAdapter(), WithMaxDepth(0))
	want := []tree.Key{"root"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestWalk_DepthArgument(t *testing.T) {
	depths := map[tree.Key]int{}
	_, err := Walk(context.Background(), newStaticAdapter(), staticNode{"root"}, func(node tree.Node, depth int) error {
		depths[node.Key()] = depth
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := map[tree.Key]int{"root": 0, "a": 1, "b": 1, "a1": 2, "a2": 2, "b1": 2}
	if !reflect.DeepEqual(depths, want) {
		t.Errorf("depths = %v, want %v", depths, want)
	}
}

func TestWalk_SkipSubtree(t *testing.T) {
	for _, strategy := range []Strategy{BFS, DFSPre} {
		t.Run(strategy.String(), func(t *testing.T) {
			var keys []tree.Key
			_, err := Walk(context.Background(), newStaticAdapter(), staticNode{"root"}, func(node tree.Node, _ int) error {
				keys = append(keys, node.Key())
				if node.Key() == "a" {
					return SkipSubtree
				}
				return nil
			}, WithStrategy(strategy))
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			want := []tree.Key{"root", "a", "b", "b1"}
			if !reflect.DeepEqual(keys, want) {
				t.Errorf("order = %v, want %v", keys, want)
			}
		})
	}
}

func TestWalk_SkipSubtreeIgnoredInPostOrder(t *testing.T) {
	var keys []tree.Key
	_, err := Walk(context.Background(), newStaticAdapter(), staticNode{"root"}, func(node tree.Node, _ int) error {
		keys = append(keys, node.Key())
		return SkipSubtree
	}, WithStrategy(DFSPost))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(keys) != 6 {
		t.Errorf("visited %d nodes, want all 6: %v", len(keys), keys)
	}
}

func TestWalk_FailFast(t *testing.T) {
	adapter := newStaticAdapter()
	scanErr := fmt.Errorf("%w: boom", tree.ErrSourceUnavailable)
	adapter.fail["a"] = scanErr

	_, err := Walk(context.Background(), adapter, staticNode{"root"}, func(tree.Node, int) error {
		return nil
	}, WithErrorPolicy(FailFast))
	if !errors.Is(err, tree.ErrSourceUnavailable) {
		t.Errorf("Walk() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestWalk_ContinueOnErrors(t *testing.T) {
	adapter := newStaticAdapter()
	adapter.fail["a"] = fmt.Errorf("%w: boom", tree.ErrSourceUnavailable)

	var keys []tree.Key
	summary, err := Walk(context.Background(), adapter, staticNode{"root"}, func(node tree.Node, _ int) error {
		keys = append(keys, node.Key())
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	want := []tree.Key{"root", "a", "b", "b1"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("order = %v, want %v", keys, want)
	}
	if summary.Visited != 4 {
		t.Errorf("Visited = %d, want 4", summary.Visited)
	}
	if len(summary.Failures) != 0 {
		t.Errorf("Failures = %v, want none under the continue policy", summary.Failures)
	}
}

func TestWalk_CollectErrors(t *testing.T) {
	adapter := newStaticAdapter()
	adapter.fail["a"] = fmt.Errorf("%w: boom", tree.ErrSourceUnavailable)

	summary, err := Walk(context.Background(), adapter, staticNode{"root"}, func(tree.Node, int) error {
		return nil
	}, WithErrorPolicy(CollectErrors))
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("len(Failures) = %d, want 1", len(summary.Failures))
	}
	if summary.Failures[0].Key != "a" {
		t.Errorf("Failures[0].Key = %s, want a", summary.Failures[0].Key)
	}
	if !errors.Is(summary.Failures[0].Err, tree.ErrSourceUnavailable) {
		t.Errorf("Failures[0].Err = %v, want ErrSourceUnavailable", summary.Failures[0].Err)
	}
}

func TestWalk_CallbackErrorAborts(t *testing.T) {
	wantErr := errors.New("stop here")
	var visited int
	_, err := Walk(context.Background(), newStaticAdapter(), staticNode{"root"}, func(node tree.Node, _ int) error {
		visited++
		if node.Key() == "b" {
			return wantErr
		}
		return nil
	}, WithStrategy(BFS))
	if !errors.Is(err, wantErr) {
		t.Errorf("Walk() error = %v, want %v", err, wantErr)
	}
	if visited != 3 {
		t.Errorf("visited = %d, want 3 (root, a, b)", visited)
	}
}

func TestWalk_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, err := Walk(ctx, newStaticAdapter(), staticNode{"root"}, func(node tree.Node, _ int) error {
		if node.Key() == "a" {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Walk() error = %v, want context.Canceled", err)
	}
}

func TestWalk_Validation(t *testing.T) {
	ctx := context.Background()
	fn := func(tree.Node, int) error { return nil }
	adapter := newStaticAdapter()
	root := staticNode{"root"}

	if _, err := Walk(ctx, nil, root, fn); !errors.Is(err, tree.ErrConfiguration) {
		t.Errorf("nil adapter error = %v, want ErrConfiguration", err)
	}
	if _, err := Walk(ctx, adapter, nil, fn); !errors.Is(err, tree.ErrConfiguration) {
		t.Errorf("nil root error = %v, want ErrConfiguration", err)
	}
	if _, err := Walk(ctx, adapter, root, nil); !errors.Is(err, tree.ErrConfiguration) {
		t.Errorf("nil callback error = %v, want ErrConfiguration", err)
	}
	if _, err := Walk(ctx, adapter, root, fn, WithBatchSize(0)); !errors.Is(err, tree.ErrConfiguration) {
		t.Errorf("zero batch size error = %v, want ErrConfiguration", err)
	}
	if _, err := Walk(ctx, adapter, root, fn, WithMaxConcurrent(-1)); !errors.Is(err, tree.ErrConfiguration) {
		t.Errorf("negative concurrency error = %v, want ErrConfiguration", err)
	}
	if _, err := Walk(ctx, adapter, root, fn, WithStrategy(Strategy(42))); !errors.Is(err, tree.ErrConfiguration) {
		t.Errorf("unknown strategy error = %v, want ErrConfiguration", err)
	}
}

func TestWalk_DepthHints(t *testing.T) {
	adapter := newStaticAdapter()
	if _, err := Walk(context.Background(), adapter, staticNode{"root"}, func(tree.Node, int) error {
		return nil
	}, WithMaxDepth(2)); err != nil {
		t.Fatal(err)
	}
	if got := adapter.hint("root"); got != 1 {
		t.Errorf("hint(root) = %d, want 1", got)
	}
	if got := adapter.hint("a"); got != 0 {
		t.Errorf("hint(a) = %d, want 0", got)
	}

	unlimited := newStaticAdapter()
	if _, err := Walk(context.Background(), unlimited, staticNode{"root"}, func(tree.Node, int) error {
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if got := unlimited.hint("root"); got != tree.DepthAll {
		t.Errorf("hint(root) = %d, want DepthAll", got)
	}
}

func TestWalk_WideTreeDeterministicOrder(t *testing.T) {
	adapter := &staticAdapter{
		children: map[tree.Key][]tree.Node{},
		fail:     map[tree.Key]error{},
		hints:    map[tree.Key]int{},
	}
	var rootChildren []tree.Node
	var want []tree.Key
	want = append(want, "root")
	for i := 0; i < 40; i++ {
		key := tree.Key(fmt.Sprintf("c%02d", i))
		rootChildren = append(rootChildren, staticNode{key})
		want = append(want, key)
	}
	adapter.children["root"] = rootChildren

	for _, strategy := range []Strategy{BFS, DFSPre} {
		t.Run(strategy.String(), func(t *testing.T) {
			got := walkKeys(t, adapter, WithStrategy(strategy), WithMaxConcurrent(4), WithBatchSize(8))
			if !reflect.DeepEqual(got, want) {
				t.Errorf("order = %v, want %v", got, want)
			}
		})
	}
}
