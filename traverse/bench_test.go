package traverse

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonwraymond/treewalk/tree"
)

// benchTree builds a uniform tree with the given fan-out and depth.
func benchTree(fanout, depth int) *staticAdapter {
	a := &staticAdapter{
		children: map[tree.Key][]tree.Node{},
		fail:     map[tree.Key]error{},
		hints:    map[tree.Key]int{},
	}
	var build func(key tree.Key, level int)
	build = func(key tree.Key, level int) {
		if level >= depth {
			return
		}
		children := make([]tree.Node, fanout)
		for i := 0; i < fanout; i++ {
			childKey := tree.Key(fmt.Sprintf("%s/%d", key, i))
			children[i] = staticNode{childKey}
			build(childKey, level+1)
		}
		a.children[key] = children
	}
	build("root", 0)
	return a
}

func benchmarkWalk(b *testing.B, strategy Strategy) {
	adapter := benchTree(10, 3)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Walk(ctx, adapter, staticNode{"root"}, func(tree.Node, int) error {
			return nil
		}, WithStrategy(strategy))
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWalk_BFS(b *testing.B)     { benchmarkWalk(b, BFS) }
func BenchmarkWalk_DFSPre(b *testing.B)  { benchmarkWalk(b, DFSPre) }
func BenchmarkWalk_DFSPost(b *testing.B) { benchmarkWalk(b, DFSPost) }
