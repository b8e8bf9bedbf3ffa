package traverse

import (
	"context"

	"github.com/jonwraymond/treewalk/tree"
)

// Collect walks the tree and returns every visited node in emission order.
func Collect(ctx context.Context, adapter tree.Adapter, root tree.Node, opts ...Option) ([]tree.Node, error) {
	var nodes []tree.Node
	_, err := Walk(ctx, adapter, root, func(node tree.Node, _ int) error {
		nodes = append(nodes, node)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// Keys walks the tree and returns every visited node's key in emission
// order.
func Keys(ctx context.Context, adapter tree.Adapter, root tree.Node, opts ...Option) ([]tree.Key, error) {
	var keys []tree.Key
	_, err := Walk(ctx, adapter, root, func(node tree.Node, _ int) error {
		keys = append(keys, node.Key())
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Count walks the tree and returns the number of visited nodes.
func Count(ctx context.Context, adapter tree.Adapter, root tree.Node, opts ...Option) (int, error) {
	summary, err := Walk(ctx, adapter, root, func(tree.Node, int) error { return nil }, opts...)
	if err != nil {
		return 0, err
	}
	return summary.Visited, nil
}
