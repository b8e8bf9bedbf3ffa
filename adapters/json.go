package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/jonwraymond/treewalk/tree"
)

// JSONConfig configures the JSON document adapter.
type JSONConfig struct {
	// Name distinguishes this document's cache scope from other documents.
	// When empty, a digest of the document content is used.
	Name string
}

// JSON enumerates a decoded JSON document (the result of json.Unmarshal
// into any): object members in sorted key order, array elements in index
// order, scalars as leaves.
type JSON struct {
	root     any
	identity string
}

// NewJSON creates an adapter over a decoded JSON document.
func NewJSON(doc any, config JSONConfig) (*JSON, error) {
	name := config.Name
	if name == "" {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: json document not marshalable: %v", tree.ErrConfiguration, err)
		}
		name = strconv.FormatUint(xxhash.Sum64(raw), 16)
	}
	return &JSON{
		root:     doc,
		identity: "json:" + name,
	}, nil
}

// JSONNode is a position in a JSON document. Its key is a JSONPath-style
// pointer ($, $.a, $.a[0]).
type JSONNode struct {
	key   tree.Key
	name  string
	value any
}

// Root returns the document's root node.
func (a *JSON) Root() *JSONNode {
	return &JSONNode{key: "$", name: "$", value: a.root}
}

// Key returns the node's JSONPath-style pointer.
func (n *JSONNode) Key() tree.Key { return n.key }

// Name returns the member key or array index of this node.
func (n *JSONNode) Name() string { return n.name }

// Value returns the decoded value at this position.
func (n *JSONNode) Value() any { return n.value }

// Metadata reports the JSON type and, for containers, the member count.
func (n *JSONNode) Metadata(_ context.Context) (map[string]any, error) {
	m := map[string]any{}
	switch v := n.value.(type) {
	case map[string]any:
		m["type"] = "object"
		m["len"] = len(v)
	case []any:
		m["type"] = "array"
		m["len"] = len(v)
	case string:
		m["type"] = "string"
	case float64:
		m["type"] = "number"
	case bool:
		m["type"] = "boolean"
	case nil:
		m["type"] = "null"
	}
	return m, nil
}

// Children returns object members sorted by key, or array elements in
// order. Scalar nodes have no children.
func (a *JSON) Children(ctx context.Context, node tree.Node, _ ...tree.ChildrenOption) ([]tree.Node, error) {
	jn, ok := node.(*JSONNode)
	if !ok {
		return nil, fmt.Errorf("%w: json adapter received foreign node %q", tree.ErrInvariant, node.Key())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch v := jn.value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		children := make([]tree.Node, 0, len(keys))
		for _, k := range keys {
			children = append(children, &JSONNode{
				key:   jn.key + tree.Key("."+k),
				name:  k,
				value: v[k],
			})
		}
		return children, nil
	case []any:
		children := make([]tree.Node, 0, len(v))
		for i, elem := range v {
			idx := strconv.Itoa(i)
			children = append(children, &JSONNode{
				key:   jn.key + tree.Key("["+idx+"]"),
				name:  idx,
				value: elem,
			})
		}
		return children, nil
	default:
		return nil, nil
	}
}

// Identity returns a tag derived from the document name or content digest.
func (a *JSON) Identity() string { return a.identity }

var (
	_ tree.Adapter   = (*JSON)(nil)
	_ tree.Node      = (*JSONNode)(nil)
	_ tree.Metadater = (*JSONNode)(nil)
)
