package traverse

import (
	"fmt"
	"strconv"

	"github.com/jonwraymond/treewalk/observe"
	"github.com/jonwraymond/treewalk/tree"
)

// Strategy selects the visit order.
type Strategy int

const (
	// BFS visits nodes level by level, each level in parent order.
	BFS Strategy = iota

	// DFSPre visits a node before its descendants.
	DFSPre

	// DFSPost visits a node after its descendants.
	DFSPost
)

func (s Strategy) String() string {
	switch s {
	case BFS:
		return "bfs"
	case DFSPre:
		return "dfs-pre"
	case DFSPost:
		return "dfs-post"
	default:
		return "strategy(" + strconv.Itoa(int(s)) + ")"
	}
}

// ErrorPolicy selects how adapter enumeration failures are handled.
type ErrorPolicy int

const (
	// ContinueOnErrors logs the failure and treats the node as childless.
	ContinueOnErrors ErrorPolicy = iota

	// FailFast aborts the walk on the first enumeration failure.
	FailFast

	// CollectErrors records each failure in the walk summary and treats
	// the node as childless.
	CollectErrors
)

func (p ErrorPolicy) String() string {
	switch p {
	case ContinueOnErrors:
		return "continue"
	case FailFast:
		return "fail-fast"
	case CollectErrors:
		return "collect"
	default:
		return "policy(" + strconv.Itoa(int(p)) + ")"
	}
}

type options struct {
	strategy      Strategy
	maxDepth      int
	batchSize     int
	maxConcurrent int
	errorPolicy   ErrorPolicy
	logger        observe.Logger
	metrics       observe.Metrics
}

// Option adjusts walk behavior.
type Option func(*options)

// WithStrategy selects the visit order. Default: BFS.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithMaxDepth limits visits to nodes at most depth levels below the root.
// The root is depth 0. Negative means unlimited, the default.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithBatchSize bounds how many scan results a breadth-first wave buffers
// at once. Default: 256.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithMaxConcurrent bounds in-flight child enumerations. Default: 100.
func WithMaxConcurrent(n int) Option {
	return func(o *options) { o.maxConcurrent = n }
}

// WithErrorPolicy selects failure handling. Default: ContinueOnErrors.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(o *options) { o.errorPolicy = p }
}

// WithLogger sets the logger used for continued-past failures and debug
// records. Default: a no-op logger.
func WithLogger(l observe.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the telemetry recorder. Default: no-op.
func WithMetrics(m observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func evalOptions(opts ...Option) (options, error) {
	o := options{
		strategy:      BFS,
		maxDepth:      -1,
		batchSize:     256,
		maxConcurrent: 100,
		errorPolicy:   ContinueOnErrors,
		logger:        observe.NopLogger(),
		metrics:       observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.strategy < BFS || o.strategy > DFSPost {
		return o, fmt.Errorf("%w: unknown strategy %d", tree.ErrConfiguration, int(o.strategy))
	}
	if o.errorPolicy < ContinueOnErrors || o.errorPolicy > CollectErrors {
		return o, fmt.Errorf("%w: unknown error policy %d", tree.ErrConfiguration, int(o.errorPolicy))
	}
	if o.batchSize <= 0 {
		return o, fmt.Errorf("%w: batch size must be positive, got %d", tree.ErrConfiguration, o.batchSize)
	}
	if o.maxConcurrent <= 0 {
		return o, fmt.Errorf("%w: max concurrent must be positive, got %d", tree.ErrConfiguration, o.maxConcurrent)
	}
	return o, nil
}
