// Package observe provides the structured logging and metrics surface used
// by the traversal engine and the adapter decorators.
//
// The Logger interface is deliberately small: leveled, structured, context
// aware. The default implementation writes one JSON object per line. Metrics
// bridge to any OpenTelemetry meter; callers that do not wire a meter get a
// no-op recorder.
package observe
