// Package resilience provides adapter decorators that harden child
// enumeration against flaky sources: retry with backoff, per-scan timeouts,
// a circuit breaker, a token bucket rate limiter, and a concurrency
// bulkhead.
//
// The decorators never change enumeration results, so they keep the inner
// adapter's identity and share its cache scope.
package resilience
