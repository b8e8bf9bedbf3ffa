package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records traversal and scan telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordVisit records one node visit during a traversal.
	RecordVisit(ctx context.Context, adapter string)

	// RecordScan records one child enumeration with its duration and
	// error status.
	RecordScan(ctx context.Context, adapter string, duration time.Duration, err error)
}

// metricsImpl bridges Metrics onto an OpenTelemetry meter.
type metricsImpl struct {
	visitCount   metric.Int64Counter
	scanCount    metric.Int64Counter
	scanErrors   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	visitCount, err := meter.Int64Counter(
		"treewalk.visit.total",
		metric.WithDescription("Total number of nodes visited"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, err
	}

	scanCount, err := meter.Int64Counter(
		"treewalk.scan.total",
		metric.WithDescription("Total number of child enumerations"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, err
	}

	scanErrors, err := meter.Int64Counter(
		"treewalk.scan.errors",
		metric.WithDescription("Total number of failed child enumerations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"treewalk.scan.duration_ms",
		metric.WithDescription("Child enumeration duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		visitCount:   visitCount,
		scanCount:    scanCount,
		scanErrors:   scanErrors,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordVisit(ctx context.Context, adapter string) {
	m.visitCount.Add(ctx, 1, metric.WithAttributes(attribute.String("adapter", adapter)))
}

func (m *metricsImpl) RecordScan(ctx context.Context, adapter string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("adapter", adapter))
	m.scanCount.Add(ctx, 1, opt)
	if err != nil {
		m.scanErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

// NopMetrics returns a Metrics instance backed by a no-op meter.
func NopMetrics() Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("nop"))
	return m
}
