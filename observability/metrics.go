package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the pipeline stages, the
// provider middleware and the model executors.
type Metrics struct {
	operations metric.Int64Counter
	latency    metric.Float64Histogram
	errors     metric.Int64Counter
	queueDepth metric.Int64UpDownCounter
	queueWait  metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.operations, err = meter.Int64Counter("speakline.operations",
		metric.WithDescription("Completed operations by status")); err != nil {
		return nil, fmt.Errorf("speakline.operations: %w", err)
	}
	if m.latency, err = meter.Float64Histogram("speakline.operation.duration",
		metric.WithDescription("Operation latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("speakline.operation.duration: %w", err)
	}
	if m.errors, err = meter.Int64Counter("speakline.errors",
		metric.WithDescription("Failed operations by error code and component")); err != nil {
		return nil, fmt.Errorf("speakline.errors: %w", err)
	}
	if m.queueDepth, err = meter.Int64UpDownCounter("speakline.executor.queue.depth",
		metric.WithDescription("Tasks waiting in an executor queue")); err != nil {
		return nil, fmt.Errorf("speakline.executor.queue.depth: %w", err)
	}
	if m.queueWait, err = meter.Float64Histogram("speakline.executor.queue.wait",
		metric.WithDescription("Time a task waited before the model picked it up"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("speakline.executor.queue.wait: %w", err)
	}
	return &m, nil
}

// RecordOperation counts one finished operation and records its latency.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, took time.Duration) {
	op := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("operation", operation),
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(append(op, attribute.String("status", status))...))
	m.latency.Record(ctx, took.Seconds(), metric.WithAttributes(op...))
}

// RecordError counts a failure of errType in component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// RecordQueueDepth adjusts the queued task count of an executor by delta.
func (m *Metrics) RecordQueueDepth(ctx context.Context, executor string, delta int64) {
	m.queueDepth.Add(ctx, delta, metric.WithAttributes(attribute.String("executor", executor)))
}

func (m *Metrics) RecordQueueWait(ctx context.Context, executor string, wait time.Duration) {
	m.queueWait.Record(ctx, wait.Seconds(), metric.WithAttributes(attribute.String("executor", executor)))
}
