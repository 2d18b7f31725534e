package provider

import (
	"context"
	"time"

	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/observability"
)

// WithMetrics returns a Middleware that records execution metrics using the
// observability.Metrics instruments: operation count, duration and errors
// keyed by error code.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		errType := string(errors.ErrCodeInternal)
		if appErr, ok := errors.AsAppError(err); ok {
			errType = string(appErr.Code)
		}
		m.metrics.RecordError(ctx, errType, m.inner.Name())
	}
	m.metrics.RecordOperation(ctx, m.inner.Name(), "execute", status, duration)

	return output, err
}
