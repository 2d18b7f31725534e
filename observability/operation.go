package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks a single traced and measured unit of work, such as one
// pipeline stage.
type Operation struct {
	ServiceName   string
	OperationName string
	StartTime     time.Time
	Metrics       *Metrics

	span trace.Span
}

// StartOperation opens a span named spanName and returns an Operation that
// closes it. If metrics is nil, metric recording is silently skipped.
func StartOperation(ctx context.Context, metrics *Metrics, serviceName, operationName, spanName string) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName)
	span.SetAttributes(
		attribute.String(AttrServiceName, serviceName),
		attribute.String(AttrOperationName, operationName),
	)
	return ctx, &Operation{
		ServiceName:   serviceName,
		OperationName: operationName,
		StartTime:     time.Now(),
		Metrics:       metrics,
		span:          span,
	}
}

// End finishes the span and records the operation metric. A non-nil err
// marks the span as failed and counts an error of errType.
func (op *Operation) End(ctx context.Context, errType string, err error) {
	duration := op.Duration()
	status := "ok"

	if err != nil {
		status = "error"
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()

	if op.Metrics != nil {
		op.Metrics.RecordOperation(ctx, op.ServiceName, op.OperationName, status, duration)
		if err != nil {
			op.Metrics.RecordError(ctx, errType, op.OperationName)
		}
	}
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
