// Package observability provides OpenTelemetry tracing and metrics for the
// transcription pipeline and its model executors.
//
// Setup installs OTLP HTTP exporters when enabled:
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "speakline", version.Version, "production")
//	defer shutdown(ctx)
//
// Stages are wrapped in an Operation, which owns a span and records the
// operation metrics when it ends:
//
//	ctx, op := observability.StartOperation(ctx, metrics, "speakline", "transcribe", observability.SpanStage)
//	err := transcribe(ctx)
//	op.End(ctx, "PROCESSING_ERROR", err)
//
// Executors report queue depth and queue wait through Metrics.
package observability
