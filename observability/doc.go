// Package observability wires OpenTelemetry tracing and metrics into
// augmentation pipelines.
//
// Setup starts the OTLP/HTTP exporters selected by the telemetry config and
// installs them as the global providers:
//
//	metrics, shutdown, err := observability.Setup(ctx, cfg.Telemetry, "augkit", version.Short(), cfg.Environment)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanBuild)
//	defer span.End()
//	metrics.RecordBatch(ctx, pipelineID, 0, wait)
//
// A nil *Metrics records nothing, so pipelines built without telemetry call
// the recorders unconditionally.
package observability
