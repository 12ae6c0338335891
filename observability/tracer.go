package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/kbukum/augkit"

// Span names.
const (
	SpanBuild   = "pipeline.build"
	SpanEpoch   = "pipeline.epoch"
	SpanReset   = "pipeline.reset"
	SpanAugment = "augment"
)

// Attribute keys shared by spans and metrics.
const (
	AttrPipelineID = "pipeline.id"
	AttrEpoch      = "pipeline.epoch"
	AttrShard      = "pipeline.shard"
	AttrSample     = "sample.index"
	AttrNode       = "dag.node"
	AttrOp         = "dag.op"
	AttrStatus     = "status"
)

// StartSpan opens a span on the globally registered tracer provider. With
// tracing disabled the provider is a no-op and the span records nothing.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// SetSpanAttribute annotates the span in ctx. Values of unsupported types
// are dropped.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if kv, ok := toAttribute(key, value); ok {
		span.SetAttributes(kv)
	}
}

// SetSpanError records err on the span in ctx and marks the span failed.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttribute(key string, value any) (attribute.KeyValue, bool) {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v), true
	case bool:
		return attribute.Bool(key, v), true
	case int:
		return attribute.Int(key, v), true
	case int64:
		return attribute.Int64(key, v), true
	case uint64:
		// Seeds use the full 64 bits; the bit pattern is kept.
		return attribute.Int64(key, int64(v)), true
	case float64:
		return attribute.Float64(key, v), true
	case []string:
		return attribute.StringSlice(key, v), true
	}
	return attribute.KeyValue{}, false
}
