package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pipeline instruments. A nil *Metrics records nothing,
// so callers never branch on whether metrics are enabled.
type Metrics struct {
	samples      metric.Int64Counter
	batches      metric.Int64Counter
	padded       metric.Int64Counter
	batchWait    metric.Float64Histogram
	decodeErrors metric.Int64Counter
	nodeTime     metric.Float64Histogram
	prefetch     metric.Int64Gauge
	failures     metric.Int64Counter
}

// NewMetrics registers the pipeline instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m    Metrics
		errs []error
	)
	counter := func(dst *metric.Int64Counter, name, desc string) {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		*dst = c
		errs = append(errs, wrapInstrument(name, err))
	}
	seconds := func(dst *metric.Float64Histogram, name, desc string) {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		*dst = h
		errs = append(errs, wrapInstrument(name, err))
	}

	counter(&m.samples, "samples.total", "Samples decoded and augmented")
	counter(&m.batches, "batches.total", "Batches delivered to the consumer")
	counter(&m.padded, "batches.padded_slots", "Slots filled by the last batch policy")
	counter(&m.decodeErrors, "decode.errors", "Payloads that failed to decode")
	counter(&m.failures, "errors.total", "Pipeline errors by code and component")
	seconds(&m.batchWait, "batches.duration", "Time the consumer waited for a batch")
	seconds(&m.nodeTime, "node.duration", "Augmentation node execution time")
	g, err := meter.Int64Gauge("prefetch.level", metric.WithDescription("Batches waiting in the prefetch queue"))
	m.prefetch = g
	errs = append(errs, wrapInstrument("prefetch.level", err))

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter { return otel.Meter(name) }

func wrapInstrument(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("creating instrument %s: %w", name, err)
}

func pipelineAttr(id string) attribute.KeyValue {
	return attribute.String(AttrPipelineID, id)
}

// RecordSample counts one sample leaving the augmentation graph.
func (m *Metrics) RecordSample(ctx context.Context, pipelineID, status string) {
	if m == nil {
		return
	}
	m.samples.Add(ctx, 1, metric.WithAttributes(pipelineAttr(pipelineID), attribute.String(AttrStatus, status)))
}

// RecordBatch counts a delivered batch, its padded slots and how long the
// consumer waited for it.
func (m *Metrics) RecordBatch(ctx context.Context, pipelineID string, padded int, wait time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(pipelineAttr(pipelineID))
	m.batches.Add(ctx, 1, attrs)
	if padded > 0 {
		m.padded.Add(ctx, int64(padded), attrs)
	}
	m.batchWait.Record(ctx, wait.Seconds(), attrs)
}

// RecordDecodeError counts a payload that failed to decode.
func (m *Metrics) RecordDecodeError(ctx context.Context, pipelineID string, substituted bool) {
	if m == nil {
		return
	}
	m.decodeErrors.Add(ctx, 1, metric.WithAttributes(pipelineAttr(pipelineID), attribute.Bool("substituted", substituted)))
}

// RecordNode times one node execution.
func (m *Metrics) RecordNode(ctx context.Context, node, op, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodeTime.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrNode, node),
		attribute.String(AttrOp, op),
		attribute.String(AttrStatus, status),
	))
}

// RecordPrefetchLevel samples the prefetch queue occupancy.
func (m *Metrics) RecordPrefetchLevel(ctx context.Context, pipelineID string, level int) {
	if m == nil {
		return
	}
	m.prefetch.Record(ctx, int64(level), metric.WithAttributes(pipelineAttr(pipelineID)))
}

// RecordError counts a failure by error code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
