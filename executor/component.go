package executor

import (
	"context"
	"fmt"

	"github.com/kbukum/augkit/component"
)

var (
	_ component.Component   = (*Pipeline)(nil)
	_ component.Describable = (*Pipeline)(nil)
)

// Name implements component.Component.
func (p *Pipeline) Name() string { return p.name }

// Start builds the pipeline.
func (p *Pipeline) Start(ctx context.Context) error { return p.Build(ctx) }

// Stop releases the pipeline.
func (p *Pipeline) Stop(_ context.Context) error { return p.Release() }

// Health reports the lifecycle state and the last fatal error.
func (p *Pipeline) Health(_ context.Context) component.Health {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := component.Health{Name: p.name, Status: component.StatusHealthy, Message: p.state.String()}
	switch {
	case p.state == StateReleased:
		h.Status = component.StatusUnhealthy
	case p.err != nil:
		h.Status = component.StatusUnhealthy
		h.Message = p.err.Error()
	case p.state == StateUnbuilt:
		h.Status = component.StatusDegraded
	}
	return h
}

// Describe implements component.Describable.
func (p *Pipeline) Describe() component.Description {
	shard := "-"
	if p.reader != nil {
		id, n := p.reader.Shard()
		shard = fmt.Sprintf("%d/%d", id, n)
	}
	return component.Description{
		Name: p.name,
		Type: "pipeline",
		Details: fmt.Sprintf("batch=%d threads=%d shard=%s dtype=%s layout=%s",
			p.cfg.BatchSize, p.cfg.NumThreads, shard, p.cfg.TensorDType, p.cfg.TensorLayout),
	}
}

// Stats is a point-in-time view of a pipeline.
type Stats struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	State            string `json:"state"`
	Epoch            int    `json:"epoch"`
	Batches          int    `json:"batches"`
	Samples          int    `json:"samples"`
	RemainingSamples int    `json:"remaining_samples"`
	PrefetchLevel    int    `json:"prefetch_level"`
	Timing           Timing `json:"timing"`
	Error            string `json:"error,omitempty"`
}

// Stats returns a snapshot for status reporting.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{
		ID:      p.id,
		Name:    p.name,
		State:   p.state.String(),
		Epoch:   p.epoch,
		Batches: p.batches,
		Timing:  p.timing.snapshot(),
	}
	if p.state != StateUnbuilt && p.state != StateReleased {
		s.Samples = p.reader.Len()
		s.RemainingSamples = max(0, s.Samples-p.delivered)
	}
	if p.queue != nil {
		s.PrefetchLevel = p.queue.Level()
	}
	if p.err != nil {
		s.Error = p.err.Error()
	}
	return s
}
