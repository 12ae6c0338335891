package main

import (
	"context"
	"os"
	"sync"

	"github.com/kbukum/augkit/component"
	"github.com/kbukum/augkit/config"
	"github.com/kbukum/augkit/dag"
	"github.com/kbukum/augkit/decode"
	"github.com/kbukum/augkit/executor"
	"github.com/kbukum/augkit/observability"
	"github.com/kbukum/augkit/reader"
	"github.com/kbukum/augkit/storage"
)

var (
	_ component.Component   = (*pipelineComponent)(nil)
	_ component.Describable = (*pipelineComponent)(nil)
)

// pipelineComponent assembles and builds the executor pipeline at Start,
// after the storage backend it may read from has started.
type pipelineComponent struct {
	cfg     *config.PipelineConfig
	store   *storage.Component
	metrics *observability.Metrics

	mu   sync.RWMutex
	pipe *executor.Pipeline
}

func newPipelineComponent(cfg *config.PipelineConfig, store *storage.Component, metrics *observability.Metrics) *pipelineComponent {
	return &pipelineComponent{cfg: cfg, store: store, metrics: metrics}
}

func (c *pipelineComponent) Name() string { return "pipeline" }

// Start loads the graph, opens the reader and builds the pipeline.
func (c *pipelineComponent) Start(ctx context.Context) error {
	def, err := loadGraph(c.cfg.Graph, c.cfg.GraphDirs)
	if err != nil {
		return err
	}

	var backend storage.Storage
	if c.store != nil {
		backend = c.store.Storage()
	}
	rd, err := reader.New(c.cfg.Reader, backend)
	if err != nil {
		return err
	}
	dec, err := decode.New(c.cfg.Decode)
	if err != nil {
		return err
	}

	p := executor.New(c.cfg.Pipeline,
		executor.WithName(c.cfg.Name),
		executor.WithReader(rd),
		executor.WithDecoder(dec),
		executor.WithMetrics(c.metrics),
		executor.WithTracing(c.cfg.Telemetry.Tracing),
	)
	if err := p.SetGraph(def); err != nil {
		return err
	}
	if err := p.Build(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.pipe = p
	c.mu.Unlock()
	return nil
}

// Stop releases the pipeline.
func (c *pipelineComponent) Stop(_ context.Context) error {
	p := c.pipeline()
	if p == nil {
		return nil
	}
	return p.Release()
}

// Health reports the pipeline's health, degraded until it is built.
func (c *pipelineComponent) Health(ctx context.Context) component.Health {
	p := c.pipeline()
	if p == nil {
		return component.Health{Name: c.Name(), Status: component.StatusDegraded, Message: "not built"}
	}
	h := p.Health(ctx)
	h.Name = c.Name()
	return h
}

func (c *pipelineComponent) Describe() component.Description {
	if p := c.pipeline(); p != nil {
		return p.Describe()
	}
	return component.Description{Name: "Pipeline", Type: "pipeline", Details: "not built"}
}

func (c *pipelineComponent) pipeline() *executor.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pipe
}

// loadGraph reads the graph definition at ref, or resolves ref as a graph
// name against dirs when no such file exists.
func loadGraph(ref string, dirs []string) (*dag.GraphDef, error) {
	if _, err := os.Stat(ref); err == nil {
		return dag.LoadGraphFile(ref)
	}
	loader := dag.NewFileGraphLoader(dirs...)
	def, err := loader.Load(ref)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = ref
	}
	return dag.ResolveIncludes(def, loader)
}
