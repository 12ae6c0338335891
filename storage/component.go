package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kbukum/augkit/component"
	"github.com/kbukum/augkit/logger"
)

// Component owns the storage backend for the lifetime of a run. The
// backend exists between Start and Stop.
type Component struct {
	cfg Config
	log *logger.Logger

	mu      sync.RWMutex
	backend Storage
}

var _ component.Component = (*Component)(nil)

// NewComponent returns an unstarted storage component.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns the backend, or nil outside Start/Stop.
func (c *Component) Storage() Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend
}

func (c *Component) Name() string { return "storage" }

// Start opens the configured backend.
func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.backend = s
	c.mu.Unlock()
	return nil
}

// Stop drops the backend, closing it when it holds resources.
func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	s := c.backend
	c.backend = nil
	c.mu.Unlock()
	if closer, ok := s.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Health lists the dataset prefix as a reachability probe.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	s := c.Storage()
	if s == nil {
		h.Status, h.Message = component.StatusUnhealthy, "not started"
		return h
	}
	if _, err := s.List(ctx, c.cfg.Prefix); err != nil {
		h.Status, h.Message = component.StatusUnhealthy, "list failed: "+err.Error()
	}
	return h
}

func (c *Component) Describe() component.Description {
	d := component.Description{Name: "Storage", Type: "storage"}
	switch c.cfg.Provider {
	case ProviderS3:
		d.Details = fmt.Sprintf("provider=s3 bucket=%s prefix=%s", c.cfg.Bucket, c.cfg.Prefix)
	default:
		d.Details = fmt.Sprintf("provider=%s base_path=%s", c.cfg.Provider, c.cfg.BasePath)
	}
	return d
}
