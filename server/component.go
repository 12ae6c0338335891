package server

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/augkit/component"
)

const componentName = "status-server"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component wraps Server to implement component.Component.
type Component struct {
	server  *Server
	started atomic.Bool
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (c *Component) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (c *Component) Start(ctx context.Context) error {
	if err := c.server.Start(ctx); err != nil {
		return err
	}
	c.started.Store(true)
	return nil
}

// Stop gracefully shuts down the underlying HTTP server.
func (c *Component) Stop(ctx context.Context) error {
	c.started.Store(false)
	return c.server.Stop(ctx)
}

// Health returns the health status of the server.
func (c *Component) Health(_ context.Context) component.Health {
	if !c.started.Load() {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusDegraded,
			Message: "not listening",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns summary info for startup logging.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Status Server",
		Type:    "server",
		Details: c.server.Addr(),
	}
}
