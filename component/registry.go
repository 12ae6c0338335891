package component

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kbukum/augkit/logger"
)

// DefaultStopTimeout bounds each component's Stop call.
const DefaultStopTimeout = 10 * time.Second

type member struct {
	Component
	running bool
}

// Registry starts components in registration order and stops the running
// ones in reverse, so a component may rely on everything registered before
// it.
type Registry struct {
	mu      sync.RWMutex
	members []*member
	log     *logger.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{log: logger.WithComponent("component")}
}

// Register appends c. Names must be unique.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(c.Name()) >= 0 {
		return fmt.Errorf("component %s already registered", c.Name())
	}
	r.members = append(r.members, &member{Component: c})
	r.log.Debug("component registered", map[string]interface{}{logger.FieldComponent: c.Name()})
	return nil
}

// StartAll starts every component in order and stops at the first failure.
// Components started before the failure keep running until StopAll.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.running {
			continue
		}
		fields := map[string]interface{}{logger.FieldComponent: m.Name()}
		if err := m.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.MergeWithError(fields, err))
			return fmt.Errorf("failed to start %s: %w", m.Name(), err)
		}
		m.running = true
		if d, ok := m.Component.(Describable); ok {
			desc := d.Describe()
			fields["type"], fields["details"] = desc.Type, desc.Details
		}
		r.log.Info("component started", fields)
	}
	return nil
}

// StopAll stops the running components in reverse order, giving each
// DefaultStopTimeout. Every component is attempted; failures are joined.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, m := range slices.Backward(r.members) {
		if !m.running {
			continue
		}
		m.running = false
		if err := r.stop(ctx, m); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", m.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) stop(ctx context.Context, m *member) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
	defer cancel()
	fields := map[string]interface{}{logger.FieldComponent: m.Name()}
	if err := m.Stop(ctx); err != nil {
		r.log.Error("component stop failed", logger.MergeWithError(fields, err))
		return err
	}
	r.log.Info("component stopped", fields)
	return nil
}

// HealthAll collects every component's health in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, len(r.members))
	for i, m := range r.members {
		out[i] = m.Health(ctx)
		if out[i].Name == "" {
			out[i].Name = m.Name()
		}
	}
	return out
}

// Get returns the component registered as name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(name); i >= 0 {
		return r.members[i].Component
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, len(r.members))
	for i, m := range r.members {
		out[i] = m.Component
	}
	return out
}

func (r *Registry) indexOf(name string) int {
	return slices.IndexFunc(r.members, func(m *member) bool { return m.Name() == name })
}

// Overall folds component health into one status: unhealthy if any
// component is unhealthy, degraded if any is degraded, healthy otherwise.
func Overall(hs []Health) HealthStatus {
	status := StatusHealthy
	for _, h := range hs {
		switch h.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
