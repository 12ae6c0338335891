package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kbukum/augkit/component"
	"github.com/kbukum/augkit/logger"
)

// App runs a finite task between component startup and shutdown. C is the
// run configuration; anything embedding config.ServiceConfig satisfies it.
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	onConfigure     []func(ctx context.Context, app *App[C]) error
	onStart         []Hook
	onReady         []Hook
	onStop          []Hook
}

// NewApp defaults and validates cfg, then sets up logging from its logging
// section unless WithLogger is given.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{timeout: defaultGracefulTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	base := cfg.GetServiceConfig()
	if o.log == nil {
		logger.Init(base.Logging)
		o.log = logger.GetGlobalLogger()
	}
	return &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		Logger:          o.log,
		gracefulTimeout: o.timeout,
	}, nil
}

// RegisterComponent adds c to the start order.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnConfigure registers a callback that runs once components and OnStart
// hooks are up, before the ready check.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// ReadyCheck fails when any component reports something other than healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var bad []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status == component.StatusHealthy {
			continue
		}
		s := h.Name + "=" + string(h.Status)
		if h.Message != "" {
			s += "(" + h.Message + ")"
		}
		bad = append(bad, s)
	}
	if len(bad) > 0 {
		return fmt.Errorf("unhealthy components: [%s]", strings.Join(bad, " "))
	}
	return nil
}

// RunTask starts the components, runs the hooks and task, and always shuts
// down whatever was started. SIGINT and SIGTERM cancel the task context.
// The task's error takes precedence over a shutdown error.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	err := a.startup(ctx)
	if err == nil {
		err = task(ctx)
		if ctx.Err() != nil && err != nil {
			a.Logger.Info("task canceled", map[string]interface{}{logger.FieldError: err.Error()})
		}
	}
	if stopErr := a.stop(); err == nil {
		err = stopErr
	}
	return err
}

// Shutdown runs the stop sequence. Components already stopped are skipped.
func (a *App[C]) Shutdown(context.Context) error {
	return a.stop()
}

func (a *App[C]) startup(ctx context.Context) error {
	began := time.Now()
	a.Logger.Info("starting application", map[string]interface{}{"name": a.Name, "version": a.Version})

	phases := []struct {
		label string
		run   func(context.Context) error
	}{
		{"initialization failed", a.Components.StartAll},
		{"onStart hook failed", func(ctx context.Context) error { return runHooks(ctx, a.onStart) }},
		{"configuration failed", a.configure},
		{"", a.checkReady},
		{"onReady hook failed", func(ctx context.Context) error { return runHooks(ctx, a.onReady) }},
	}
	for _, p := range phases {
		if err := p.run(ctx); err != nil {
			return fmt.Errorf("%s: %w", p.label, err)
		}
	}
	a.logSummary(time.Since(began))
	return nil
}

func (a *App[C]) configure(ctx context.Context) error {
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// checkReady only warns: a degraded component does not block the task.
func (a *App[C]) checkReady(ctx context.Context) error {
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("ready check reported issues", map[string]interface{}{logger.FieldError: err.Error()})
	}
	return nil
}

func (a *App[C]) logSummary(took time.Duration) {
	for _, c := range a.Components.All() {
		d, ok := c.(component.Describable)
		if !ok {
			continue
		}
		desc := d.Describe()
		if desc.Name == "" {
			desc.Name = c.Name()
		}
		a.Logger.Info("component ready", map[string]interface{}{
			logger.FieldComponent: desc.Name,
			"type":                desc.Type,
			"details":             desc.Details,
		})
	}
	a.Logger.Info("application ready", map[string]interface{}{"startup": took.String()})
}

// stop runs OnStop hooks, then stops components, within the graceful
// timeout. Both steps always run.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hookErr := runHooks(ctx, a.onStop)
	if hookErr != nil {
		a.Logger.Error("onStop hook error", map[string]interface{}{logger.FieldError: hookErr.Error()})
	}
	stopErr := a.Components.StopAll(ctx)
	if stopErr != nil {
		a.Logger.Error("shutdown completed with errors", map[string]interface{}{logger.FieldError: stopErr.Error()})
	}
	a.Logger.Info("application shutdown complete")
	return errors.Join(hookErr, stopErr)
}
