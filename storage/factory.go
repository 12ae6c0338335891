package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/augkit/errors"
	"github.com/kbukum/augkit/logger"
)

// Factory creates a Storage implementation from configuration.
type Factory func(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a storage backend factory for the given provider name.
// Implementation packages call this from an init function.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers returns the registered provider names.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a Storage implementation based on the given Config.
// The desired provider package must be imported so its factory is registered.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.Configuration("storage.provider",
			fmt.Sprintf("provider %q is not registered (registered: %v)", cfg.Provider, Providers()))
	}

	l := log.WithComponent("storage")
	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	return f(ctx, cfg, l)
}
