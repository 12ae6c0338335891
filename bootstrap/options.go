package bootstrap

import (
	"time"

	"github.com/kbukum/augkit/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// Option customises NewApp.
type Option func(*options)

type options struct {
	log     *logger.Logger
	timeout time.Duration
}

// WithLogger replaces the logger NewApp would build from the logging config.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithGracefulTimeout bounds OnStop hooks plus component shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}
