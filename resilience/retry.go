package resilience

import (
	"context"
	stderrors "errors"
	"math/rand/v2"
	"time"

	"github.com/kbukum/augkit/errors"
)

// RetryConfig bounds how often and how patiently a failing call is retried.
type RetryConfig struct {
	// MaxAttempts counts the first call. Zero means 3.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// BackoffFactor multiplies the delay after every attempt.
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64 `yaml:"jitter" mapstructure:"jitter"`

	// RetryIf decides whether an error is worth another attempt.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry observes each failed attempt that will be retried.
	OnRetry func(attempt int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig is the policy for storage payload reads.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  2,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = d.BackoffFactor
	}
	if c.RetryIf == nil {
		c.RetryIf = d.RetryIf
	}
	return c
}

// DefaultRetryIf retries plain errors and retryable AppErrors. Context
// errors and every other AppError are final.
func DefaultRetryIf(err error) bool {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, ok := errors.AsAppError(err); ok {
		return errors.IsRetryable(err)
	}
	return true
}

// Retry calls fn until it succeeds, returns a final error, or the attempts
// run out; the last error is returned in the latter case. Waiting between
// attempts stops early when ctx ends.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	cfg = cfg.withDefaults()
	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if attempt >= cfg.MaxAttempts || !cfg.RetryIf(err) {
			return zero, err
		}
		wait := cfg.backoff(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}

// backoff is the delay after the given failed attempt: InitialBackoff grown
// geometrically, jittered, then capped at MaxBackoff.
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff)
	for range attempt - 1 {
		d *= c.BackoffFactor
	}
	if c.Jitter > 0 {
		d *= 1 + c.Jitter*(2*rand.Float64()-1)
	}
	return time.Duration(min(max(d, 0), float64(c.MaxBackoff)))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
