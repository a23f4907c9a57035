// Package retry runs operations with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config holds retry configuration.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Option is a functional option for retry configuration.
type Option func(*Config)

func WithMaxRetries(n int) Option            { return func(c *Config) { c.MaxRetries = n } }
func WithInitialDelay(d time.Duration) Option { return func(c *Config) { c.InitialDelay = d } }
func WithMaxDelay(d time.Duration) Option     { return func(c *Config) { c.MaxDelay = d } }

// Do calls op until it succeeds, returns a Fatal error, the retry budget is
// spent or ctx is done. The first call happens immediately.
func Do(ctx context.Context, op func() error, opts ...Option) error {
	cfg := Config{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if IsFatal(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxRetries {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("canceled after %d attempt(s): %w", attempt+1, errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return fmt.Errorf("giving up after %d attempt(s): %w", cfg.MaxRetries+1, lastErr)
}

// FatalError marks an error as not worth retrying.
type FatalError struct{ Err error }

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so that Do returns it without further attempts.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
