// Package timeouts holds the per-operation deadlines handlers and stores use
// with context.WithTimeout.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries, the dashboard's multi-collection reads
//   - Long: migrations and startup work
package timeouts

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 60 * time.Second
)

// Config overrides the defaults. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }

// Configure applies non-zero overrides. Call it during startup.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	if c.Ping > 0 {
		cur.Ping = c.Ping
	}
	if c.Short > 0 {
		cur.Short = c.Short
	}
	if c.Medium > 0 {
		cur.Medium = c.Medium
	}
	if c.Long > 0 {
		cur.Long = c.Long
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active values.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was the reason the operation stopped.
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out", zap.String("operation", op), zap.Duration("timeout", d))
		}
		cancel()
	}
}
