// Package ratelimit implements fixed-window request quotas.
//
// A Limiter applies the window algorithm through a Store, which owns the
// per-key counters. MemoryStore keeps them in process; RedisStore keeps them
// in Redis so every instance of the service shares one quota.
//
// Algorithm, per key:
//   - no window yet, or now - start >= window: start a new window with count 1
//     and allow;
//   - count < max: increment and allow;
//   - otherwise deny, leaving the window untouched, and report the time until
//     the window ends.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Config is one quota. Name scopes the counters so two quotas with different
// names never share a window for the same client.
type Config struct {
	Name        string
	MaxRequests int
	Window      time.Duration
}

// normalized floors an unusable quota to one request per minute.
func (c Config) normalized() Config {
	if c.MaxRequests < 1 {
		c.MaxRequests = 1
	}
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	return c
}

// Window is the counter state for one key.
type Window struct {
	Start time.Time
	Count int
}

// Store applies one fixed-window step for key at time now. It returns the
// window after the step and whether the request was admitted. Steps for the
// same key must be serialized by the implementation.
type Store interface {
	Take(ctx context.Context, key string, cfg Config, now time.Time) (Window, bool, error)
}

// Result is the outcome of Limiter.Check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetIn is the time until the current window ends.
	ResetIn time.Duration
	// Window is the quota's (normalized) window length.
	Window time.Duration
}

// RetryMinutes is ResetIn rounded up to whole minutes.
func (r Result) RetryMinutes() int {
	if r.ResetIn <= 0 {
		return 0
	}
	return int(math.Ceil(float64(r.ResetIn.Milliseconds()) / 60000))
}

// Limiter checks clients against quotas. It is safe for concurrent use.
type Limiter struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
	warn  rate.Sometimes
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLogger sets the logger used for store failures.
func WithLogger(lg zerolog.Logger) Option {
	return func(l *Limiter) { l.log = lg }
}

// New returns a Limiter over store. A nil store gets a fresh MemoryStore.
func New(store Store, opts ...Option) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	l := &Limiter{
		store: store,
		now:   time.Now,
		log:   log.Logger,
		warn:  rate.Sometimes{Interval: time.Minute},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Key is the store key for clientID under cfg.
func Key(cfg Config, clientID string) string {
	if cfg.Name == "" {
		return clientID
	}
	return cfg.Name + ":" + clientID
}

// Check counts one request from clientID against cfg.
//
// A store error admits the request: the quota protects cost, not
// authorization, and an unavailable counter must not take the API down.
func (l *Limiter) Check(ctx context.Context, clientID string, cfg Config) Result {
	cfg = cfg.normalized()
	now := l.now()

	w, ok, err := l.store.Take(ctx, Key(cfg, clientID), cfg, now)
	if err != nil {
		l.warn.Do(func() {
			l.log.Warn().Err(err).Str("scope", cfg.Name).Msg("rate limit store failed; admitting request")
		})
		return Result{Allowed: true, Limit: cfg.MaxRequests, Remaining: cfg.MaxRequests - 1, ResetIn: cfg.Window, Window: cfg.Window}
	}

	reset := w.Start.Add(cfg.Window).Sub(now)
	if reset < 0 {
		reset = 0
	}
	remaining := cfg.MaxRequests - w.Count
	if remaining < 0 || !ok {
		remaining = 0
	}
	return Result{
		Allowed:   ok,
		Limit:     cfg.MaxRequests,
		Remaining: remaining,
		ResetIn:   reset,
		Window:    cfg.Window,
	}
}

// step is the fixed-window transition shared by the stores.
func step(w Window, cfg Config, now time.Time) (Window, bool) {
	if w.Count == 0 || now.Sub(w.Start) >= cfg.Window {
		return Window{Start: now, Count: 1}, true
	}
	if w.Count < cfg.MaxRequests {
		w.Count++
		return w, true
	}
	return w, false
}
