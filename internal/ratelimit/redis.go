package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// fixedWindowScript runs one window step atomically. The hash holds the
// window start (unix ms) and the count; the key expires with the window.
//
// KEYS[1] window key
// ARGV[1] now (unix ms), ARGV[2] window (ms), ARGV[3] max requests
// returns {start, count, allowed}
var fixedWindowScript = redis.NewScript(`
local cur = redis.call("HMGET", KEYS[1], "start", "count")
local start = tonumber(cur[1])
local count = tonumber(cur[2])
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
if (not start) or (not count) or (now - start >= window) then
  redis.call("HSET", KEYS[1], "start", ARGV[1], "count", 1)
  redis.call("PEXPIRE", KEYS[1], window)
  return {now, 1, 1}
end
if count < max then
  count = redis.call("HINCRBY", KEYS[1], "count", 1)
  return {start, count, 1}
end
return {start, count, 0}
`)

// errBadReply is returned when the script answers with an unexpected shape.
var errBadReply = errors.New("ratelimit: unexpected redis reply")

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// Prefix is prepended to every key. Defaults to "rl:".
	Prefix string
	// Timeout bounds each script call. Defaults to 2s.
	Timeout time.Duration
	// Fallback serves requests while Redis fails. Defaults to a fresh
	// MemoryStore; quotas are then enforced per instance only.
	Fallback Store
	// Logger receives fallback warnings, throttled to one per minute.
	Logger *zerolog.Logger
}

// RedisStore keeps windows in Redis so all instances share them.
type RedisStore struct {
	client   redis.Scripter
	prefix   string
	timeout  time.Duration
	fallback Store
	log      zerolog.Logger
	warn     rate.Sometimes
}

// NewRedisStore returns a Store backed by client.
func NewRedisStore(client redis.Scripter, opts RedisOptions) *RedisStore {
	s := &RedisStore{
		client:   client,
		prefix:   opts.Prefix,
		timeout:  opts.Timeout,
		fallback: opts.Fallback,
		log:      log.Logger,
		warn:     rate.Sometimes{Interval: time.Minute},
	}
	if s.prefix == "" {
		s.prefix = "rl:"
	}
	if s.timeout <= 0 {
		s.timeout = 2 * time.Second
	}
	if s.fallback == nil {
		s.fallback = NewMemoryStore()
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	}
	return s
}

// Take implements Store. Redis failures are served by the fallback store and
// are not returned to the caller.
func (s *RedisStore) Take(ctx context.Context, key string, cfg Config, now time.Time) (Window, bool, error) {
	cfg = cfg.normalized()
	if s.client == nil {
		return s.fallback.Take(ctx, key, cfg, now)
	}

	w, ok, err := s.take(ctx, key, cfg, now)
	if err != nil {
		s.warn.Do(func() {
			s.log.Warn().Err(err).Str("key", key).Msg("redis rate limit unavailable; using in-memory fallback")
		})
		return s.fallback.Take(ctx, key, cfg, now)
	}
	return w, ok, nil
}

func (s *RedisStore) take(ctx context.Context, key string, cfg Config, now time.Time) (Window, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		now.UnixMilli(), cfg.Window.Milliseconds(), cfg.MaxRequests,
	).Int64Slice()
	if err != nil {
		return Window{}, false, fmt.Errorf("ratelimit: run script: %w", err)
	}
	if len(res) != 3 {
		return Window{}, false, errBadReply
	}
	return Window{Start: time.UnixMilli(res[0]), Count: int(res[1])}, res[2] == 1, nil
}
