package ratelimit

import (
	"context"
	"sync"
	"time"
)

// entry is one key's window. Each entry has its own lock so clients never
// contend with each other; dead marks an entry removed by Sweep.
type entry struct {
	mu   sync.Mutex
	w    Window
	dead bool
}

// MemoryStore is a process-local Store. The zero value is not usable; call
// NewMemoryStore.
type MemoryStore struct {
	entries sync.Map // string -> *entry
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Take implements Store. It never returns an error.
func (s *MemoryStore) Take(_ context.Context, key string, cfg Config, now time.Time) (Window, bool, error) {
	cfg = cfg.normalized()
	for {
		v, ok := s.entries.Load(key)
		if !ok {
			v, _ = s.entries.LoadOrStore(key, &entry{})
		}
		e := v.(*entry)

		e.mu.Lock()
		if e.dead {
			// Lost a race with Sweep; the key has been removed, retry.
			e.mu.Unlock()
			continue
		}
		w, allowed := step(e.w, cfg, now)
		e.w = w
		e.mu.Unlock()
		return w, allowed, nil
	}
}

// Peek returns the stored window for key, if any.
func (s *MemoryStore) Peek(key string) (Window, bool) {
	v, ok := s.entries.Load(key)
	if !ok {
		return Window{}, false
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return Window{}, false
	}
	return e.w, true
}

// Sweep removes windows that started at least idle before now and returns how
// many were removed. idle should be at least the longest quota window, or
// live windows are forgotten early.
func (s *MemoryStore) Sweep(now time.Time, idle time.Duration) int {
	n := 0
	s.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		if !e.dead && now.Sub(e.w.Start) >= idle {
			e.dead = true
			s.entries.Delete(k)
			n++
		}
		e.mu.Unlock()
		return true
	})
	return n
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool { n++; return true })
	return n
}

// RunJanitor sweeps the store every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Sweep(now, idle)
		}
	}
}
