// Package cache keeps computed values in memory for a limited time.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned for missing or expired keys.
var ErrNotFound = errors.New("cache entry not found")

// DynamicValue is stored in place of a value and called again every time
// the entry expires.
type DynamicValue func(ctx context.Context) (any, error)

type entry struct {
	expiresAt time.Time
	v         any
	fn        DynamicValue
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Memory is a TTL cache safe for concurrent use. Concurrent GetOrSet calls
// on a missing key share a single computation.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	inflight   singleflight.Group
}

// NewMemory returns a cache whose expired entries are evicted until ctx is
// done.
func NewMemory(ctx context.Context, defaultTTL time.Duration) *Memory {
	m := &Memory{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}

	go m.evict(ctx)

	return m
}

func (m *Memory) ttl(ttl []time.Duration) time.Duration {
	if len(ttl) > 0 {
		return ttl[0]
	}
	return m.defaultTTL
}

// Set stores v under k. A DynamicValue is computed on the first Get.
func (m *Memory) Set(ctx context.Context, k string, v any, ttl ...time.Duration) error {
	e := entry{v: v, ttl: m.ttl(ttl)}
	if fn, ok := v.(DynamicValue); ok {
		e = entry{fn: fn, ttl: e.ttl}
	} else {
		e.expiresAt = time.Now().Add(e.ttl)
	}

	m.mu.Lock()
	m.entries[k] = e
	m.mu.Unlock()

	slog.Debug("new cache entry", "key", k, "dynamic", e.fn != nil)
	return nil
}

func (m *Memory) Get(ctx context.Context, k string) (any, error) {
	m.mu.Lock()
	e, found := m.entries[k]
	if found && e.expired(time.Now()) && e.fn == nil {
		delete(m.entries, k)
		found = false
		slog.Debug("cache expired", "key", k)
	}
	m.mu.Unlock()

	if !found {
		return nil, ErrNotFound
	}
	if e.fn == nil || !e.expired(time.Now()) {
		return e.v, nil
	}

	v, err, _ := m.inflight.Do(k, func() (any, error) {
		v, err := e.fn(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.entries[k] = entry{v: v, fn: e.fn, ttl: e.ttl, expiresAt: time.Now().Add(e.ttl)}
		m.mu.Unlock()
		slog.Debug("dynamic entry refreshed", "key", k)
		return v, nil
	})
	return v, err
}

// GetOrSet returns the value of key, computing and storing it with
// valueFunc when it is missing. Errors are not cached.
func (m *Memory) GetOrSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (any, error), ttl ...time.Duration) (any, error) {
	v, err := m.Get(ctx, key)
	if !errors.Is(err, ErrNotFound) {
		return v, err
	}

	v, err, shared := m.inflight.Do(key, func() (any, error) {
		// a previous flight may have stored it since the first lookup
		m.mu.Lock()
		e, found := m.entries[key]
		m.mu.Unlock()
		if found && e.fn == nil && !e.expired(time.Now()) {
			return e.v, nil
		}
		v, err := valueFunc(ctx)
		if err != nil {
			return nil, err
		}
		return v, m.Set(ctx, key, v, ttl...)
	})
	if shared {
		slog.Debug("cache computation shared", "key", key)
	}
	return v, err
}

// Delete removes every key for which match returns true.
func (m *Memory) Delete(match func(key string) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if match(k) {
			delete(m.entries, k)
		}
	}
}

// evict drops expired static entries every second. Dynamic entries are
// refreshed lazily by Get.
func (m *Memory) evict(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Delete(func(k string) bool {
				e := m.entries[k]
				return e.fn == nil && e.expired(now)
			})
		}
	}
}
