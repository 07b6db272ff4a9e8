package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	expiresAt time.Time // zero means never
	storedAt  time.Time
	value     V
}

func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a process-local cache. When full, expired entries are dropped
// first and then the oldest stored entry.
type Memory[V any] struct {
	items  map[string]entry[V]
	opts   *options
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewMemory creates an in-memory cache.
//
//	c := cache.NewMemory[*mailer.Template](cache.WithDefaultTTL(time.Minute))
//	defer c.Close()
func NewMemory[V any](opts ...Option) *Memory[V] {
	m := &Memory[V]{
		items: make(map[string]entry[V]),
		opts:  newOptions(opts),
		done:  make(chan struct{}),
	}
	if m.opts.cleanupInterval > 0 {
		go m.sweep()
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	if m.closed {
		return zero, ErrClosed
	}
	e, ok := m.items[key]
	if !ok {
		return zero, ErrNotFound
	}
	if e.expired(time.Now()) {
		delete(m.items, key)
		return zero, ErrNotFound
	}
	return e.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}

	now := time.Now()
	e := entry[V]{value: value, storedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	if _, exists := m.items[key]; !exists && m.opts.maxEntries > 0 && len(m.items) >= m.opts.maxEntries {
		m.makeRoom(now)
	}
	m.items[key] = e
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	clear(m.items)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the sweeper. It is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// makeRoom must be called with mu held.
func (m *Memory[V]) makeRoom(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range m.items {
		if e.expired(now) {
			delete(m.items, k)
			continue
		}
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	if len(m.items) >= m.opts.maxEntries && oldestKey != "" {
		delete(m.items, oldestKey)
	}
}

func (m *Memory[V]) sweep() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.items {
				if e.expired(now) {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

var _ Cache[any] = (*Memory[any])(nil)
