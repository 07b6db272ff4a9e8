package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNotFound means the key is absent or expired.
	ErrNotFound  = errors.New("cache: miss")
	ErrClosed    = errors.New("cache: use of closed cache")
	ErrMarshal   = errors.New("cache: encode value")
	ErrUnmarshal = errors.New("cache: decode value")
)

// Cache is a key-value cache with per-entry TTL.
//
// TTL semantics for Set:
//   - Positive duration: entry expires after this duration
//   - Zero: use the cache's default TTL
//   - Negative: entry never expires
type Cache[V any] interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error
	Close() error
}

// Marshaler converts values for byte-oriented backends.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

type jsonMarshaler[V any] struct{}

func (jsonMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (jsonMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// Loader fills a cache from a slower source. Concurrent misses for the same
// key share a single call to the source.
type Loader[V any] struct {
	cache Cache[V]
	group singleflight.Group
	ttl   time.Duration
}

// NewLoader wraps c. Loaded values are stored with ttl (see Cache for
// the meaning of zero and negative values).
func NewLoader[V any](c Cache[V], ttl time.Duration) *Loader[V] {
	return &Loader[V]{cache: c, ttl: ttl}
}

// Load returns the cached value for key or calls fn on a miss.
// Errors from fn are returned and nothing is cached. A failing cache write is
// ignored; the loaded value is still returned.
func (l *Loader[V]) Load(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, key, val, l.ttl)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	val, _ := v.(V)
	return val, nil
}

// Forget drops key from the cache.
func (l *Loader[V]) Forget(ctx context.Context, key string) error {
	return l.cache.Delete(ctx, key)
}

// Reset drops every cached entry.
func (l *Loader[V]) Reset(ctx context.Context) error {
	return l.cache.Clear(ctx)
}
