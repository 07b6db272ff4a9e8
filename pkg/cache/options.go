package cache

import "time"

// Option configures a cache backend. Options that do not apply to a backend
// are ignored by it.
type Option func(*options)

type options struct {
	prefix          string
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	maxEntries      int
}

func newOptions(opts []Option) *options {
	o := &options{
		prefix:          "mailtemplates",
		defaultTTL:      5 * time.Minute,
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDefaultTTL sets the expiration used when Set is called with zero TTL.
// Default: 5 minutes.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		o.defaultTTL = d
	}
}

// WithCleanupInterval sets how often the memory backend sweeps expired
// entries. Zero disables the sweeper. Default: 1 minute.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) {
		o.cleanupInterval = d
	}
}

// WithMaxEntries caps the memory backend. Zero means unlimited.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithPrefix namespaces Redis keys as "{prefix}:{key}". Default: "mailtemplates".
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}
