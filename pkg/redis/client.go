package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrNoURL       = errors.New("redis: no url configured")
	ErrInvalidURL  = errors.New("redis: url must use the redis:// or rediss:// scheme")
	ErrUnreachable = errors.New("redis: server unreachable")
	ErrPingFailed  = errors.New("redis: ping failed")
)

// Open builds a client from cfg and returns it once the server answers a
// PING. Attempt n waits n*RetryInterval before the next one.
func Open(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.RetryAttempts, 1)
	var pingErr error
	for n := 1; n <= attempts; n++ {
		client := redis.NewClient(opts)
		if pingErr = client.Ping(ctx).Err(); pingErr == nil {
			return client, nil
		}
		_ = client.Close()
		if n == attempts {
			break
		}

		timer := time.NewTimer(time.Duration(n) * cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrUnreachable, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("%w after %d attempt(s): %w", ErrUnreachable, attempts, pingErr)
}

func (c Config) options() (*redis.Options, error) {
	switch {
	case c.URL == "":
		return nil, ErrNoURL
	case !strings.HasPrefix(c.URL, "redis://") && !strings.HasPrefix(c.URL, "rediss://"):
		return nil, ErrInvalidURL
	}

	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	setPositive(&opts.PoolSize, c.PoolSize)
	setPositive(&opts.DialTimeout, c.DialTimeout)
	setPositive(&opts.ReadTimeout, c.ReadTimeout)
	setPositive(&opts.WriteTimeout, c.WriteTimeout)
	opts.MinIdleConns = c.MinIdleConns
	opts.ConnMaxIdleTime = c.MaxIdleTime
	return opts, nil
}

func setPositive[T int | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

// Check reports the readiness of the template cache backend.
func Check(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return fmt.Errorf("%w: client not configured", ErrPingFailed)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrPingFailed, err)
		}
		return nil
	}
}

// CloseHook adapts client to the cleanup chain run on exit.
func CloseHook(client io.Closer) func(context.Context) error {
	return func(context.Context) error { return client.Close() }
}
