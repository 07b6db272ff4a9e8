// Package redis opens the Redis connection behind the shared template cache.
//
// Open validates the URL, applies pool settings from Config and pings the
// server with retries. Check plugs into pkg/health readiness checks and
// CloseHook into the CLI cleanup chain:
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer redis.CloseHook(client)(ctx)
package redis
