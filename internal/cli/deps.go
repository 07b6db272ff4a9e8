package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mailtemplates/pkg/cache"
	"github.com/dmitrymomot/mailtemplates/pkg/db"
	"github.com/dmitrymomot/mailtemplates/pkg/logger"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/outbox"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/resend"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailtemplates/pkg/redis"
	"github.com/dmitrymomot/mailtemplates/pkg/retention"
	"github.com/dmitrymomot/mailtemplates/pkg/store"
)

// deps holds the services shared by the commands.
type deps struct {
	cfg      Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	redis    goredis.UniversalClient
	store    store.Store
	renderer *mailer.Renderer
	closers  []func(context.Context) error
}

func newLogger(cfg Config, verbose bool) *slog.Logger {
	if verbose {
		cfg.Log.Level = "debug"
	}
	return logger.NewWithSentry(cfg.Log, cfg.Sentry, logger.DefaultExtractors()...)
}

// connect opens Postgres (and Redis when configured) and builds the store.
// Call close when done, even after an error.
func connect(ctx context.Context, cfg Config, log *slog.Logger) (*deps, error) {
	d := &deps{cfg: cfg, logger: log, renderer: mailer.NewRenderer()}

	pool, err := db.Connect(ctx, cfg.DB, log)
	if err != nil {
		return d, err
	}
	d.pool = pool
	d.closers = append(d.closers, db.CloseHook(pool))

	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, pool, store.Migrations, store.MigrationsDir, cfg.DB.MigrationsTable, log); err != nil {
			return d, err
		}
	}

	var s store.Store = store.NewPostgres(pool, d.renderer)
	if cfg.TemplateCacheTTL > 0 {
		c, err := d.templateCache(ctx)
		if err != nil {
			return d, err
		}
		s = store.NewCached(s, c, cfg.TemplateCacheTTL, log)
	}
	d.store = s
	return d, nil
}

// templateCache is Redis-backed when REDIS_URL is set so that every worker
// and CLI process sees the same entries; otherwise it is process-local.
func (d *deps) templateCache(ctx context.Context) (cache.Cache[store.CacheEntry], error) {
	if !d.cfg.Redis.Enabled() {
		c := cache.NewMemory[store.CacheEntry](cache.WithDefaultTTL(d.cfg.TemplateCacheTTL))
		d.closers = append(d.closers, func(context.Context) error { return c.Close() })
		return c, nil
	}

	client, err := redis.Open(ctx, d.cfg.Redis)
	if err != nil {
		return nil, err
	}
	d.redis = client
	d.closers = append(d.closers, redis.CloseHook(client))
	return cache.NewRedis[store.CacheEntry](client, nil, cache.WithDefaultTTL(d.cfg.TemplateCacheTTL)), nil
}

// close releases resources in reverse order of acquisition.
func (d *deps) close(ctx context.Context) error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func (d *deps) purger() *retention.Purger {
	return retention.NewPurger(d.store, mailer.StaticConfig(d.cfg.Mail),
		retention.WithLogger(d.logger.With(slog.String("component", "retention"))))
}

func (d *deps) mailer() (*mailer.Mailer, error) {
	transport, name, err := selectTransport(d.cfg, d.logger)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("mail transport selected", slog.String("transport", name))

	return mailer.New(d.store, d.store, transport,
		mailer.WithConfig(mailer.StaticConfig(d.cfg.Mail)),
		mailer.WithLogger(d.logger),
		mailer.WithRenderer(d.renderer),
	), nil
}

// selectTransport prefers SMTP, then Resend, then the logging outbox.
func selectTransport(cfg Config, log *slog.Logger) (mailer.Transport, string, error) {
	switch {
	case cfg.SMTP.Enabled():
		t, err := smtp.New(cfg.SMTP)
		if err != nil {
			return nil, "", fmt.Errorf("cli: smtp transport: %w", err)
		}
		return t, "smtp", nil
	case cfg.Resend.Enabled():
		return mailer.SenderTransport(resend.New(cfg.Resend)), "resend", nil
	default:
		return outbox.New(outbox.WithLogger(log)), "outbox", nil
	}
}
