package cli

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/mailtemplates/internal/server"
	"github.com/dmitrymomot/mailtemplates/pkg/db"
	"github.com/dmitrymomot/mailtemplates/pkg/health"
	"github.com/dmitrymomot/mailtemplates/pkg/job"
	"github.com/dmitrymomot/mailtemplates/pkg/logger"
	"github.com/dmitrymomot/mailtemplates/pkg/redis"
	"github.com/dmitrymomot/mailtemplates/pkg/retention"
)

func newWorkerCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run scheduled maintenance and serve health endpoints until interrupted",
		Long: `Run scheduled maintenance and serve health endpoints until interrupted.

The log purge runs on MAILTEMPLATES_PURGE_SCHEDULE. River's tables must exist;
apply them with "river migrate-up" first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd, root, runWorker)
		},
	}
}

func runWorker(ctx context.Context, d *deps) error {
	ctx = logger.WithComponent(ctx, "worker")
	purger := d.purger()

	m, err := job.NewManager(d.pool,
		job.WithScheduledTask(retention.NewScheduledTask(purger, d.cfg.PurgeSchedule)),
		job.WithTask[retention.Options](retention.NewTask(purger)),
		job.WithLogger(d.logger.With(slog.String("component", "jobs"))),
		job.WithMaxWorkers(d.cfg.MaxWorkers),
	)
	if err != nil {
		return err
	}

	return server.Run(ctx, server.Config{
		Handler:         workerRouter(d, m),
		Logger:          d.logger,
		Address:         d.cfg.HTTPAddr,
		ShutdownTimeout: d.cfg.ShutdownTimeout,
		StartupHooks:    []server.Hook{m.Start},
		ShutdownHooks:   []server.Hook{m.Stop},
	})
}

func workerRouter(d *deps, m *job.Manager) chi.Router {
	checks := health.Checks{
		"postgres": db.Check(d.pool),
		"jobs":     m.Ping,
	}
	if d.redis != nil {
		checks["redis"] = redis.Check(d.redis)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Mount("/health", health.Router(checks, health.WithLogger(d.logger)))
	return r
}
