// Package job runs background tasks on River, a Postgres-backed queue.
//
// The worker process uses it for periodic maintenance such as the log
// retention purge, and the CLI uses it to hand one-off tasks to a running
// worker.
//
// Tasks are plain structs satisfying Task[P] or ScheduledTask:
//
//	type Purge struct{ purger *retention.Purger }
//
//	func (t *Purge) Name() string     { return "mailtemplates:purge_logs" }
//	func (t *Purge) Schedule() string { return "0 3 * * *" }
//	func (t *Purge) Handle(ctx context.Context) error { ... }
//
//	manager, err := job.NewManager(pool,
//	    job.WithScheduledTask(purgeTask),
//	    job.WithTask[retention.Options](onDemandTask),
//	    job.WithLogger(log),
//	)
//
// Every task shares one River job kind; the registered name travels in the
// job arguments with the JSON payload. Manager.Ping doubles as the readiness
// check of the worker.
//
// Schedules are five-field cron expressions parsed by robfig/cron.
//
// River's tables are not created here; apply its migrations with the river
// CLI (river migrate-up) before starting a manager.
package job
