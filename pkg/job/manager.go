package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/mailtemplates/pkg/logger"
)

const (
	defaultMaxWorkers = 10
	jobKind           = "mailtemplates:task"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Manager owns a River client serving every registered task. Enqueue works
// without Start; the jobs wait in Postgres until some manager runs them.
type Manager struct {
	pool    *pgxpool.Pool
	client  *river.Client[pgx.Tx]
	tasks   registry
	logger  *slog.Logger
	running atomic.Bool
}

// NewManager validates the registrations and builds the River client.
// Duplicate task names and bad cron expressions fail here rather than at
// run time.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.err(); err != nil {
		return nil, err
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewNope()
	}

	periodicJobs, err := buildPeriodicJobs(cfg.periodic)
	if err != nil {
		return nil, err
	}

	m := &Manager{pool: pool, tasks: cfg.tasks, logger: cfg.logger}

	workers := river.NewWorkers()
	river.AddWorker(workers, &dispatchWorker{manager: m})

	m.client, err = river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: cfg.maxWorkers}},
		Workers:      workers,
		PeriodicJobs: periodicJobs,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: river client: %w", err)
	}
	return m, nil
}

func buildPeriodicJobs(specs []periodic) ([]*river.PeriodicJob, error) {
	jobs := make([]*river.PeriodicJob, 0, len(specs))
	for _, p := range specs {
		schedule, err := parseCronSchedule(p.schedule)
		if err != nil {
			return nil, fmt.Errorf("%w %q for %s: %w", ErrInvalidCron, p.schedule, p.name, err)
		}
		args := &jobArgs{Task: p.name}
		jobs = append(jobs, river.NewPeriodicJob(schedule,
			func() (river.JobArgs, *river.InsertOpts) { return args, nil },
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	return jobs, nil
}

// Start begins fetching jobs. It matches server.Hook.
func (m *Manager) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		m.running.Store(false)
		return fmt.Errorf("job: start: %w", err)
	}
	m.logger.InfoContext(ctx, "job manager started", slog.Any("tasks", m.tasks.names()))
	return nil
}

// Stop lets running jobs finish until ctx expires. It matches server.Hook.
func (m *Manager) Stop(ctx context.Context) error {
	if !m.running.CompareAndSwap(true, false) {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop: %w", err)
	}
	m.logger.InfoContext(ctx, "job manager stopped")
	return nil
}

// Started reports whether the manager is fetching jobs.
func (m *Manager) Started() bool {
	return m.running.Load()
}

// Ping fails unless the manager runs and its pool answers.
func (m *Manager) Ping(ctx context.Context) error {
	if !m.Started() {
		return fmt.Errorf("job: ping: %w", ErrNotStarted)
	}
	if err := m.pool.Ping(ctx); err != nil {
		return fmt.Errorf("job: ping: %w", err)
	}
	return nil
}

// Enqueue inserts a job for the named task. payload is JSON-encoded; nil
// means no payload.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	if _, ok := m.tasks[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	args, insertOpts, err := newJob(name, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := m.client.Insert(ctx, args, insertOpts); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

func newJob(name string, payload any, opts ...EnqueueOption) (*jobArgs, *river.InsertOpts, error) {
	args := &jobArgs{Task: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, errors.Join(ErrInvalidPayload, err)
		}
		args.Payload = raw
	}

	insertOpts := &river.InsertOpts{}
	for _, opt := range opts {
		opt(insertOpts)
	}
	return args, insertOpts, nil
}

// jobArgs is stored by River for every task; Task selects the runner.
type jobArgs struct {
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (jobArgs) Kind() string { return jobKind }

type dispatchWorker struct {
	river.WorkerDefaults[jobArgs]
	manager *Manager
}

func (w *dispatchWorker) Work(ctx context.Context, j *river.Job[jobArgs]) error {
	run, ok := w.manager.tasks[j.Args.Task]
	if !ok {
		// Cancelled rather than retried: no later attempt can find a runner.
		return river.JobCancel(fmt.Errorf("%w: %s", ErrUnknownTask, j.Args.Task))
	}

	start := time.Now()
	log := w.manager.logger.With(
		slog.String("task", j.Args.Task),
		slog.Int64("job_id", j.ID),
		slog.Int("attempt", j.Attempt),
	)
	if err := run(ctx, j.Args.Payload); err != nil {
		log.ErrorContext(ctx, "task failed", slog.Any("error", err), slog.Duration("took", time.Since(start)))
		return err
	}
	log.DebugContext(ctx, "task done", slog.Duration("took", time.Since(start)))
	return nil
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	// cron.Schedule already has river's Next(time.Time) time.Time.
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return schedule, nil
}
