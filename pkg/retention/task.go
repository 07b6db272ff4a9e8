package retention

import "context"

const (
	// ScheduledTaskName identifies the periodic purge in the job queue.
	ScheduledTaskName = "mailtemplates:purge_logs"
	// TaskName identifies an on-demand purge.
	TaskName = "mailtemplates:purge_logs_once"

	DefaultSchedule = "0 3 * * *"
)

// ScheduledTask runs the purge with configured defaults on a cron schedule.
// It satisfies job.WithScheduledTask.
type ScheduledTask struct {
	purger   *Purger
	schedule string
}

// NewScheduledTask wraps p. An empty schedule means DefaultSchedule.
func NewScheduledTask(p *Purger, schedule string) *ScheduledTask {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &ScheduledTask{purger: p, schedule: schedule}
}

func (t *ScheduledTask) Name() string     { return ScheduledTaskName }
func (t *ScheduledTask) Schedule() string { return t.schedule }

func (t *ScheduledTask) Handle(ctx context.Context) error {
	_, err := t.purger.Purge(ctx, Options{})
	return err
}

// Task runs a single purge with per-run options. It satisfies job.WithTask.
type Task struct {
	purger *Purger
}

func NewTask(p *Purger) *Task {
	return &Task{purger: p}
}

func (t *Task) Name() string { return TaskName }

func (t *Task) Handle(ctx context.Context, opts Options) error {
	_, err := t.purger.Purge(ctx, opts)
	return err
}
