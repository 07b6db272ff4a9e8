package job

import (
	"errors"
	"log/slog"
)

type periodic struct {
	name     string
	schedule string
}

type config struct {
	tasks      registry
	periodic   []periodic
	logger     *slog.Logger
	maxWorkers int
	errs       []error
}

func newConfig() *config {
	return &config{tasks: registry{}, maxWorkers: defaultMaxWorkers}
}

func (c *config) err() error {
	return errors.Join(c.errs...)
}

// Option configures a Manager.
type Option func(*config)

// WithTask registers an on-demand task. Registering a name twice makes
// NewManager fail.
func WithTask[P any](task Task[P]) Option {
	return func(c *config) {
		if err := c.tasks.add(task.Name(), typed(task)); err != nil {
			c.errs = append(c.errs, err)
		}
	}
}

// WithScheduledTask registers a task fired by its cron schedule.
func WithScheduledTask(task ScheduledTask) Option {
	return func(c *config) {
		if err := c.tasks.add(task.Name(), untyped(task)); err != nil {
			c.errs = append(c.errs, err)
			return
		}
		c.periodic = append(c.periodic, periodic{name: task.Name(), schedule: task.Schedule()})
	}
}

// WithLogger is used for task logs and handed to River. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers bounds the number of jobs run at once.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}
