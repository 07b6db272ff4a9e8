package job

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// runner executes one job attempt with the raw JSON payload stored by River.
type runner func(ctx context.Context, payload json.RawMessage) error

// Task handles jobs whose payload decodes into P.
type Task[P any] interface {
	Name() string
	Handle(ctx context.Context, payload P) error
}

// ScheduledTask runs without a payload on a five-field cron schedule
// (minute hour day-of-month month day-of-week).
type ScheduledTask interface {
	Name() string
	Schedule() string
	Handle(ctx context.Context) error
}

// typed adapts a Task to a runner. An empty payload leaves P zero.
func typed[P any](task Task[P]) runner {
	return func(ctx context.Context, raw json.RawMessage) error {
		var payload P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("%w for %s: %w", ErrInvalidPayload, task.Name(), err)
			}
		}
		return task.Handle(ctx, payload)
	}
}

// untyped adapts a ScheduledTask; whatever payload the job carries is ignored.
func untyped(task ScheduledTask) runner {
	return func(ctx context.Context, _ json.RawMessage) error {
		return task.Handle(ctx)
	}
}

// registry is filled while options are applied and is read-only once the
// manager exists, so lookups need no locking.
type registry map[string]runner

func (r registry) add(name string, run runner) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTask)
	}
	if _, dup := r[name]; dup {
		return fmt.Errorf("%w: %s registered twice", ErrInvalidTask, name)
	}
	r[name] = run
	return nil
}

func (r registry) names() []string {
	return slices.Sorted(maps.Keys(r))
}
