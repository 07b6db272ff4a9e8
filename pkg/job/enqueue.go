package job

import (
	"time"

	"github.com/riverqueue/river"
)

// EnqueueOption adjusts how one job is inserted.
type EnqueueOption func(*river.InsertOpts)

// ScheduledIn makes the job available after d. Zero or negative means now.
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(o *river.InsertOpts) {
		if d > 0 {
			o.ScheduledAt = time.Now().Add(d)
		}
	}
}

// MaxAttempts caps retries; River's default applies when n <= 0.
func MaxAttempts(n int) EnqueueOption {
	return func(o *river.InsertOpts) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// UniqueFor skips the insert when a job for the same task and payload was
// inserted less than d ago.
func UniqueFor(d time.Duration) EnqueueOption {
	return func(o *river.InsertOpts) {
		if d > 0 {
			o.UniqueOpts = river.UniqueOpts{ByArgs: true, ByPeriod: d}
		}
	}
}
