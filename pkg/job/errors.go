package job

import "errors"

var (
	ErrUnknownTask    = errors.New("job: unknown task")
	ErrInvalidTask    = errors.New("job: invalid task registration")
	ErrInvalidPayload = errors.New("job: invalid payload")
	ErrAlreadyStarted = errors.New("job: already started")
	ErrNotStarted     = errors.New("job: not started")
	ErrPoolRequired   = errors.New("job: pool is required")
	ErrInvalidCron    = errors.New("job: invalid cron schedule")
)
