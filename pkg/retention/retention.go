// Package retention deletes old send logs.
//
// Entries older than the retention window are removed. Failure entries are
// kept when Config.PurgeFailedMessages is off, unless the run is forced, so
// failed sends stay available for manual follow-up.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailtemplates/pkg/logger"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// ErrInvalidRetention is returned for a negative retention window.
var ErrInvalidRetention = errors.New("retention: retention days must not be negative")

// LogDeleter removes log entries created before the cutoff.
// With keepFailures set, failure entries are left in place.
type LogDeleter interface {
	DeleteLogs(ctx context.Context, before time.Time, keepFailures bool) (int64, error)
}

// Options tune a single purge run.
type Options struct {
	// RetentionDays overrides Config.LogRetentionDays when set.
	RetentionDays *int `json:"retention_days,omitempty"`
	// Force deletes failure entries regardless of Config.PurgeFailedMessages.
	Force bool `json:"force,omitempty"`
}

// Days is a helper for Options.RetentionDays.
func Days(n int) *int { return &n }

// Result describes what a purge run did.
type Result struct {
	Before       time.Time
	Deleted      int64
	KeepFailures bool
}

// Purger runs retention passes over a LogDeleter.
type Purger struct {
	deleter LogDeleter
	config  mailer.ConfigFunc
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Purger.
type Option func(*Purger)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Purger) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Purger) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPurger creates a purger. A nil config means mailer.DefaultConfig.
func NewPurger(deleter LogDeleter, config mailer.ConfigFunc, opts ...Option) *Purger {
	if config == nil {
		config = mailer.StaticConfig(mailer.DefaultConfig())
	}
	p := &Purger{
		deleter: deleter,
		config:  config,
		logger:  logger.NewNope(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Purge deletes every entry older than the retention window.
func (p *Purger) Purge(ctx context.Context, opts Options) (Result, error) {
	cfg := p.config()

	days := cfg.LogRetentionDays
	if opts.RetentionDays != nil {
		days = *opts.RetentionDays
	}
	if days < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidRetention, days)
	}

	res := Result{
		Before:       p.now().UTC().AddDate(0, 0, -days),
		KeepFailures: !cfg.PurgeFailedMessages && !opts.Force,
	}

	log := p.logger.With(
		slog.Time("before", res.Before),
		slog.Bool("keep_failures", res.KeepFailures),
	)
	log.DebugContext(ctx, "purging mail logs")

	deleted, err := p.deleter.DeleteLogs(ctx, res.Before, res.KeepFailures)
	if err != nil {
		log.ErrorContext(ctx, "mail log purge failed", slog.String("error", err.Error()))
		return res, fmt.Errorf("retention: purge: %w", err)
	}
	res.Deleted = deleted

	log.InfoContext(ctx, "mail logs purged", slog.Int64("deleted", deleted))
	return res, nil
}
