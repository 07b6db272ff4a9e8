package mailer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailtemplates/pkg/logger"
)

// Result describes a send attempt that did not raise.
type Result struct {
	Status Status
	LogID  uuid.UUID // uuid.Nil when the attempt was not logged
}

// Dispatcher performs one delivery attempt and records it.
type Dispatcher struct {
	sink   LogSink
	config ConfigFunc
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. A nil sink disables log entries.
func NewDispatcher(sink LogSink, config ConfigFunc, log *slog.Logger) *Dispatcher {
	if config == nil {
		config = StaticConfig(DefaultConfig())
	}
	if log == nil {
		log = logger.NewNope()
	}
	return &Dispatcher{sink: sink, config: config, logger: log}
}

// Send delivers email over conn exactly once and writes one log entry unless
// logging is disabled or the template suppresses it.
//
// A delivery failure is returned wrapped in ErrDeliveryFailed after the log
// entry is written; with failSilently it is swallowed and Send returns nil, nil.
// A log write failure is always returned as ErrLogWriteFailed.
func (d *Dispatcher) Send(ctx context.Context, conn Connection, email *Email, failSilently bool) (*Result, error) {
	cfg := d.config()

	result := &Result{Status: StatusSuccess}
	deliveryErr := conn.Deliver(ctx, email)
	if deliveryErr != nil {
		result.Status = StatusFailure
	}

	var logErr error
	if cfg.LogEmails && !email.SuppressLog && d.sink != nil {
		var message string
		if deliveryErr != nil {
			message = deliveryErr.Error()
		}
		entry := newLogEntry(email, result.Status, message, cfg.LogContent)
		if err := d.sink.InsertLog(ctx, entry); err != nil {
			logErr = errors.Join(ErrLogWriteFailed, err)
			d.logger.ErrorContext(ctx, "failed to write email log",
				slog.String("template", email.Template.Name),
				slog.Any("error", err),
			)
		} else {
			result.LogID = entry.ID
		}
	}

	if deliveryErr != nil {
		d.logger.WarnContext(ctx, "email delivery failed",
			slog.String("template", email.Template.Name),
			slog.Int("recipients", len(email.Recipients())),
			slog.Bool("fail_silently", failSilently),
			slog.Any("error", deliveryErr),
		)
		if failSilently {
			if logErr != nil {
				return nil, logErr
			}
			return nil, nil
		}
		return nil, errors.Join(ErrDeliveryFailed, deliveryErr, logErr)
	}

	if logErr != nil {
		return nil, logErr
	}

	d.logger.InfoContext(ctx, "email sent",
		slog.String("template", email.Template.Name),
		slog.Int("recipients", len(email.Recipients())),
	)
	return result, nil
}
