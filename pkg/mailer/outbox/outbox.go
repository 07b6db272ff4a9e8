// Package outbox provides an in-memory mailer.Transport.
//
// Messages are recorded instead of delivered, and optionally written to a
// logger, which makes it the default transport for local development and
// the transport of choice in tests.
package outbox

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// Outbox records every delivered message.
type Outbox struct {
	err    error
	logger *slog.Logger
	sent   []*mailer.Email
	mu     sync.Mutex
	opened int
}

// Option configures an Outbox.
type Option func(*Outbox)

// WithLogger writes a line for every recorded message.
func WithLogger(l *slog.Logger) Option {
	return func(o *Outbox) {
		o.logger = l
	}
}

// New creates an empty outbox.
func New(opts ...Option) *Outbox {
	o := &Outbox{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open implements mailer.Transport.
func (o *Outbox) Open(context.Context) (mailer.Connection, error) {
	o.mu.Lock()
	o.opened++
	o.mu.Unlock()
	return conn{o}, nil
}

// FailWith makes every following delivery fail with err. Pass nil to recover.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Sent returns the recorded messages in delivery order.
func (o *Outbox) Sent() []*mailer.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.sent)
}

// Opened returns how many connections were opened.
func (o *Outbox) Opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened
}

// Reset drops recorded messages and counters.
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = nil
	o.opened = 0
}

type conn struct {
	o *Outbox
}

func (c conn) Deliver(ctx context.Context, email *mailer.Email) error {
	c.o.mu.Lock()
	err := c.o.err
	if err == nil {
		c.o.sent = append(c.o.sent, email)
	}
	log := c.o.logger
	c.o.mu.Unlock()

	if err != nil {
		return err
	}
	if log != nil {
		log.InfoContext(ctx, "outbox: message recorded",
			slog.String("from", email.From),
			slog.Any("to", email.To),
			slog.String("subject", email.Subject),
			slog.Bool("html", email.HTML != ""),
		)
	}
	return nil
}

func (conn) Close() error { return nil }
