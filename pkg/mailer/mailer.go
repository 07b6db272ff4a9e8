package mailer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/mailtemplates/pkg/logger"
)

// Mailer resolves, composes and sends templated messages.
type Mailer struct {
	resolver   *Resolver
	composer   *Composer
	dispatcher *Dispatcher
	transport  Transport
	config     ConfigFunc
	logger     *slog.Logger
}

// New creates a Mailer. sink may be nil to disable logging entirely.
func New(store TemplateStore, sink LogSink, transport Transport, opts ...Option) *Mailer {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.configFunc == nil {
		cfg.configFunc = StaticConfig(DefaultConfig())
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewNope()
	}

	return &Mailer{
		resolver:   NewResolver(store),
		composer:   NewComposer(cfg.renderer, cfg.configFunc),
		dispatcher: NewDispatcher(sink, cfg.configFunc, cfg.logger),
		transport:  transport,
		config:     cfg.configFunc,
		logger:     cfg.logger,
	}
}

// SendParams contains parameters for sending one templated email.
type SendParams struct {
	Related       *RelatedKey // Optional entity scope, falls back to the global template
	Context       Context     // Template data
	Headers       map[string]string
	Tags          Tags
	Name          string // Template name
	From          string // Overrides template sender and configured default
	ReplyTo       string
	SubjectPrefix string
	To            []string
	CC            []string
	BCC           []string
	Attachments   []Attachment
	FailSilently  bool // Swallow delivery failures only
}

func (p SendParams) composeOptions() ComposeOptions {
	return ComposeOptions{
		From:          p.From,
		ReplyTo:       p.ReplyTo,
		To:            p.To,
		CC:            p.CC,
		BCC:           p.BCC,
		Headers:       p.Headers,
		Tags:          p.Tags,
		Attachments:   p.Attachments,
		SubjectPrefix: p.SubjectPrefix,
	}
}

// SendMail resolves the template, composes the message and sends it.
// Resolution and render errors are returned even when FailSilently is set.
func (m *Mailer) SendMail(ctx context.Context, params SendParams) (*Result, error) {
	ctx = logger.WithTemplate(ctx, params.Name, params.Related.String())

	email, err := m.Preview(ctx, params.Name, params.Related, params.Context, params.composeOptions())
	if err != nil {
		return nil, err
	}
	if len(email.Recipients()) == 0 {
		return nil, ErrNoRecipient
	}

	conn := m.open(ctx)
	defer m.close(ctx, conn)

	return m.dispatcher.Send(ctx, conn, email, params.FailSilently)
}

// Preview resolves and composes a message without sending it.
func (m *Mailer) Preview(ctx context.Context, name string, related *RelatedKey, data Context, opts ComposeOptions) (*Email, error) {
	tmpl, err := m.resolver.Resolve(ctx, name, related)
	if err != nil {
		return nil, err
	}
	return m.composer.Compose(tmpl, data, opts)
}

// MailAdmins sends a template to Config.Admins.
func (m *Mailer) MailAdmins(ctx context.Context, name string, related *RelatedKey, data Context, failSilently bool) (*Result, error) {
	return m.mailGroup(ctx, m.config().Admins, name, related, data, failSilently)
}

// MailManagers sends a template to Config.Managers.
func (m *Mailer) MailManagers(ctx context.Context, name string, related *RelatedKey, data Context, failSilently bool) (*Result, error) {
	return m.mailGroup(ctx, m.config().Managers, name, related, data, failSilently)
}

func (m *Mailer) mailGroup(ctx context.Context, to []string, name string, related *RelatedKey, data Context, failSilently bool) (*Result, error) {
	if len(to) == 0 {
		return nil, ErrNoRecipient
	}
	return m.SendMail(ctx, SendParams{
		Name:         name,
		Related:      related,
		Context:      data,
		To:           to,
		FailSilently: failSilently,
	})
}

// open acquires a transport connection. An open failure is returned as a
// connection whose deliveries fail, so it is logged and silenced like any
// other delivery failure.
func (m *Mailer) open(ctx context.Context) Connection {
	conn, err := m.transport.Open(ctx)
	if err != nil {
		return failedConn{err: errors.Join(ErrTransportOpen, err)}
	}
	return conn
}

func (m *Mailer) close(ctx context.Context, conn Connection) {
	if err := conn.Close(); err != nil {
		m.logger.WarnContext(ctx, "failed to close transport connection", slog.Any("error", err))
	}
}

type failedConn struct {
	err error
}

func (c failedConn) Deliver(context.Context, *Email) error { return c.err }
func (failedConn) Close() error                           { return nil }
