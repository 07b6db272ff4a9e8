package smtp

import (
	"context"
	"errors"
	"fmt"

	mail "github.com/wneessen/go-mail"
	gosmtp "github.com/wneessen/go-mail/smtp"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// ErrInvalidConfig is returned by New for settings go-mail rejects.
var ErrInvalidConfig = errors.New("smtp: invalid configuration")

// Transport implements mailer.Transport over SMTP.
// Every Open dials a separate session, so one Transport may be shared by
// concurrent senders.
type Transport struct {
	client *mail.Client
}

// New creates an SMTP transport. Nothing is dialed until Open.
func New(cfg Config) (*Transport, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.tlsMode())),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.SSL {
		opts = append(opts, mail.WithSSL())
	}
	if cfg.HELO != "" {
		opts = append(opts, mail.WithHELO(cfg.HELO))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &Transport{client: client}, nil
}

func tlsPolicy(mode string) mail.TLSPolicy {
	switch mode {
	case "mandatory", "starttls":
		return mail.TLSMandatory
	case "none", "off":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

// Open dials the server, negotiates TLS and authenticates.
func (t *Transport) Open(ctx context.Context) (mailer.Connection, error) {
	sc, err := t.client.DialToSMTPClientWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("smtp: dial %s: %w", t.client.ServerAddr(), err)
	}
	return &conn{client: t.client, session: sc}, nil
}

// conn is one SMTP session. Messages are sent sequentially; the session is
// reset after every message so it can be reused for the next one.
type conn struct {
	client  *mail.Client
	session *gosmtp.Client
}

func (c *conn) Deliver(ctx context.Context, email *mailer.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := buildMsg(email)
	if err != nil {
		return err
	}
	if err := c.client.SendWithSMTPClient(c.session, msg); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (c *conn) Close() error {
	return c.client.CloseWithSMTPClient(c.session)
}
