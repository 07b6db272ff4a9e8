// Package mailer sends email composed from stored, editable templates.
//
// A Template holds Django-style subject and body sources plus default
// sender, CC and BCC. Templates are looked up by name, optionally scoped to
// a related entity (a tenant, a site, an account). A scoped lookup falls
// back to the global template of the same name. Disabled templates are
// invisible to lookup.
//
// # Pipeline
//
//   - Resolver finds the template through a TemplateStore
//   - Composer renders subject, text and HTML with the Renderer and builds an Email
//   - Dispatcher hands the Email to a transport Connection and writes a LogEntry
//
// Mailer wires the three together:
//
//	transport, err := smtp.New(smtpCfg)
//	if err != nil {
//		return err
//	}
//	m := mailer.New(store, store, transport,
//		mailer.WithConfig(mailer.StaticConfig(cfg)),
//		mailer.WithLogger(log),
//	)
//
//	res, err := m.SendMail(ctx, mailer.SendParams{
//		Name:    "welcome",
//		Related: mailer.Related("tenant", "42"),
//		Context: mailer.Context{"user": "Ada"},
//		To:      []string{"ada@example.com"},
//	})
//
// # Rendering
//
// Sources use the pongo2 engine, so {{ var }}, filters, {% if %} and
// {% for %} work as in Django. Templates are self-contained: include,
// extends, import and ssi are disabled. Subjects and text bodies are
// rendered without autoescaping, HTML bodies with it. Markdown content is
// converted to HTML with goldmark when no explicit HTML body exists, and
// AutogenerateText derives the text part from HTML when the text body
// renders blank.
//
// # Logging
//
// With Config.LogEmails set, every attempt is recorded through a LogSink
// before any delivery error is returned. FailSilently swallows delivery
// failures only; lookup, render and log write failures always surface. A
// silenced failure returns a nil *Result and a nil error.
//
// # Transports
//
// Subpackages provide transports: smtp (wneessen/go-mail, one SMTP session
// per opened connection, reused across a bulk send),
// resend (the Resend API, adapted via SenderTransport) and outbox (an
// in-memory recorder for development and tests).
package mailer
