// Package logger builds the slog loggers used by the mail pipeline.
//
// Every logger is a JSON (or text) stdout handler wrapped by
// NewContextHandler, which runs ContextExtractors on each record. The
// mailer scopes its context with WithTemplate so every line about a send
// carries the template name and related key without threading them
// through call sites:
//
//	log := logger.New(cfg, logger.DefaultExtractors()...)
//	ctx = logger.WithTemplate(ctx, "welcome", "tenant:42")
//	log.InfoContext(ctx, "email sent")
//	// {"level":"INFO","msg":"email sent","template":{"name":"welcome","related":"tenant:42"}}
//
// NewWithSentry additionally forwards warnings and errors to Sentry when a
// DSN is configured, and silently falls back to stdout otherwise.
//
// NewNope returns a logger that discards everything; packages use it as
// their default.
package logger
