package mailer

import "log/slog"

// config holds Mailer construction settings.
type config struct {
	configFunc ConfigFunc
	logger     *slog.Logger
	renderer   *Renderer
}

// Option configures a Mailer.
type Option func(*config)

// WithConfig sets the configuration source. It is evaluated on every call.
//
// Example:
//
//	mailer.WithConfig(mailer.StaticConfig(cfg))
func WithConfig(fn ConfigFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.configFunc = fn
		}
	}
}

// WithLogger sets the logger for send attempts.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRenderer shares a renderer (and its compiled template cache).
func WithRenderer(r *Renderer) Option {
	return func(c *config) {
		if r != nil {
			c.renderer = r
		}
	}
}
