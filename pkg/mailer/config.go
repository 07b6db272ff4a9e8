package mailer

const (
	DefaultFromEmail        = "webmaster@localhost"
	DefaultLogRetentionDays = 30
)

// Config holds the process-wide mail settings.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// DefaultFromEmail is used when neither the caller nor the template names a sender.
	DefaultFromEmail string `env:"MAILTEMPLATES_DEFAULT_FROM_EMAIL" envDefault:"webmaster@localhost"`

	// LogEmails records every send attempt unless the template suppresses it.
	LogEmails bool `env:"MAILTEMPLATES_LOG_EMAILS" envDefault:"true"`

	// LogContent keeps the rendered subject and body in the log entry.
	// Purge logs regularly when this is enabled.
	LogContent bool `env:"MAILTEMPLATES_LOG_CONTENT" envDefault:"false"`

	// LogRetentionDays is the default retention window of the purge job.
	LogRetentionDays int `env:"MAILTEMPLATES_LOG_RETENTION_DAYS" envDefault:"30"`

	// PurgeFailedMessages lets the purge job delete failure entries too.
	// Off by default: failures stay for manual follow-up unless a purge is forced.
	PurgeFailedMessages bool `env:"MAILTEMPLATES_PURGE_FAILED_MESSAGES" envDefault:"false"`

	// AllowHTMLMessages enables the HTML alternative part.
	// When false the HTML template is ignored regardless of its content.
	AllowHTMLMessages bool `env:"MAILTEMPLATES_ALLOW_HTML_MESSAGES" envDefault:"false"`

	// SanitizeHTML passes rendered HTML through the email sanitizer policy.
	SanitizeHTML bool `env:"MAILTEMPLATES_SANITIZE_HTML" envDefault:"false"`

	Admins   []string `env:"MAILTEMPLATES_ADMINS" envSeparator:","`
	Managers []string `env:"MAILTEMPLATES_MANAGERS" envSeparator:","`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		DefaultFromEmail: DefaultFromEmail,
		LogEmails:        true,
		LogRetentionDays: DefaultLogRetentionDays,
	}
}

// ConfigFunc returns the current configuration.
// It is called on every compose and send so that changes take effect
// without rebuilding the mailer.
type ConfigFunc func() Config

// StaticConfig returns a ConfigFunc that always yields cfg.
func StaticConfig(cfg Config) ConfigFunc {
	return func() Config { return cfg }
}
