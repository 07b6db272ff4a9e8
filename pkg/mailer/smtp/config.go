package smtp

import (
	"strings"
	"time"
)

// Config holds SMTP server settings.
type Config struct {
	Host     string        `env:"SMTP_HOST"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	TLS      string        `env:"SMTP_TLS" envDefault:"opportunistic"` // mandatory, opportunistic or none
	HELO     string        `env:"SMTP_HELO"`
	Port     int           `env:"SMTP_PORT" envDefault:"587"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"15s"`
	SSL      bool          `env:"SMTP_SSL" envDefault:"false"` // Implicit TLS, usually port 465
}

// Enabled reports whether a server is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

func (c Config) tlsMode() string {
	return strings.ToLower(strings.TrimSpace(c.TLS))
}
