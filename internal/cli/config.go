package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/mailtemplates/pkg/db"
	"github.com/dmitrymomot/mailtemplates/pkg/logger"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/resend"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailtemplates/pkg/redis"
	"github.com/dmitrymomot/mailtemplates/pkg/retention"
)

// ErrConfig is returned when the environment cannot be parsed.
var ErrConfig = errors.New("cli: invalid configuration")

// Config is the whole process configuration, read from the environment.
type Config struct {
	Mail   mailer.Config
	Log    logger.Config
	Sentry logger.SentryConfig
	DB     db.Config
	Redis  redis.Config
	SMTP   smtp.Config
	Resend resend.Config

	// Zero disables the template cache.
	TemplateCacheTTL time.Duration `env:"MAILTEMPLATES_TEMPLATE_CACHE_TTL" envDefault:"5m"`
	PurgeSchedule    string        `env:"MAILTEMPLATES_PURGE_SCHEDULE" envDefault:"0 3 * * *"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxWorkers      int           `env:"WORKER_MAX_WORKERS" envDefault:"10"`
}

// loadConfig reads envFile when it exists, then parses the environment.
// Variables already set in the environment win over the file.
func loadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, errors.Join(ErrConfig, fmt.Errorf("load %s: %w", envFile, err))
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrConfig, err)
	}
	if cfg.PurgeSchedule == "" {
		cfg.PurgeSchedule = retention.DefaultSchedule
	}
	return cfg, nil
}
