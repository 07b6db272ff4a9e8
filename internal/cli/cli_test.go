package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailtemplates/pkg/logger"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/outbox"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailtemplates/pkg/store"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/mail")

	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig("")
		require.NoError(t, err)

		assert.Equal(t, mailer.DefaultConfig(), cfg.Mail)
		assert.Equal(t, "0 3 * * *", cfg.PurgeSchedule)
		assert.Equal(t, 5*time.Minute, cfg.TemplateCacheTTL)
		assert.Equal(t, "mailtemplates_migrations", cfg.DB.MigrationsTable)
		assert.False(t, cfg.SMTP.Enabled())
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("env file fills unset variables", func(t *testing.T) {
		t.Setenv("MAILTEMPLATES_LOG_RETENTION_DAYS", "7")

		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte(
			"MAILTEMPLATES_LOG_RETENTION_DAYS=90\nMAILTEMPLATES_ADMINS_FILE_TEST=1\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("MAILTEMPLATES_ADMINS_FILE_TEST") })

		cfg, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Mail.LogRetentionDays, "environment wins over the file")
		assert.Equal(t, "1", os.Getenv("MAILTEMPLATES_ADMINS_FILE_TEST"))
	})

	t.Run("missing env file is fine", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
	})

	t.Run("lists", func(t *testing.T) {
		t.Setenv("MAILTEMPLATES_ADMINS", "a@example.com,b@example.com")

		cfg, err := loadConfig("")
		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.Admins)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("MAILTEMPLATES_LOG_EMAILS", "maybe")

		_, err := loadConfig("")
		require.ErrorIs(t, err, ErrConfig)
	})
}

func TestLoadConfig_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	_, err := loadConfig("")
	require.ErrorIs(t, err, ErrConfig)
}

func TestSelectTransport(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()

	t.Run("smtp first", func(t *testing.T) {
		t.Parallel()

		cfg := Config{SMTP: smtp.Config{Host: "smtp.example.com", Port: 587, TLS: "opportunistic"}}
		cfg.Resend.APIKey = "re_123"
		tr, name, err := selectTransport(cfg, log)
		require.NoError(t, err)
		assert.Equal(t, "smtp", name)
		assert.IsType(t, &smtp.Transport{}, tr)
	})

	t.Run("resend", func(t *testing.T) {
		t.Parallel()

		cfg := Config{}
		cfg.Resend.APIKey = "re_123"
		_, name, err := selectTransport(cfg, log)
		require.NoError(t, err)
		assert.Equal(t, "resend", name)
	})

	t.Run("outbox fallback", func(t *testing.T) {
		t.Parallel()

		tr, name, err := selectTransport(Config{}, log)
		require.NoError(t, err)
		assert.Equal(t, "outbox", name)
		assert.IsType(t, &outbox.Outbox{}, tr)
	})
}

func TestSendOptions_Params(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    sendOptions
		want    mailer.SendParams
		wantErr bool
	}{
		{
			name: "global template",
			opts: sendOptions{template: "welcome", to: []string{"a@example.com"}},
			want: mailer.SendParams{Name: "welcome", To: []string{"a@example.com"}, Context: mailer.Context{}},
		},
		{
			name: "related and context",
			opts: sendOptions{
				template:     "welcome",
				relatedType:  "site",
				relatedID:    "1",
				contextJSON:  `{"user":"Ann","count":2}`,
				failSilently: true,
			},
			want: mailer.SendParams{
				Name:         "welcome",
				Related:      mailer.Related("site", "1"),
				Context:      mailer.Context{"user": "Ann", "count": float64(2)},
				FailSilently: true,
			},
		},
		{name: "half a related key", opts: sendOptions{template: "x", relatedType: "site"}, wantErr: true},
		{name: "context is not an object", opts: sendOptions{template: "x", contextJSON: `[1,2]`}, wantErr: true},
		{name: "context null", opts: sendOptions{template: "x", contextJSON: `null`}, want: mailer.SendParams{Name: "x", Context: mailer.Context{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.opts.params()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFlags)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintEmail(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printEmail(&buf, &mailer.Email{
		Template: mailer.TemplateRef{Name: "welcome"},
		From:     "noreply@example.com",
		To:       []string{"a@example.com", "b@example.com"},
		BCC:      []string{"audit@example.com"},
		Subject:  "Hi",
		Text:     "Hello",
		HTML:     "<p>Hello</p>",
	})

	out := buf.String()
	assert.Contains(t, out, "To: a@example.com, b@example.com\n")
	assert.Contains(t, out, "Bcc: audit@example.com\n")
	assert.NotContains(t, out, "Cc:")
	assert.Contains(t, out, "Subject: Hi\n\nHello\n")
	assert.Contains(t, out, "--- text/html ---\n<p>Hello</p>")
}

func TestRootCmd(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"send", "purge-logs", "import-templates", "list-templates", "worker"})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"send", "--to", "a@example.com"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"template"`)
}

func TestSendMail(t *testing.T) {
	t.Parallel()

	newMailer := func(t *testing.T, deliveryErr error) (*mailer.Mailer, *store.Memory) {
		t.Helper()

		s := store.NewMemory(nil)
		require.NoError(t, s.SaveTemplate(context.Background(), &mailer.Template{
			Name:            "welcome",
			SubjectTemplate: "Hi {{ name }}",
			BodyTemplate:    "Welcome, {{ name }}.",
			Enabled:         true,
		}))
		tr := outbox.New()
		tr.FailWith(deliveryErr)
		return mailer.New(s, s, tr), s
	}
	params := mailer.SendParams{
		Name:    "welcome",
		Context: mailer.Context{"name": "Ann"},
		To:      []string{"ann@example.com"},
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		m, _ := newMailer(t, nil)
		var out bytes.Buffer
		require.NoError(t, sendMail(context.Background(), &out, m, params))
		assert.Equal(t, mailer.StatusSuccess.String()+"\n", out.String())
	})

	t.Run("silenced delivery failure", func(t *testing.T) {
		t.Parallel()

		m, s := newMailer(t, errors.New("refused"))
		p := params
		p.FailSilently = true

		var out bytes.Buffer
		require.NotPanics(t, func() {
			require.NoError(t, sendMail(context.Background(), &out, m, p))
		})
		assert.Equal(t, mailer.StatusFailure.String()+"\n", out.String())

		logs, err := s.ListLogs(context.Background(), store.LogFilter{})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, mailer.StatusFailure, logs[0].Status)
	})

	t.Run("delivery failure", func(t *testing.T) {
		t.Parallel()

		m, _ := newMailer(t, errors.New("refused"))
		var out bytes.Buffer
		require.ErrorIs(t, sendMail(context.Background(), &out, m, params), mailer.ErrDeliveryFailed)
		assert.Empty(t, out.String())
	})
}
