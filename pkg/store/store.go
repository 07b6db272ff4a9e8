// Package store persists templates and send logs.
//
// Three implementations share the Store interface: Postgres for production,
// Memory for tests and single-process tools (seeded from YAML fixtures), and
// Cached, which puts a pkg/cache layer in front of any other Store's lookups.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// ErrDuplicateTemplate is returned when a template with the same name and
// related key already exists under a different ID.
var ErrDuplicateTemplate = errors.New("store: template with this name and related object already exists")

// Store is the full persistence surface used by the CLI and the worker.
type Store interface {
	mailer.TemplateStore
	mailer.LogSink

	// SaveTemplate validates and inserts or updates tmpl. A nil ID is
	// assigned; EditedAt is always set to the current time.
	SaveTemplate(ctx context.Context, tmpl *mailer.Template) error
	// ImportTemplates saves templates matched by name and related key,
	// keeping the IDs of existing rows. It is all or nothing.
	ImportTemplates(ctx context.Context, templates []*mailer.Template) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	ListTemplates(ctx context.Context) ([]*mailer.Template, error)

	ListLogs(ctx context.Context, filter LogFilter) ([]*mailer.LogEntry, error)
	// DeleteLogs removes entries created before the cutoff. With keepFailures
	// set, failure entries survive.
	DeleteLogs(ctx context.Context, before time.Time, keepFailures bool) (int64, error)
}

// LogFilter narrows ListLogs. Zero values match everything.
type LogFilter struct {
	TemplateName string
	Status       mailer.Status
	Limit        int // Default 100
}

const defaultLogLimit = 100

func (f LogFilter) limit() int {
	if f.Limit <= 0 {
		return defaultLogLimit
	}
	return f.Limit
}

func relatedColumns(k *mailer.RelatedKey) (string, string) {
	if k == nil {
		return "", ""
	}
	return k.Type, k.ID
}

func relatedKey(typ, id string) *mailer.RelatedKey {
	if typ == "" && id == "" {
		return nil
	}
	return mailer.Related(typ, id)
}

func cloneTemplate(t *mailer.Template) *mailer.Template {
	c := *t
	if t.Related != nil {
		k := *t.Related
		c.Related = &k
	}
	c.BaseCC = append([]string(nil), t.BaseCC...)
	c.BaseBCC = append([]string(nil), t.BaseBCC...)
	return &c
}

func prepareTemplate(r *mailer.Renderer, tmpl *mailer.Template, now time.Time) error {
	if tmpl.ContentType == "" {
		tmpl.ContentType = mailer.ContentText
	}
	if err := r.ValidateTemplate(tmpl); err != nil {
		return err
	}
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	tmpl.EditedAt = now.UTC()
	return nil
}
