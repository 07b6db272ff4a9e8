package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// Memory keeps templates and logs in process memory.
// Returned templates are copies; callers may modify them freely.
type Memory struct {
	renderer  *mailer.Renderer
	templates map[uuid.UUID]*mailer.Template
	logs      []*mailer.LogEntry
	mu        sync.RWMutex
}

// NewMemory creates an empty store. A nil renderer gets a fresh one.
func NewMemory(renderer *mailer.Renderer) *Memory {
	if renderer == nil {
		renderer = mailer.NewRenderer()
	}
	return &Memory{
		renderer:  renderer,
		templates: make(map[uuid.UUID]*mailer.Template),
	}
}

func (m *Memory) FindTemplate(_ context.Context, name string, related *mailer.RelatedKey) (*mailer.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if t := m.findLocked(name, related); t != nil {
		return cloneTemplate(t), nil
	}
	return nil, mailer.ErrTemplateNotFound
}

func (m *Memory) findLocked(name string, related *mailer.RelatedKey) *mailer.Template {
	for _, t := range m.templates {
		if t.Name == name && t.Related.Equal(related) {
			return t
		}
	}
	return nil
}

func (m *Memory) SaveTemplate(_ context.Context, tmpl *mailer.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(tmpl)
}

func (m *Memory) saveLocked(tmpl *mailer.Template) error {
	if err := prepareTemplate(m.renderer, tmpl, time.Now()); err != nil {
		return err
	}
	if existing := m.findLocked(tmpl.Name, tmpl.Related); existing != nil && existing.ID != tmpl.ID {
		return ErrDuplicateTemplate
	}
	m.templates[tmpl.ID] = cloneTemplate(tmpl)
	return nil
}

func (m *Memory) ImportTemplates(_ context.Context, templates []*mailer.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Work on a copy so a failing template leaves the store untouched.
	backup := make(map[uuid.UUID]*mailer.Template, len(m.templates))
	for id, t := range m.templates {
		backup[id] = t
	}
	for _, tmpl := range templates {
		if existing := m.findLocked(tmpl.Name, tmpl.Related); existing != nil {
			tmpl.ID = existing.ID
		}
		if err := m.saveLocked(tmpl); err != nil {
			m.templates = backup
			return err
		}
	}
	return nil
}

func (m *Memory) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[id]; !ok {
		return mailer.ErrTemplateNotFound
	}
	delete(m.templates, id)
	return nil
}

// ListTemplates returns templates ordered by name, then related key.
func (m *Memory) ListTemplates(context.Context) ([]*mailer.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*mailer.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, cloneTemplate(t))
	}
	slices.SortFunc(out, func(a, b *mailer.Template) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Related.String(), b.Related.String()))
	})
	return out, nil
}

func (m *Memory) InsertLog(_ context.Context, entry *mailer.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	e := *entry
	m.logs = append(m.logs, &e)
	return nil
}

// ListLogs returns matching entries, newest first.
func (m *Memory) ListLogs(_ context.Context, filter LogFilter) ([]*mailer.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*mailer.LogEntry, 0)
	for _, e := range m.logs {
		if filter.TemplateName != "" && e.TemplateName != filter.TemplateName {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	slices.SortStableFunc(out, func(a, b *mailer.LogEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > filter.limit() {
		out = out[:filter.limit()]
	}
	return out, nil
}

func (m *Memory) DeleteLogs(_ context.Context, before time.Time, keepFailures bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.logs[:0]
	var deleted int64
	for _, e := range m.logs {
		if e.CreatedAt.Before(before) && !(keepFailures && e.Status == mailer.StatusFailure) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	clear(m.logs[len(kept):])
	m.logs = kept
	return deleted, nil
}

var _ Store = (*Memory)(nil)
