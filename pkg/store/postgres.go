package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mailtemplates/pkg/db"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores templates and logs in the tables created by Migrations.
type Postgres struct {
	pool     *pgxpool.Pool
	renderer *mailer.Renderer
}

// NewPostgres wraps an open pool. A nil renderer gets a fresh one.
func NewPostgres(pool *pgxpool.Pool, renderer *mailer.Renderer) *Postgres {
	if renderer == nil {
		renderer = mailer.NewRenderer()
	}
	return &Postgres{pool: pool, renderer: renderer}
}

const templateColumns = `id, name, description, subject_template, body_template, body_template_html,
	content_type, autogenerate_text, sender, base_cc, base_bcc, related_type, related_id,
	enabled, suppress_log, edited_by, edited_at`

func scanTemplate(row pgx.Row) (*mailer.Template, error) {
	var (
		t                      mailer.Template
		relatedType, relatedID string
		contentType            string
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.SubjectTemplate, &t.BodyTemplate, &t.BodyTemplateHTML,
		&contentType, &t.AutogenerateText, &t.Sender, &t.BaseCC, &t.BaseBCC, &relatedType, &relatedID,
		&t.Enabled, &t.SuppressLog, &t.EditedBy, &t.EditedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ContentType = mailer.ContentType(contentType)
	t.Related = relatedKey(relatedType, relatedID)
	return &t, nil
}

func (p *Postgres) FindTemplate(ctx context.Context, name string, related *mailer.RelatedKey) (*mailer.Template, error) {
	typ, id := relatedColumns(related)
	t, err := scanTemplate(p.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM mail_templates
		WHERE name = $1 AND related_type = $2 AND related_id = $3`,
		name, typ, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, mailer.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find template %q: %w", name, err)
	}
	return t, nil
}

func (p *Postgres) SaveTemplate(ctx context.Context, tmpl *mailer.Template) error {
	if err := prepareTemplate(p.renderer, tmpl, time.Now()); err != nil {
		return err
	}
	return saveTemplate(ctx, p.pool, tmpl, "id")
}

// saveTemplate upserts on the given conflict target: "id" for regular saves,
// "name, related_type, related_id" for imports.
func saveTemplate(ctx context.Context, q querier, t *mailer.Template, conflict string) error {
	typ, id := relatedColumns(t.Related)
	row := q.QueryRow(ctx, `
		INSERT INTO mail_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (`+conflict+`) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			subject_template = EXCLUDED.subject_template,
			body_template = EXCLUDED.body_template,
			body_template_html = EXCLUDED.body_template_html,
			content_type = EXCLUDED.content_type,
			autogenerate_text = EXCLUDED.autogenerate_text,
			sender = EXCLUDED.sender,
			base_cc = EXCLUDED.base_cc,
			base_bcc = EXCLUDED.base_bcc,
			related_type = EXCLUDED.related_type,
			related_id = EXCLUDED.related_id,
			enabled = EXCLUDED.enabled,
			suppress_log = EXCLUDED.suppress_log,
			edited_by = EXCLUDED.edited_by,
			edited_at = EXCLUDED.edited_at
		RETURNING id`,
		t.ID, t.Name, t.Description, t.SubjectTemplate, t.BodyTemplate, t.BodyTemplateHTML,
		string(t.ContentType), t.AutogenerateText, t.Sender, nonNil(t.BaseCC), nonNil(t.BaseBCC), typ, id,
		t.Enabled, t.SuppressLog, t.EditedBy, t.EditedAt,
	)
	if err := row.Scan(&t.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateTemplate
		}
		return fmt.Errorf("store: save template %q: %w", t.Name, err)
	}
	return nil
}

func (p *Postgres) ImportTemplates(ctx context.Context, templates []*mailer.Template) error {
	now := time.Now()
	for _, t := range templates {
		if err := prepareTemplate(p.renderer, t, now); err != nil {
			return fmt.Errorf("store: import %s: %w", t, err)
		}
	}
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		for _, t := range templates {
			if err := saveTemplate(ctx, tx, t, "name, related_type, related_id"); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Postgres) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM mail_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete template %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return mailer.ErrTemplateNotFound
	}
	return nil
}

func (p *Postgres) ListTemplates(ctx context.Context) ([]*mailer.Template, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+templateColumns+` FROM mail_templates ORDER BY name, related_type, related_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list templates: %w", err)
	}
	defer rows.Close()

	out := make([]*mailer.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) InsertLog(ctx context.Context, e *mailer.LogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var templateID *uuid.UUID
	if e.TemplateID != uuid.Nil {
		templateID = &e.TemplateID
	}
	_, err := p.pool.Exec(ctx, `
		INSERT INTO mail_logs
			(id, template_id, template_name, related_type, related_id, recipients, cc, bcc,
			 status, message, subject, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, templateID, e.TemplateName, e.RelatedType, e.RelatedID,
		nonNil(e.To), nonNil(e.CC), nonNil(e.BCC),
		string(e.Status), mailer.Truncate(e.Message, mailer.MaxLogMessageLength), e.Subject, e.Body, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: insert log: %w", err)
	}
	return nil
}

func (p *Postgres) ListLogs(ctx context.Context, filter LogFilter) ([]*mailer.LogEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.TemplateName != "" {
		args = append(args, filter.TemplateName)
		where = append(where, fmt.Sprintf("template_name = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, filter.limit())

	query := `SELECT id, template_id, template_name, related_type, related_id, recipients, cc, bcc,
		status, message, subject, body, created_at FROM mail_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list logs: %w", err)
	}
	defer rows.Close()

	out := make([]*mailer.LogEntry, 0)
	for rows.Next() {
		var (
			e          mailer.LogEntry
			templateID *uuid.UUID
			status     string
		)
		if err := rows.Scan(&e.ID, &templateID, &e.TemplateName, &e.RelatedType, &e.RelatedID,
			&e.To, &e.CC, &e.BCC, &status, &e.Message, &e.Subject, &e.Body, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan log: %w", err)
		}
		if templateID != nil {
			e.TemplateID = *templateID
		}
		e.Status = mailer.Status(status)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteLogs(ctx context.Context, before time.Time, keepFailures bool) (int64, error) {
	query := `DELETE FROM mail_logs WHERE created_at < $1`
	args := []any{before}
	if keepFailures {
		query += ` AND status <> $2`
		args = append(args, string(mailer.StatusFailure))
	}
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: delete logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Postgres rejects NULL for the NOT NULL array columns.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Store = (*Postgres)(nil)
