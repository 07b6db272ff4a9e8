package mailer

import (
	"time"

	"github.com/google/uuid"
)

// ContentType describes how a template's bodies are meant to be rendered.
type ContentType string

const (
	ContentText     ContentType = "text/plain"
	ContentHTML     ContentType = "text/html"
	ContentMarkdown ContentType = "text/markdown"
)

// RelatedKey scopes a template to an external entity, e.g. ("site", "1").
// A nil *RelatedKey denotes a global template.
type RelatedKey struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// Related is a shorthand for building a *RelatedKey.
func Related(typ, id string) *RelatedKey {
	return &RelatedKey{Type: typ, ID: id}
}

// String returns "type:id".
func (k *RelatedKey) String() string {
	if k == nil {
		return ""
	}
	return k.Type + ":" + k.ID
}

// Equal reports whether two keys refer to the same entity. Two nil keys are equal.
func (k *RelatedKey) Equal(other *RelatedKey) bool {
	if k == nil || other == nil {
		return k == nil && other == nil
	}
	return *k == *other
}

// Template is a stored, named message definition.
// The core only reads templates; stores own their lifecycle.
type Template struct {
	EditedAt         time.Time   `json:"edited_at" yaml:"edited_at"`
	Related          *RelatedKey `json:"related,omitempty" yaml:"related,omitempty"`
	Name             string      `json:"name" yaml:"name"`
	Description      string      `json:"description,omitempty" yaml:"description,omitempty"`
	SubjectTemplate  string      `json:"subject_template" yaml:"subject_template"`
	BodyTemplate     string      `json:"body_template" yaml:"body_template"`
	BodyTemplateHTML string      `json:"body_template_html,omitempty" yaml:"body_template_html,omitempty"`
	ContentType      ContentType `json:"content_type" yaml:"content_type"`
	Sender           string      `json:"sender,omitempty" yaml:"sender,omitempty"`
	EditedBy         string      `json:"edited_by,omitempty" yaml:"edited_by,omitempty"`
	BaseCC           []string    `json:"base_cc,omitempty" yaml:"base_cc,omitempty"`
	BaseBCC          []string    `json:"base_bcc,omitempty" yaml:"base_bcc,omitempty"`
	ID               uuid.UUID   `json:"id" yaml:"id"`
	AutogenerateText bool        `json:"autogenerate_text" yaml:"autogenerate_text"`
	Enabled          bool        `json:"enabled" yaml:"enabled"`
	SuppressLog      bool        `json:"suppress_log" yaml:"suppress_log"`
}

// Ref returns the snapshot stored on composed messages and log entries.
func (t *Template) Ref() TemplateRef {
	ref := TemplateRef{ID: t.ID, Name: t.Name}
	if t.Related != nil {
		k := *t.Related
		ref.Related = &k
	}
	return ref
}

// String mirrors how templates are listed in admin tools.
func (t *Template) String() string {
	s := t.Name
	if t.Related != nil {
		s += " for " + t.Related.String()
	}
	if !t.Enabled {
		s += " (Disabled)"
	}
	return s
}
