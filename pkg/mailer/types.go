package mailer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Context is the per-send data a template is rendered against.
type Context map[string]any

// Tags represents email tags/categories that can be either presence-only
// (using struct{}{}) or key-value pairs (using string values).
// Providers without tag support ignore them.
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// TemplateRef is the snapshot of the template a message was composed from.
// Log entries copy it so they survive template edits and deletion.
type TemplateRef struct {
	Related *RelatedKey
	Name    string
	ID      uuid.UUID
}

// Email is a fully composed message ready for a transport.
// It is built once per send and never shares slices or maps with the Template.
type Email struct {
	Headers     map[string]string // Custom headers
	Tags        Tags              // Provider-specific tags/categories
	Template    TemplateRef       // Source template snapshot
	Subject     string
	Text        string // Plain text part, always first
	HTML        string // Optional HTML alternative
	From        string
	ReplyTo     string
	To          []string // Caller supplied, never merged with template data
	CC          []string // Template base CC merged with caller CC
	BCC         []string // Template base BCC merged with caller BCC
	Attachments []Attachment
	SuppressLog bool
}

// Recipients returns to, cc and bcc in that order.
func (e *Email) Recipients() []string {
	out := make([]string, 0, len(e.To)+len(e.CC)+len(e.BCC))
	out = append(out, e.To...)
	out = append(out, e.CC...)
	out = append(out, e.BCC...)
	return out
}

// IsMultipart reports whether the message carries an HTML alternative.
func (e *Email) IsMultipart() bool {
	return e.HTML != "" && e.Text != ""
}

// Attachment represents an email attachment.
type Attachment struct {
	Filename    string // Display name for the attachment
	ContentType string // MIME type (e.g., "application/pdf")
	ContentID   string // Optional Content-ID for inline attachments
	Content     []byte // Raw file content
}

func cloneAttachments(in []Attachment) []Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]Attachment, len(in))
	for i, a := range in {
		a.Content = slices.Clone(a.Content)
		out[i] = a
	}
	return out
}

func cloneHeaders(in map[string]string) map[string]string {
	if len(in) == 0 {
		return map[string]string{}
	}
	return maps.Clone(in)
}
