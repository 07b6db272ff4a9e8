package mailer

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Status is the outcome of one send attempt.
type Status string

const (
	StatusSuccess Status = "S"
	StatusFailure Status = "F"
)

// String returns the human readable status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS. Message sent."
	case StatusFailure:
		return "FAILURE. Message not sent due to errors."
	default:
		return string(s)
	}
}

// MaxLogMessageLength caps the diagnostic text stored on a log entry.
const MaxLogMessageLength = 100

const ellipsis = "..."

// LogEntry is the durable record of one send attempt.
// Template fields are a snapshot, not a live reference.
type LogEntry struct {
	CreatedAt    time.Time
	Status       Status
	TemplateName string
	RelatedType  string
	RelatedID    string
	Message      string
	Subject      string // Only set when Config.LogContent is enabled
	Body         string // Only set when Config.LogContent is enabled
	To           []string
	CC           []string
	BCC          []string
	ID           uuid.UUID
	TemplateID   uuid.UUID
}

// LogSink persists log entries.
type LogSink interface {
	InsertLog(ctx context.Context, entry *LogEntry) error
}

// Truncate shortens s to at most limit runes, replacing the tail with "..."
// when it had to cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return ellipsis[:max(limit, 0)]
	}
	runes := []rune(s)
	return string(runes[:limit-len(ellipsis)]) + ellipsis
}

func newLogEntry(email *Email, status Status, message string, withContent bool) *LogEntry {
	entry := &LogEntry{
		ID:           uuid.New(),
		TemplateID:   email.Template.ID,
		TemplateName: email.Template.Name,
		To:           append([]string(nil), email.To...),
		CC:           append([]string(nil), email.CC...),
		BCC:          append([]string(nil), email.BCC...),
		Status:       status,
		Message:      Truncate(message, MaxLogMessageLength),
		CreatedAt:    time.Now().UTC(),
	}
	if email.Template.Related != nil {
		entry.RelatedType = email.Template.Related.Type
		entry.RelatedID = email.Template.Related.ID
	}
	if withContent {
		entry.Subject = email.Subject
		entry.Body = email.Text
		if entry.Body == "" {
			entry.Body = email.HTML
		}
	}
	return entry
}
