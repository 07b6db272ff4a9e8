package mailer

import (
	"context"
	"fmt"
	"strings"
)

// BulkEntry is one message of a bulk send.
type BulkEntry struct {
	Context Context
	From    string
	To      []string
}

// EntryError is the failure of one bulk entry.
type EntryError struct {
	Err   error
	Index int
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// BulkError collects every failed entry of a bulk send.
type BulkError struct {
	Entries []*EntryError
	Sent    int
}

func (e *BulkError) Error() string {
	msgs := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		msgs[i] = entry.Error()
	}
	return fmt.Sprintf("mailer: %d bulk entries failed: %s", len(e.Entries), strings.Join(msgs, "; "))
}

// Unwrap lets errors.Is and errors.As see the individual entry errors.
func (e *BulkError) Unwrap() []error {
	errs := make([]error, len(e.Entries))
	for i, entry := range e.Entries {
		errs[i] = entry
	}
	return errs
}

// SendMassMail renders one template for every entry and sends the messages
// sequentially over a single transport connection.
//
// The template is resolved once; ErrTemplateNotFound aborts before anything
// is sent. Every entry is attempted even if earlier ones fail. Failures are
// returned together as a *BulkError after the last entry: render and log
// write failures always, delivery failures only when failSilently is false.
//
// An entry whose composed message has no recipient fails with ErrNoRecipient
// and is not handed to the transport.
//
// The returned count is the number of messages handed to an open transport
// connection. When Open fails every entry is still attempted and logged as a
// failure, but none is counted.
func (m *Mailer) SendMassMail(ctx context.Context, name string, related *RelatedKey, entries []BulkEntry, failSilently bool) (int, error) {
	tmpl, err := m.resolver.Resolve(ctx, name, related)
	if err != nil {
		return 0, err
	}

	conn := m.open(ctx)
	defer m.close(ctx, conn)
	_, openFailed := conn.(failedConn)

	var (
		sent   int
		failed []*EntryError
	)
	for i, entry := range entries {
		email, err := m.composer.Compose(tmpl, entry.Context, ComposeOptions{
			From: entry.From,
			To:   entry.To,
		})
		if err != nil {
			failed = append(failed, &EntryError{Index: i, Err: err})
			continue
		}

		if len(email.Recipients()) == 0 {
			failed = append(failed, &EntryError{Index: i, Err: ErrNoRecipient})
			continue
		}

		if !openFailed {
			sent++
		}
		if _, err := m.dispatcher.Send(ctx, conn, email, failSilently); err != nil {
			failed = append(failed, &EntryError{Index: i, Err: err})
		}
	}

	if len(failed) > 0 {
		return sent, &BulkError{Sent: sent, Entries: failed}
	}
	return sent, nil
}
