package mailer_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

var (
	site1 = mailer.Related("site", "1")
	site2 = mailer.Related("site", "2")
)

var testContext = mailer.Context{"hello": "*HELLO*", "world": "*WORLD*"}

// fixtureTemplates mirrors the records the resolver and composer tests rely on.
func fixtureTemplates() []*mailer.Template {
	return []*mailer.Template{
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000001"),
			Name:            "Template 1",
			SubjectTemplate: "Test 1 Subject {{hello}}",
			BodyTemplate:    "Test 1 body {{world}}",
			ContentType:     mailer.ContentText,
			Enabled:         true,
		},
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000002"),
			Name:            "Template 2",
			SubjectTemplate: "Test 2 Subject {{hello}}",
			BodyTemplate:    "Test 2 body {{world}}",
			ContentType:     mailer.ContentText,
			Sender:          "example@example.com",
			BaseCC:          []string{"a@example.com", "b@example.com"},
			BaseBCC:         []string{"c@example.com", "d@example.com"},
			Enabled:         true,
		},
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000003"),
			Name:            "Template 3",
			SubjectTemplate: "Disabled",
			BodyTemplate:    "Disabled",
			Enabled:         false,
		},
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000004"),
			Name:            "Template 1",
			Related:         site1,
			SubjectTemplate: "Site 1 Subject {{hello}}",
			BodyTemplate:    "Site 1 body {{world}}",
			Enabled:         true,
		},
		{
			ID:               uuid.MustParse("00000000-0000-0000-0000-000000000005"),
			Name:             "Template 5",
			SubjectTemplate:  "Test 5 Subject {{hello}}",
			BodyTemplateHTML: "<h1>{{hello}} {{world}} in HTML!</h1>",
			ContentType:      mailer.ContentHTML,
			AutogenerateText: true,
			Enabled:          true,
		},
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000006"),
			Name:            "Template 2",
			Related:         site2,
			SubjectTemplate: "Disabled site 2",
			BodyTemplate:    "Disabled site 2",
			Enabled:         false,
		},
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000007"),
			Name:            "Quiet",
			SubjectTemplate: "Quiet {{hello}}",
			BodyTemplate:    "Quiet body",
			Enabled:         true,
			SuppressLog:     true,
		},
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000008"),
			Name:            "Markdown",
			SubjectTemplate: "Digest",
			BodyTemplate:    "# Hi {{hello}}",
			ContentType:     mailer.ContentMarkdown,
			Enabled:         true,
		},
		{
			ID:              uuid.MustParse("00000000-0000-0000-0000-000000000009"),
			Name:            "Broken",
			SubjectTemplate: "Broken {% if %}",
			BodyTemplate:    "body",
			Enabled:         true,
		},
	}
}

type fakeStore struct {
	err       error
	templates []*mailer.Template
	calls     atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{templates: fixtureTemplates()}
}

func (s *fakeStore) FindTemplate(_ context.Context, name string, related *mailer.RelatedKey) (*mailer.Template, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	for _, t := range s.templates {
		if t.Name == name && t.Related.Equal(related) {
			return t, nil
		}
	}
	return nil, mailer.ErrTemplateNotFound
}

type fakeSink struct {
	err     error
	entries []*mailer.LogEntry
	mu      sync.Mutex
}

func (s *fakeSink) InsertLog(_ context.Context, entry *mailer.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeSink) Entries() []*mailer.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*mailer.LogEntry(nil), s.entries...)
}

type mockConn struct {
	mock.Mock
}

func (m *mockConn) Deliver(ctx context.Context, email *mailer.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *mockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Open(ctx context.Context) (mailer.Connection, error) {
	args := m.Called(ctx)
	conn, _ := args.Get(0).(mailer.Connection)
	return conn, args.Error(1)
}

// refusingTransport fails every Open.
type refusingTransport struct{ err error }

func (t refusingTransport) Open(context.Context) (mailer.Connection, error) { return nil, t.err }

// recordingConn is a simple transport that keeps every delivered message.
type recordingConn struct {
	failFor map[string]error
	sent    []*mailer.Email
	opened  int
	closed  int
}

func (c *recordingConn) Open(context.Context) (mailer.Connection, error) {
	c.opened++
	return c, nil
}

func (c *recordingConn) Deliver(_ context.Context, email *mailer.Email) error {
	if len(email.To) > 0 {
		if err := c.failFor[email.To[0]]; err != nil {
			return err
		}
	}
	c.sent = append(c.sent, email)
	return nil
}

func (c *recordingConn) Close() error {
	c.closed++
	return nil
}

func htmlConfig() mailer.Config {
	cfg := mailer.DefaultConfig()
	cfg.AllowHTMLMessages = true
	return cfg
}
