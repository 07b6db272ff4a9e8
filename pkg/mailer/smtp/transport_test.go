package smtp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/wneessen/go-mail"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

func render(t *testing.T, email *mailer.Email) string {
	t.Helper()
	msg, err := buildMsg(email)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestBuildMsg_Multipart(t *testing.T) {
	t.Parallel()

	raw := render(t, &mailer.Email{
		From:    "example@example.com",
		To:      []string{"to@example.com"},
		CC:      []string{"a@example.com", "b@example.com"},
		Subject: "Test 5 Subject *HELLO*",
		Text:    "# *HELLO* *WORLD* in HTML!",
		HTML:    "<h1>*HELLO* *WORLD* in HTML!</h1>",
		Headers: map[string]string{"X-Campaign": "spring"},
	})

	assert.Contains(t, raw, "multipart/alternative")
	textAt := strings.Index(raw, "text/plain")
	htmlAt := strings.Index(raw, "text/html")
	require.NotEqual(t, -1, textAt)
	require.NotEqual(t, -1, htmlAt)
	assert.Less(t, textAt, htmlAt, "text part must precede the html alternative")

	assert.Contains(t, raw, "X-Campaign: spring")
	assert.Contains(t, raw, "User-Agent: mailtemplates")
	assert.Contains(t, raw, "a@example.com")
	assert.Contains(t, raw, "Message-ID:")
}

func TestBuildMsg_SinglePart(t *testing.T) {
	t.Parallel()

	t.Run("text only", func(t *testing.T) {
		t.Parallel()

		raw := render(t, &mailer.Email{From: "a@example.com", To: []string{"b@example.com"}, Subject: "s", Text: "body"})
		assert.Contains(t, raw, "text/plain")
		assert.NotContains(t, raw, "text/html")
		assert.NotContains(t, raw, "multipart/alternative")
	})

	t.Run("html only", func(t *testing.T) {
		t.Parallel()

		raw := render(t, &mailer.Email{From: "a@example.com", To: []string{"b@example.com"}, Subject: "s", HTML: "<p>x</p>"})
		assert.Contains(t, raw, "text/html")
		assert.NotContains(t, raw, "multipart/alternative")
	})
}

func TestBuildMsg_BCCNotInHeaders(t *testing.T) {
	t.Parallel()

	msg, err := buildMsg(&mailer.Email{
		From: "a@example.com",
		To:   []string{"to@example.com"},
		BCC:  []string{"hidden@example.com"},
		Text: "x",
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Contains(t, rcpts, "hidden@example.com")

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "hidden@example.com")
}

func TestBuildMsg_Attachments(t *testing.T) {
	t.Parallel()

	raw := render(t, &mailer.Email{
		From: "a@example.com",
		To:   []string{"b@example.com"},
		Text: "see attached",
		Attachments: []mailer.Attachment{
			{Filename: "report.csv", ContentType: "text/csv", Content: []byte("a,b\n1,2\n")},
		},
	})
	assert.Contains(t, raw, "report.csv")
	assert.Contains(t, raw, "multipart/mixed")
}

func TestBuildMsg_InvalidAddress(t *testing.T) {
	t.Parallel()

	_, err := buildMsg(&mailer.Email{From: "not an address", To: []string{"b@example.com"}})
	require.Error(t, err)

	_, err = buildMsg(&mailer.Email{From: "a@example.com", To: []string{"@@"}})
	require.Error(t, err)
}

func TestTLSPolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, mail.TLSMandatory, tlsPolicy("mandatory"))
	assert.Equal(t, mail.TLSMandatory, tlsPolicy("starttls"))
	assert.Equal(t, mail.NoTLS, tlsPolicy("none"))
	assert.Equal(t, mail.TLSOpportunistic, tlsPolicy(""))
	assert.Equal(t, mail.TLSOpportunistic, tlsPolicy("opportunistic"))
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	tr, err := New(Config{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", TLS: "none"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:2525", tr.client.ServerAddr())
}

func TestOpen_DialFailure(t *testing.T) {
	t.Parallel()

	tr, err := New(Config{Host: "127.0.0.1", Port: 1, TLS: "none"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.Open(ctx)
	require.Error(t, err)
}
