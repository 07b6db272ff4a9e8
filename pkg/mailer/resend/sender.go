package resend

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// ErrSend wraps every error returned by the Resend API.
var ErrSend = errors.New("resend: send failed")

// Sender delivers composed emails through the Resend HTTP API. Wrap it with
// mailer.SenderTransport to plug it into a Mailer.
type Sender struct {
	client *resend.Client
	from   string
}

// New builds a Sender for cfg.
func New(cfg Config) *Sender {
	return &Sender{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.from(),
	}
}

func (c Config) from() string {
	if c.SenderName == "" {
		return c.SenderEmail
	}
	return (&mail.Address{Name: c.SenderName, Address: c.SenderEmail}).String()
}

// Send posts one email. Each message is tagged with the name of the template
// it was rendered from so deliveries can be filtered in the Resend dashboard.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if _, err := s.client.Emails.SendWithContext(ctx, s.request(email)); err != nil {
		return fmt.Errorf("%w: template %q: %w", ErrSend, email.Template.Name, err)
	}
	return nil
}

func (s *Sender) request(email *mailer.Email) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    cmp.Or(email.From, s.from),
		To:      email.To,
		Cc:      email.CC,
		Bcc:     email.BCC,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Text:    email.Text,
		Html:    email.HTML,
		Headers: email.Headers,
		Tags:    tags(email),
	}
	for _, a := range email.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
			ContentId:   a.ContentID,
		})
	}
	return req
}

// tags converts the email tags, adding "template" and "related" unless the
// caller set them. The result is sorted by name.
func tags(email *mailer.Email) []resend.Tag {
	out := make([]resend.Tag, 0, len(email.Tags)+2)
	for name, v := range email.Tags {
		out = append(out, resend.Tag{Name: tagSafe(name), Value: tagSafe(tagValue(v))})
	}

	auto := map[string]string{"template": email.Template.Name}
	if email.Template.Related != nil {
		auto["related"] = email.Template.Related.String()
	}
	for name, v := range auto {
		if _, set := email.Tags[name]; !set && v != "" {
			out = append(out, resend.Tag{Name: name, Value: tagSafe(v)})
		}
	}

	slices.SortFunc(out, func(a, b resend.Tag) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// tagValue renders a tag value. Presence-only tags become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// tagSafe maps characters Resend rejects in tags (anything but ASCII
// letters, digits, '_' and '-') to '_'.
func tagSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
