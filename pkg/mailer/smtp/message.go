package smtp

import (
	"bytes"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

const userAgent = "mailtemplates"

// buildMsg converts a composed email into a MIME message.
// The text part always comes before the HTML alternative.
func buildMsg(email *mailer.Email) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())
	msg.SetUserAgent(userAgent)

	if err := msg.From(email.From); err != nil {
		return nil, fmt.Errorf("smtp: from %q: %w", email.From, err)
	}
	if len(email.To) > 0 {
		if err := msg.To(email.To...); err != nil {
			return nil, fmt.Errorf("smtp: to: %w", err)
		}
	}
	if len(email.CC) > 0 {
		if err := msg.Cc(email.CC...); err != nil {
			return nil, fmt.Errorf("smtp: cc: %w", err)
		}
	}
	if len(email.BCC) > 0 {
		if err := msg.Bcc(email.BCC...); err != nil {
			return nil, fmt.Errorf("smtp: bcc: %w", err)
		}
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, fmt.Errorf("smtp: reply-to: %w", err)
		}
	}

	msg.Subject(email.Subject)
	msg.SetDate()
	msg.SetMessageID()
	for k, v := range email.Headers {
		if k == "" || v == "" {
			continue
		}
		msg.SetGenHeader(mail.Header(k), v)
	}

	switch {
	case email.IsMultipart():
		msg.SetBodyString(mail.TypeTextPlain, email.Text)
		msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)
	case email.HTML != "":
		msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	default:
		msg.SetBodyString(mail.TypeTextPlain, email.Text)
	}

	for _, a := range email.Attachments {
		opts := []mail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		var err error
		if a.ContentID != "" {
			opts = append(opts, mail.WithFileContentID(a.ContentID))
			err = msg.EmbedReader(a.Filename, bytes.NewReader(a.Content), opts...)
		} else {
			err = msg.AttachReader(a.Filename, bytes.NewReader(a.Content), opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("smtp: attachment %q: %w", a.Filename, err)
		}
	}
	return msg, nil
}
