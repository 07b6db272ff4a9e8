package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/dmitrymomot/mailtemplates/pkg/htmltext"
	"github.com/dmitrymomot/mailtemplates/pkg/sanitizer"
)

// ComposeOptions are the call-site values merged into a template.
type ComposeOptions struct {
	Headers       map[string]string
	Tags          Tags
	From          string // Highest priority sender
	ReplyTo       string
	SubjectPrefix string
	To            []string
	CC            []string // Merged with the template's BaseCC
	BCC           []string // Merged with the template's BaseBCC
	Attachments   []Attachment
}

// Composer renders templates into ready-to-send messages.
type Composer struct {
	renderer *Renderer
	config   ConfigFunc
	md       goldmark.Markdown
}

// NewComposer creates a composer. A nil renderer gets a fresh one and a nil
// config falls back to DefaultConfig.
func NewComposer(renderer *Renderer, config ConfigFunc) *Composer {
	if renderer == nil {
		renderer = NewRenderer()
	}
	if config == nil {
		config = StaticConfig(DefaultConfig())
	}
	return &Composer{
		renderer: renderer,
		config:   config,
		md:       goldmark.New(),
	}
}

// Compose renders tmpl against data and applies opts.
// The template is not modified. Any render failure aborts composition with
// ErrRenderFailed.
func (c *Composer) Compose(tmpl *Template, data Context, opts ComposeOptions) (*Email, error) {
	cfg := c.config()

	subject, err := c.renderer.Render(tmpl.SubjectTemplate, data, ModeText)
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	text, err := c.renderer.Render(tmpl.BodyTemplate, data, ModeText)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}

	email := &Email{
		Template:    tmpl.Ref(),
		SuppressLog: tmpl.SuppressLog,
		Subject:     opts.SubjectPrefix + subject,
		Text:        text,
		From:        resolveFrom(opts.From, tmpl.Sender, cfg.DefaultFromEmail),
		ReplyTo:     opts.ReplyTo,
		To:          append([]string{}, opts.To...),
		CC:          MergeAddresses(tmpl.BaseCC, opts.CC),
		BCC:         MergeAddresses(tmpl.BaseBCC, opts.BCC),
		Headers:     cloneHeaders(opts.Headers),
		Attachments: cloneAttachments(opts.Attachments),
	}
	if len(opts.Tags) > 0 {
		email.Tags = maps.Clone(opts.Tags)
	}

	if !cfg.AllowHTMLMessages {
		return email, nil
	}

	html, err := c.renderHTML(tmpl, text, data)
	if err != nil {
		return nil, err
	}
	if html == "" {
		return email, nil
	}
	if cfg.SanitizeHTML {
		html = sanitizer.SanitizeEmailHTML(html)
	}
	email.HTML = html

	if strings.TrimSpace(email.Text) == "" && tmpl.AutogenerateText {
		email.Text = htmltext.Convert(html)
	}
	return email, nil
}

func (c *Composer) renderHTML(tmpl *Template, text string, data Context) (string, error) {
	if tmpl.BodyTemplateHTML != "" {
		html, err := c.renderer.Render(tmpl.BodyTemplateHTML, data, ModeHTML)
		if err != nil {
			return "", fmt.Errorf("html body: %w", err)
		}
		return html, nil
	}

	if tmpl.ContentType == ContentMarkdown && text != "" {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(text), &buf); err != nil {
			return "", errors.Join(ErrRenderFailed, err)
		}
		return buf.String(), nil
	}
	return "", nil
}

// resolveFrom picks the sender: call site, then template, then config.
func resolveFrom(override, templateSender, fallback string) string {
	if override != "" {
		return override
	}
	if templateSender != "" {
		return templateSender
	}
	return fallback
}
