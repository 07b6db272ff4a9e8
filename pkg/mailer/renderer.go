package mailer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Template syntax is Django style ({{ name }}, {% if %}), rendered by pongo2.
// Undefined variables render as empty strings; only malformed syntax fails.

// RenderMode selects escaping behaviour.
type RenderMode int

const (
	// ModeText renders without HTML escaping (subjects, plain-text bodies).
	ModeText RenderMode = iota
	// ModeHTML autoescapes context values.
	ModeHTML
)

// bannedTags would let a stored template read files from the server.
var bannedTags = []string{"include", "extends", "import", "ssi"}

// Renderer compiles and executes template strings.
// Compiled templates are cached by mode and source.
type Renderer struct {
	set   *pongo2.TemplateSet
	cache map[cacheKey]*pongo2.Template
	mu    sync.RWMutex
}

type cacheKey struct {
	src  string
	mode RenderMode
}

// NewRenderer creates a renderer with file-access tags disabled.
func NewRenderer() *Renderer {
	set := pongo2.NewSet("mailtemplates", pongo2.MustNewLocalFileSystemLoader(""))
	for _, tag := range bannedTags {
		// Only fails for unknown or already banned tags.
		_ = set.BanTag(tag)
	}
	return &Renderer{
		set:   set,
		cache: make(map[cacheKey]*pongo2.Template),
	}
}

// Render executes src against data.
func (r *Renderer) Render(src string, data Context, mode RenderMode) (string, error) {
	if src == "" {
		return "", nil
	}

	tmpl, err := r.get(src, mode)
	if err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}

	out, err := tmpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", errors.Join(ErrRenderFailed, err)
	}
	return out, nil
}

// Validate checks src for syntax errors without rendering it.
func (r *Renderer) Validate(src string) error {
	if _, err := r.get(src, ModeHTML); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return nil
}

// ValidateTemplate checks a template before it is stored: it needs a name
// and a known content type, and every source must parse. All problems are
// reported together, each wrapping ErrInvalidTemplate.
func (r *Renderer) ValidateTemplate(tmpl *Template) error {
	var errs []error
	if strings.TrimSpace(tmpl.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: name is required", ErrInvalidTemplate))
	}
	switch tmpl.ContentType {
	case "", ContentText, ContentHTML, ContentMarkdown:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown content type %q", ErrInvalidTemplate, tmpl.ContentType))
	}

	sources := []struct {
		field string
		src   string
	}{
		{"subject_template", tmpl.SubjectTemplate},
		{"body_template", tmpl.BodyTemplate},
		{"body_template_html", tmpl.BodyTemplateHTML},
	}
	for _, s := range sources {
		if err := r.Validate(s.src); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.field, err))
		}
	}
	return errors.Join(errs...)
}

// get returns a cached template or parses and caches it.
func (r *Renderer) get(src string, mode RenderMode) (*pongo2.Template, error) {
	key := cacheKey{src: src, mode: mode}

	r.mu.RLock()
	if tmpl, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return tmpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if tmpl, ok := r.cache[key]; ok {
		return tmpl, nil
	}

	source := src
	if mode == ModeText {
		source = "{% autoescape off %}" + src + "{% endautoescape %}"
	}

	tmpl, err := r.set.FromString(source)
	if err != nil {
		return nil, err
	}

	r.cache[key] = tmpl
	return tmpl, nil
}
