package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// ErrInvalidFixtures is returned when a fixtures document cannot be parsed.
var ErrInvalidFixtures = errors.New("store: invalid fixtures")

// fixturesFile is the YAML layout:
//
//	templates:
//	  - name: welcome
//	    related: {type: site, id: "1"}
//	    subject_template: "Welcome {{ user }}"
//	    body_template: "Hello {{ user }}"
type fixturesFile struct {
	Templates []yaml.Node `yaml:"templates"`
}

// ParseFixtures decodes templates from YAML. Omitted fields default to an
// enabled plain-text template with text autogeneration on.
func ParseFixtures(r io.Reader) ([]*mailer.Template, error) {
	var doc fixturesFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidFixtures, err)
	}

	out := make([]*mailer.Template, 0, len(doc.Templates))
	for i := range doc.Templates {
		t := &mailer.Template{
			ContentType:      mailer.ContentText,
			AutogenerateText: true,
			Enabled:          true,
		}
		if err := doc.Templates[i].Decode(t); err != nil {
			return nil, errors.Join(ErrInvalidFixtures, fmt.Errorf("template #%d: %w", i+1, err))
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadFixtures parses r and imports the templates into s.
// Templates already present under the same name and related key are updated.
func LoadFixtures(ctx context.Context, s Store, r io.Reader) (int, error) {
	templates, err := ParseFixtures(r)
	if err != nil {
		return 0, err
	}
	if err := s.ImportTemplates(ctx, templates); err != nil {
		return 0, err
	}
	return len(templates), nil
}

// LoadFixturesFile is LoadFixtures for a file on disk.
func LoadFixturesFile(ctx context.Context, s Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("store: open fixtures: %w", err)
	}
	defer f.Close()
	return LoadFixtures(ctx, s, f)
}
