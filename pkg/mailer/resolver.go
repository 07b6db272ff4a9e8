package mailer

import (
	"context"
	"errors"
	"fmt"
)

// TemplateStore looks up template records.
// FindTemplate must return ErrTemplateNotFound when no row matches
// (name, related) exactly; a nil related matches only global templates.
// Disabled templates are returned as stored.
type TemplateStore interface {
	FindTemplate(ctx context.Context, name string, related *RelatedKey) (*Template, error)
}

// Resolver finds the template to use for a send request.
type Resolver struct {
	store TemplateStore
}

// NewResolver creates a resolver over the given store.
func NewResolver(store TemplateStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the enabled template matching name and related, falling
// back to the enabled global template with the same name.
// Disabled templates are treated exactly like missing ones.
func (r *Resolver) Resolve(ctx context.Context, name string, related *RelatedKey) (*Template, error) {
	if related != nil {
		tmpl, ok, err := r.find(ctx, name, related)
		if err != nil {
			return nil, err
		}
		if ok {
			return tmpl, nil
		}
	}

	tmpl, ok, err := r.find(ctx, name, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return tmpl, nil
}

func (r *Resolver) find(ctx context.Context, name string, related *RelatedKey) (*Template, bool, error) {
	tmpl, err := r.store.FindTemplate(ctx, name, related)
	switch {
	case errors.Is(err, ErrTemplateNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("mailer: find template %q: %w", name, err)
	case tmpl == nil || !tmpl.Enabled:
		return nil, false, nil
	}
	return tmpl, true, nil
}
