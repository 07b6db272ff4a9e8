package logger

import (
	"context"
	"log/slog"
)

type templateCtxKey struct{}

type templateScope struct {
	name    string
	related string
}

// WithTemplate scopes ctx to a template send. Loggers built with
// TemplateExtractor attach the template name and related key to every line.
func WithTemplate(ctx context.Context, name, related string) context.Context {
	return context.WithValue(ctx, templateCtxKey{}, templateScope{name: name, related: related})
}

// TemplateFromContext returns the template scope stored by WithTemplate.
func TemplateFromContext(ctx context.Context) (name, related string, ok bool) {
	s, ok := ctx.Value(templateCtxKey{}).(templateScope)
	return s.name, s.related, ok
}

// TemplateExtractor adds a "template" group with the name and, when set,
// the related key.
func TemplateExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		name, related, ok := TemplateFromContext(ctx)
		if !ok || name == "" {
			return slog.Attr{}, false
		}
		if related == "" {
			return slog.Group("template", slog.String("name", name)), true
		}
		return slog.Group("template",
			slog.String("name", name),
			slog.String("related", related),
		), true
	}
}

type componentCtxKey struct{}

// WithComponent tags ctx with the running component (worker, cli, ...).
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentCtxKey{}, component)
}

// ComponentExtractor adds the component set by WithComponent.
func ComponentExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		c, ok := ctx.Value(componentCtxKey{}).(string)
		if !ok || c == "" {
			return slog.Attr{}, false
		}
		return slog.String("component", c), true
	}
}

// DefaultExtractors returns the extractors every mailtemplates binary uses.
func DefaultExtractors() []ContextExtractor {
	return []ContextExtractor{TemplateExtractor(), ComponentExtractor()}
}
