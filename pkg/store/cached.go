package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailtemplates/pkg/cache"
	"github.com/dmitrymomot/mailtemplates/pkg/logger"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

// CacheEntry is the cached result of one template lookup.
// Missing entries are cached too, so a global fallback costs one
// backend query per TTL rather than two per send.
type CacheEntry struct {
	Template *mailer.Template `json:"template,omitempty"`
	Missing  bool             `json:"missing,omitempty"`
}

// Cached serves FindTemplate from a cache and forwards everything else.
// Any template write resets the whole cache.
type Cached struct {
	Store
	loader *cache.Loader[CacheEntry]
	logger *slog.Logger
}

// NewCached wraps s. ttl follows cache.Cache semantics; zero uses the
// cache's default.
func NewCached(s Store, c cache.Cache[CacheEntry], ttl time.Duration, log *slog.Logger) *Cached {
	if log == nil {
		log = logger.NewNope()
	}
	return &Cached{
		Store:  s,
		loader: cache.NewLoader(c, ttl),
		logger: log,
	}
}

func cacheKey(name string, related *mailer.RelatedKey) string {
	return "template:" + name + "|" + related.String()
}

func (c *Cached) FindTemplate(ctx context.Context, name string, related *mailer.RelatedKey) (*mailer.Template, error) {
	entry, err := c.loader.Load(ctx, cacheKey(name, related), func(ctx context.Context) (CacheEntry, error) {
		t, err := c.Store.FindTemplate(ctx, name, related)
		if errors.Is(err, mailer.ErrTemplateNotFound) {
			return CacheEntry{Missing: true}, nil
		}
		if err != nil {
			return CacheEntry{}, err
		}
		return CacheEntry{Template: t}, nil
	})
	if err != nil {
		return nil, err
	}
	if entry.Missing || entry.Template == nil {
		return nil, mailer.ErrTemplateNotFound
	}
	return cloneTemplate(entry.Template), nil
}

func (c *Cached) SaveTemplate(ctx context.Context, tmpl *mailer.Template) error {
	if err := c.Store.SaveTemplate(ctx, tmpl); err != nil {
		return err
	}
	c.reset(ctx)
	return nil
}

func (c *Cached) ImportTemplates(ctx context.Context, templates []*mailer.Template) error {
	if err := c.Store.ImportTemplates(ctx, templates); err != nil {
		return err
	}
	c.reset(ctx)
	return nil
}

func (c *Cached) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := c.Store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	c.reset(ctx)
	return nil
}

// A failed reset leaves stale entries until they expire; the write itself
// already succeeded.
func (c *Cached) reset(ctx context.Context) {
	if err := c.loader.Reset(ctx); err != nil {
		c.logger.WarnContext(ctx, "template cache reset failed", slog.String("error", err.Error()))
	}
}

var _ Store = (*Cached)(nil)
