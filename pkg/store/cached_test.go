package store_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailtemplates/pkg/cache"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
	"github.com/dmitrymomot/mailtemplates/pkg/store"
)

type countingStore struct {
	store.Store
	finds atomic.Int32
}

func (c *countingStore) FindTemplate(ctx context.Context, name string, related *mailer.RelatedKey) (*mailer.Template, error) {
	c.finds.Add(1)
	return c.Store.FindTemplate(ctx, name, related)
}

func newCached(t *testing.T) (*store.Cached, *countingStore) {
	t.Helper()

	backend := &countingStore{Store: store.NewMemory(nil)}
	c := cache.NewMemory[store.CacheEntry]()
	t.Cleanup(func() { _ = c.Close() })
	return store.NewCached(backend, c, time.Minute, nil), backend
}

func TestCached_FindTemplate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("repeated lookups hit the cache", func(t *testing.T) {
		t.Parallel()

		s, backend := newCached(t)
		require.NoError(t, s.SaveTemplate(ctx, newTemplate("welcome", nil)))

		for range 3 {
			got, err := s.FindTemplate(ctx, "welcome", nil)
			require.NoError(t, err)
			assert.Equal(t, "welcome", got.Name)
		}
		assert.EqualValues(t, 1, backend.finds.Load())
	})

	t.Run("misses are cached", func(t *testing.T) {
		t.Parallel()

		s, backend := newCached(t)
		for range 2 {
			_, err := s.FindTemplate(ctx, "welcome", mailer.Related("site", "1"))
			require.ErrorIs(t, err, mailer.ErrTemplateNotFound)
		}
		assert.EqualValues(t, 1, backend.finds.Load())
	})

	t.Run("writes reset the cache", func(t *testing.T) {
		t.Parallel()

		s, backend := newCached(t)
		_, err := s.FindTemplate(ctx, "welcome", nil)
		require.ErrorIs(t, err, mailer.ErrTemplateNotFound)

		tmpl := newTemplate("welcome", nil)
		require.NoError(t, s.SaveTemplate(ctx, tmpl))
		got, err := s.FindTemplate(ctx, "welcome", nil)
		require.NoError(t, err)
		assert.Equal(t, tmpl.ID, got.ID)

		require.NoError(t, s.DeleteTemplate(ctx, tmpl.ID))
		_, err = s.FindTemplate(ctx, "welcome", nil)
		require.ErrorIs(t, err, mailer.ErrTemplateNotFound)
		assert.EqualValues(t, 3, backend.finds.Load())
	})

	t.Run("cached values are copies", func(t *testing.T) {
		t.Parallel()

		s, _ := newCached(t)
		require.NoError(t, s.SaveTemplate(ctx, newTemplate("welcome", nil)))

		first, err := s.FindTemplate(ctx, "welcome", nil)
		require.NoError(t, err)
		first.SubjectTemplate = "mutated"

		second, err := s.FindTemplate(ctx, "welcome", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hello {{ name }}", second.SubjectTemplate)
	})
}

func TestCached_WithResolver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, backend := newCached(t)
	require.NoError(t, s.SaveTemplate(ctx, newTemplate("welcome", nil)))

	resolver := mailer.NewResolver(s)
	for range 2 {
		got, err := resolver.Resolve(ctx, "welcome", mailer.Related("site", "9"))
		require.NoError(t, err)
		assert.Nil(t, got.Related)
	}
	assert.EqualValues(t, 2, backend.finds.Load(), "scoped miss and global hit, each once")
}
