package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailtemplates/pkg/logger"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
	"github.com/dmitrymomot/mailtemplates/pkg/mailer/outbox"
)

func TestOutbox(t *testing.T) {
	t.Parallel()

	o := outbox.New(outbox.WithLogger(logger.NewNope()))
	ctx := context.Background()

	conn, err := o.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Deliver(ctx, &mailer.Email{Subject: "one", To: []string{"a@example.com"}}))
	require.NoError(t, conn.Deliver(ctx, &mailer.Email{Subject: "two", To: []string{"b@example.com"}}))
	require.NoError(t, conn.Close())

	sent := o.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "one", sent[0].Subject)
	assert.Equal(t, "two", sent[1].Subject)
	assert.Equal(t, 1, o.Opened())

	o.Reset()
	assert.Empty(t, o.Sent())
	assert.Zero(t, o.Opened())
}

func TestOutbox_FailWith(t *testing.T) {
	t.Parallel()

	o := outbox.New()
	ctx := context.Background()
	boom := errors.New("boom")

	conn, err := o.Open(ctx)
	require.NoError(t, err)

	o.FailWith(boom)
	require.ErrorIs(t, conn.Deliver(ctx, &mailer.Email{}), boom)
	assert.Empty(t, o.Sent())

	o.FailWith(nil)
	require.NoError(t, conn.Deliver(ctx, &mailer.Email{}))
	assert.Len(t, o.Sent(), 1)
}

func TestOutbox_Concurrent(t *testing.T) {
	t.Parallel()

	o := outbox.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, err := o.Open(ctx)
			assert.NoError(t, err)
			assert.NoError(t, conn.Deliver(ctx, &mailer.Email{}))
		}()
	}
	wg.Wait()

	assert.Len(t, o.Sent(), 20)
	assert.Equal(t, 20, o.Opened())
}

func TestOutbox_WithMailer(t *testing.T) {
	t.Parallel()

	o := outbox.New()
	store := staticStore{tmpl: &mailer.Template{
		Name:            "welcome",
		SubjectTemplate: "Welcome {{name}}",
		BodyTemplate:    "Hi {{name}}",
		Enabled:         true,
	}}
	m := mailer.New(store, nil, o)

	_, err := m.SendMail(context.Background(), mailer.SendParams{
		Name:    "welcome",
		Context: mailer.Context{"name": "Ada"},
		To:      []string{"ada@example.com"},
	})
	require.NoError(t, err)

	sent := o.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome Ada", sent[0].Subject)
	assert.Equal(t, "Hi Ada", sent[0].Text)
}

type staticStore struct {
	tmpl *mailer.Template
}

func (s staticStore) FindTemplate(_ context.Context, name string, related *mailer.RelatedKey) (*mailer.Template, error) {
	if related != nil || name != s.tmpl.Name {
		return nil, mailer.ErrTemplateNotFound
	}
	return s.tmpl, nil
}
