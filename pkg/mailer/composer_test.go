package mailer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailtemplates/pkg/mailer"
)

func resolve(t *testing.T, name string) *mailer.Template {
	t.Helper()
	tmpl, err := mailer.NewResolver(newFakeStore()).Resolve(context.Background(), name, nil)
	require.NoError(t, err)
	return tmpl
}

func TestComposer_From(t *testing.T) {
	t.Parallel()

	cfg := mailer.DefaultConfig()
	cfg.DefaultFromEmail = "test1@example.com"
	c := mailer.NewComposer(nil, mailer.StaticConfig(cfg))

	t.Run("configured default", func(t *testing.T) {
		t.Parallel()

		email, err := c.Compose(resolve(t, "Template 1"), testContext, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "test1@example.com", email.From)
	})

	t.Run("template sender", func(t *testing.T) {
		t.Parallel()

		email, err := c.Compose(resolve(t, "Template 2"), testContext, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "example@example.com", email.From)
	})

	t.Run("call site override", func(t *testing.T) {
		t.Parallel()

		email, err := c.Compose(resolve(t, "Template 2"), testContext, mailer.ComposeOptions{From: "inprepare@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "inprepare@example.com", email.From)
	})

	t.Run("built-in default", func(t *testing.T) {
		t.Parallel()

		email, err := mailer.NewComposer(nil, nil).Compose(resolve(t, "Template 1"), nil, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, mailer.DefaultFromEmail, email.From)
	})
}

func TestComposer_Recipients(t *testing.T) {
	t.Parallel()

	c := mailer.NewComposer(nil, nil)
	tmpl := resolve(t, "Template 2")

	t.Run("template lists only", func(t *testing.T) {
		t.Parallel()

		email, err := c.Compose(tmpl, nil, mailer.ComposeOptions{To: []string{"inprepare@example.com"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"inprepare@example.com"}, email.To)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, email.CC)
		assert.Equal(t, []string{"c@example.com", "d@example.com"}, email.BCC)
	})

	t.Run("merged with call site", func(t *testing.T) {
		t.Parallel()

		email, err := c.Compose(tmpl, nil, mailer.ComposeOptions{
			CC:  []string{"inprepare@example.com", "a@example.com"},
			BCC: []string{"inprepare2@example.com"},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a@example.com", "b@example.com", "inprepare@example.com"}, email.CC)
		assert.ElementsMatch(t, []string{"c@example.com", "d@example.com", "inprepare2@example.com"}, email.BCC)
		assert.Empty(t, email.To)
	})

	t.Run("template is not modified", func(t *testing.T) {
		t.Parallel()

		_, err := c.Compose(tmpl, nil, mailer.ComposeOptions{CC: []string{"x@example.com"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, tmpl.BaseCC)
	})
}

func TestComposer_Render(t *testing.T) {
	t.Parallel()

	c := mailer.NewComposer(nil, nil)

	email, err := c.Compose(resolve(t, "Template 1"), testContext, mailer.ComposeOptions{
		SubjectPrefix: "[Test] ",
		Headers:       map[string]string{"X-Campaign": "spring"},
		Tags:          mailer.SimpleTags("welcome"),
	})
	require.NoError(t, err)
	assert.Equal(t, "[Test] Test 1 Subject *HELLO*", email.Subject)
	assert.Equal(t, "Test 1 body *WORLD*", email.Text)
	assert.Empty(t, email.HTML)
	assert.Equal(t, "spring", email.Headers["X-Campaign"])
	assert.Contains(t, email.Tags, "welcome")
	assert.Equal(t, "Template 1", email.Template.Name)
	assert.Nil(t, email.Template.Related)
}

func TestComposer_RelatedSnapshot(t *testing.T) {
	t.Parallel()

	tmpl, err := mailer.NewResolver(newFakeStore()).Resolve(context.Background(), "Template 1", site1)
	require.NoError(t, err)

	email, err := mailer.NewComposer(nil, nil).Compose(tmpl, testContext, mailer.ComposeOptions{})
	require.NoError(t, err)
	require.NotNil(t, email.Template.Related)
	assert.True(t, email.Template.Related.Equal(site1))
	assert.NotSame(t, tmpl.Related, email.Template.Related)
}

func TestComposer_HTML(t *testing.T) {
	t.Parallel()

	t.Run("ignored when html is not allowed", func(t *testing.T) {
		t.Parallel()

		email, err := mailer.NewComposer(nil, nil).Compose(resolve(t, "Template 5"), testContext, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Empty(t, email.HTML)
		assert.False(t, email.IsMultipart())
	})

	t.Run("rendered with autogenerated text", func(t *testing.T) {
		t.Parallel()

		c := mailer.NewComposer(nil, mailer.StaticConfig(htmlConfig()))
		email, err := c.Compose(resolve(t, "Template 5"), testContext, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "<h1>*HELLO* *WORLD* in HTML!</h1>", email.HTML)
		assert.Equal(t, "# *HELLO* *WORLD* in HTML!", email.Text)
		assert.True(t, email.IsMultipart())
	})

	t.Run("text body wins over autogeneration", func(t *testing.T) {
		t.Parallel()

		tmpl := resolve(t, "Template 5")
		withText := *tmpl
		withText.BodyTemplate = "Plain {{hello}}"

		c := mailer.NewComposer(nil, mailer.StaticConfig(htmlConfig()))
		email, err := c.Compose(&withText, testContext, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Plain *HELLO*", email.Text)
	})

	t.Run("html escapes context values", func(t *testing.T) {
		t.Parallel()

		c := mailer.NewComposer(nil, mailer.StaticConfig(htmlConfig()))
		email, err := c.Compose(resolve(t, "Template 5"), mailer.Context{"hello": "<script>", "world": "&"}, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "<h1>&lt;script&gt; &amp; in HTML!</h1>", email.HTML)
	})

	t.Run("markdown body becomes html", func(t *testing.T) {
		t.Parallel()

		c := mailer.NewComposer(nil, mailer.StaticConfig(htmlConfig()))
		email, err := c.Compose(resolve(t, "Markdown"), testContext, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "# Hi *HELLO*", email.Text)
		assert.Contains(t, email.HTML, "<h1>")
		assert.Contains(t, email.HTML, "<em>HELLO</em>")
	})

	t.Run("sanitized when enabled", func(t *testing.T) {
		t.Parallel()

		cfg := htmlConfig()
		cfg.SanitizeHTML = true
		tmpl := &mailer.Template{
			Name:             "unsafe",
			SubjectTemplate:  "s",
			BodyTemplateHTML: `<p onclick="x()">Hi</p><script>alert(1)</script>`,
			Enabled:          true,
		}
		email, err := mailer.NewComposer(nil, mailer.StaticConfig(cfg)).Compose(tmpl, nil, mailer.ComposeOptions{})
		require.NoError(t, err)
		assert.Equal(t, "<p>Hi</p>", email.HTML)
	})
}

func TestComposer_RenderError(t *testing.T) {
	t.Parallel()

	_, err := mailer.NewComposer(nil, nil).Compose(resolve(t, "Broken"), nil, mailer.ComposeOptions{})
	require.ErrorIs(t, err, mailer.ErrRenderFailed)
	assert.Contains(t, err.Error(), "subject")
}
