// Package sanitizer cleans rendered HTML email bodies before they leave the
// process.
package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// emailPolicy starts from bluemonday's UGC policy and adds the layout markup
// mail clients still depend on: tables, presentational attributes and a short
// list of inline styles.
var emailPolicy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("center", "font", "span", "div")
	p.AllowAttrs("align", "valign", "width", "height", "bgcolor", "border", "cellpadding", "cellspacing").
		OnElements("table", "tr", "td", "th", "img", "div", "p")
	p.AllowAttrs("color", "face", "size").OnElements("font")
	p.AllowStyles(
		"color", "background-color",
		"font-family", "font-size", "font-weight", "font-style",
		"text-align", "text-decoration", "line-height",
		"padding", "margin", "border", "width", "max-width",
	).Globally()
	// Links in transactional mail point at our own product.
	p.RequireNoFollowOnLinks(false)
	return p
})

// SanitizeEmailHTML removes scripts, event handlers, forms and unsafe URLs
// from a rendered HTML body. Table layout and the allowed inline styles
// survive. The policy is safe for concurrent use.
func SanitizeEmailHTML(s string) string {
	return emailPolicy().Sanitize(s)
}
