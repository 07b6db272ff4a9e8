// Package htmltext converts rendered HTML bodies into readable plain text
// for the text/plain part of multipart messages.
//
// Headings become markdown-style "#" lines, list items become "* " lines,
// links keep their target in parentheses, and block elements are separated
// by blank lines. Script, style and head content is dropped.
package htmltext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t\r\n\f]+`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Convert returns the plain text rendition of src.
// Malformed markup is tolerated; conversion stops at the first tokenizer error.
func Convert(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	c := &converter{lineStart: true}
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return c.String()
		case html.TextToken:
			if c.skip == 0 {
				c.text(string(z.Text()))
			}
		case html.StartTagToken:
			c.start(z.Token())
		case html.SelfClosingTagToken:
			tok := z.Token()
			c.start(tok)
			c.end(tok)
		case html.EndTagToken:
			c.end(z.Token())
		}
	}
}

type link struct {
	href  string
	start int
}

type converter struct {
	b         strings.Builder
	links     []link
	skip      int
	lineStart bool
}

func (c *converter) start(tok html.Token) {
	switch tok.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Title:
		c.skip++
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		c.block()
		c.prefix(strings.Repeat("#", headingLevel(tok.DataAtom)) + " ")
	case atom.P, atom.Div, atom.Table, atom.Blockquote, atom.Pre, atom.Section, atom.Article, atom.Ul, atom.Ol:
		c.block()
	case atom.Li:
		c.newline()
		c.prefix("* ")
	case atom.Br:
		c.newline()
	case atom.Hr:
		c.block()
		c.write("---")
		c.block()
	case atom.A:
		c.links = append(c.links, link{href: attr(tok, "href"), start: c.b.Len()})
	case atom.Img:
		if alt := attr(tok, "alt"); alt != "" {
			c.text(alt)
		}
	}
}

func (c *converter) end(tok html.Token) {
	switch tok.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Title:
		if c.skip > 0 {
			c.skip--
		}
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.P, atom.Div, atom.Table, atom.Blockquote, atom.Pre, atom.Section, atom.Article, atom.Ul, atom.Ol:
		c.block()
	case atom.Li, atom.Tr:
		c.newline()
	case atom.Td, atom.Th:
		c.write(" ")
	case atom.A:
		if len(c.links) == 0 {
			return
		}
		l := c.links[len(c.links)-1]
		c.links = c.links[:len(c.links)-1]
		label := strings.TrimSpace(c.b.String()[l.start:])
		if showHref(l.href, label) {
			c.write(" (" + l.href + ")")
		}
	}
}

func (c *converter) text(s string) {
	s = spaceRun.ReplaceAllString(s, " ")
	if c.lineStart {
		s = strings.TrimLeft(s, " ")
	}
	if s == "" {
		return
	}
	c.write(s)
}

func (c *converter) write(s string) {
	c.b.WriteString(s)
	c.lineStart = false
}

func (c *converter) prefix(s string) {
	c.b.WriteString(s)
	c.lineStart = true
}

func (c *converter) newline() {
	if c.b.Len() == 0 {
		return
	}
	if !strings.HasSuffix(c.b.String(), "\n") {
		c.b.WriteByte('\n')
	}
	c.lineStart = true
}

func (c *converter) block() {
	if c.b.Len() == 0 {
		return
	}
	out := c.b.String()
	switch {
	case strings.HasSuffix(out, "\n\n"):
	case strings.HasSuffix(out, "\n"):
		c.b.WriteByte('\n')
	default:
		c.b.WriteString("\n\n")
	}
	c.lineStart = true
}

func (c *converter) String() string {
	lines := strings.Split(c.b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	out := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	default:
		return 6
	}
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// showHref hides targets that add nothing: anchors, empty hrefs and links
// whose label already is the address.
func showHref(href, label string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	if href == label || strings.TrimPrefix(href, "mailto:") == label {
		return false
	}
	return true
}
