// Package markdown renders blog post bodies to HTML.
//
// Raw HTML embedded in the source is not passed through; GitHub flavoured
// tables, strikethrough, task lists and autolinks are enabled.
package markdown

import (
	"bytes"
	"context"
	"html/template"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Markdown returns a templ.Component that renders content as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Render(w, content)
	})
}

// Render writes the HTML form of md to w.
func Render(w io.Writer, md string) error {
	return renderer.Convert([]byte(md), w)
}

// HTML renders md for use inside html/template. On a conversion error the
// escaped source is returned instead.
func HTML(md string) template.HTML {
	var buf bytes.Buffer
	if err := Render(&buf, md); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var (
	reImage   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	reLink    = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	reMarkers = regexp.MustCompile("[#*_`>~|]+")
	reSpace   = regexp.MustCompile(`\s+`)
)

// PlainText strips markdown syntax, leaving readable text. Used for
// excerpts and word counts.
func PlainText(md string) string {
	s := reImage.ReplaceAllString(md, "$1")
	s = reLink.ReplaceAllString(s, "$1")
	s = reMarkers.ReplaceAllString(s, " ")
	s = reSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
