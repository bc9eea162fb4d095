package render

import (
	"bytes"
	"html"
	"html/template"

	"github.com/yuin/goldmark"
)

// Markdown converts reviewer-authored Markdown (comment bodies) to HTML.
// Conversion failures degrade to the escaped source text.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<p>" + html.EscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}
