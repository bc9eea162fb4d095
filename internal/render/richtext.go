package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/jasoncui/notion-blog/internal/models"
)

// RichText renders an ordered run sequence as styled spans. Each run maps to
// exactly one <span>, which is what keeps browser selection offsets
// translatable back to run indices.
func RichText(runs []models.TextRun) string {
	var sb strings.Builder
	writeRichText(&mut{&sb}, runs)
	return sb.String()
}

func writeRichText(w *mut, runs []models.TextRun) {
	for i, r := range runs {
		classes := runClasses(r.Annotations)
		w.WriteString(`<span data-run="`)
		fmt.Fprintf(w, "%d", i)
		w.WriteString(`"`)
		if len(classes) > 0 {
			fmt.Fprintf(w, ` class="%s"`, strings.Join(classes, " "))
		}
		if r.Annotations.Color != "" && r.Annotations.Color != "default" {
			fmt.Fprintf(w, ` style="color:%s"`, html.EscapeString(r.Annotations.Color))
		}
		w.WriteString(">")
		if r.Link != "" {
			fmt.Fprintf(w, `<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
				html.EscapeString(r.Link), html.EscapeString(r.Content))
		} else {
			w.WriteString(html.EscapeString(r.Content))
		}
		w.WriteString("</span>")
	}
}

func runClasses(a models.Annotations) []string {
	var classes []string
	if a.Bold {
		classes = append(classes, "bold")
	}
	if a.Italic {
		classes = append(classes, "italic")
	}
	if a.Strikethrough {
		classes = append(classes, "strikethrough")
	}
	if a.Underline {
		classes = append(classes, "underline")
	}
	if a.Code {
		classes = append(classes, "code")
	}
	return classes
}
