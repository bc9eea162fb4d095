// Package render maps block trees to presentational HTML. Rendering is a
// pure function of the block tree and never fails: unknown or malformed
// blocks degrade to a visible placeholder instead of aborting the page.
package render

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/jasoncui/notion-blog/internal/models"
)

// Blocks renders an ordered block sequence. Consecutive list items collapse
// into a single <ul> or <ol>; the wrapper tag follows the FIRST item's kind,
// so mixed sibling list types render under the first item's list type.
func Blocks(blocks []*models.Block) template.HTML {
	var sb strings.Builder
	writeBlocks(&mut{&sb}, blocks)
	return template.HTML(sb.String())
}

// Block renders a single block, without list grouping against siblings.
func Block(b *models.Block) template.HTML {
	var sb strings.Builder
	writeBlock(&mut{&sb}, b)
	return template.HTML(sb.String())
}

type mut struct {
	*strings.Builder
}

func writeBlocks(w *mut, blocks []*models.Block) {
	for i := 0; i < len(blocks); i++ {
		b := blocks[i]
		if !b.Kind.IsListItem() {
			writeBlock(w, b)
			continue
		}

		// Accumulate the consecutive run of list items.
		j := i
		for j < len(blocks) && blocks[j].Kind.IsListItem() {
			j++
		}
		writeList(w, blocks[i:j], blocks[i].Kind)
		i = j - 1
	}
}

func writeList(w *mut, items []*models.Block, first models.BlockKind) {
	tag := "ul"
	if first == models.KindNumberedItem {
		tag = "ol"
	}
	fmt.Fprintf(w, "<%s>", tag)
	for _, item := range items {
		writeBlock(w, item)
	}
	fmt.Fprintf(w, "</%s>", tag)
}

func writeBlock(w *mut, b *models.Block) {
	switch b.Kind {
	case models.KindParagraph:
		w.WriteString("<p>")
		writeRichText(w, b.RichText)
		w.WriteString("</p>")

	case models.KindHeading1:
		writeHeading(w, b, "h1")
	case models.KindHeading2:
		writeHeading(w, b, "h2")
	case models.KindHeading3:
		writeHeading(w, b, "h3")

	case models.KindBulletedItem, models.KindNumberedItem:
		fmt.Fprintf(w, `<li data-block-id="%s">`, html.EscapeString(b.ID))
		writeRichText(w, b.RichText)
		writeNestedList(w, b)
		w.WriteString("</li>")

	case models.KindToDo:
		checked := ""
		if b.Checked {
			checked = " checked"
		}
		fmt.Fprintf(w, `<div class="to-do"><label><input type="checkbox" disabled%s> `, checked)
		writeRichText(w, b.RichText)
		w.WriteString("</label></div>")

	case models.KindToggle:
		w.WriteString("<details><summary>")
		writeRichText(w, b.RichText)
		w.WriteString("</summary>")
		writeBlocks(w, b.Children)
		w.WriteString("</details>")

	case models.KindChildPage:
		fmt.Fprintf(w, "<p>%s</p>", html.EscapeString(b.Title))

	case models.KindImage:
		src := b.URL
		if b.LocalURL != "" {
			src = b.LocalURL
		}
		if src == "" {
			writePlaceholder(w, b.Kind)
			return
		}
		fmt.Fprintf(w, `<figure><img src="%s" alt="%s">`,
			html.EscapeString(src), html.EscapeString(b.Caption))
		if b.Caption != "" {
			fmt.Fprintf(w, "<figcaption>%s</figcaption>", html.EscapeString(b.Caption))
		}
		w.WriteString("</figure>")

	case models.KindDivider:
		w.WriteString("<hr>")

	case models.KindQuote:
		w.WriteString("<blockquote>")
		writeRichText(w, b.RichText)
		w.WriteString("</blockquote>")

	case models.KindCode:
		lang := ""
		if b.Language != "" {
			lang = fmt.Sprintf(` class="language-%s"`, html.EscapeString(b.Language))
		}
		fmt.Fprintf(w, "<pre><code%s>%s</code></pre>", lang, html.EscapeString(b.PlainText()))

	case models.KindFile:
		if b.URL == "" {
			writePlaceholder(w, b.Kind)
			return
		}
		name := fileName(b.URL)
		fmt.Fprintf(w, `<figure><div class="file">📎 <a href="%s">%s</a></div>`,
			html.EscapeString(b.URL), html.EscapeString(name))
		if b.Caption != "" {
			fmt.Fprintf(w, "<figcaption>%s</figcaption>", html.EscapeString(b.Caption))
		}
		w.WriteString("</figure>")

	case models.KindBookmark:
		fmt.Fprintf(w, `<a class="bookmark" href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(b.URL), html.EscapeString(b.URL))

	default:
		if b.Kind == models.KindUnsupported && b.Title != "" {
			writePlaceholderLabel(w, b.Title)
			return
		}
		writePlaceholder(w, b.Kind)
	}
}

func writeHeading(w *mut, b *models.Block, tag string) {
	fmt.Fprintf(w, "<%s>", tag)
	writeRichText(w, b.RichText)
	fmt.Fprintf(w, "</%s>", tag)
}

// writeNestedList renders a list item's children as a nested list. The
// wrapper tag is chosen by inspecting the first child's kind.
func writeNestedList(w *mut, b *models.Block) {
	if len(b.Children) == 0 {
		return
	}
	if b.Children[0].Kind.IsListItem() {
		writeList(w, b.Children, b.Children[0].Kind)
		return
	}
	writeBlocks(w, b.Children)
}

func writePlaceholder(w *mut, kind models.BlockKind) {
	label := string(kind)
	if kind == models.KindUnsupported || label == "" {
		label = "unsupported by the source API"
	}
	writePlaceholderLabel(w, label)
}

func writePlaceholderLabel(w *mut, label string) {
	fmt.Fprintf(w, `<div class="unsupported-block">❌ Unsupported block (%s)</div>`,
		html.EscapeString(label))
}

func fileName(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	last := parts[len(parts)-1]
	if i := strings.IndexByte(last, '?'); i >= 0 {
		last = last[:i]
	}
	return last
}
