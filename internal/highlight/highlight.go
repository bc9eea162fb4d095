// Package highlight computes the colored-overlay segments drawn over a
// block's plain text from the comments anchored to it.
package highlight

import (
	"sort"
	"strings"

	"github.com/jasoncui/notion-blog/internal/models"
)

// Span is one anchor to overlay: a rune range plus the owning comment's
// identity and color.
type Span struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	CommentID string `json:"comment_id"`
	Color     string `json:"color"`
}

// Segment is one piece of the composed output: either plain text or a
// highlighted range tagged with its comment.
type Segment struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
	CommentID   string `json:"comment_id,omitempty"`
	Color       string `json:"color,omitempty"`
}

// SpansFromComments extracts the spans anchored to blockID, preserving the
// comments' order for equal-start tie-breaking.
func SpansFromComments(comments []models.Comment, blockID string) []Span {
	var spans []Span
	for _, c := range comments {
		if c.BlockID != blockID || !c.Anchored() {
			continue
		}
		spans = append(spans, Span{
			Start:     *c.SelectionStart,
			End:       *c.SelectionEnd,
			CommentID: c.ID,
			Color:     c.AuthorColor,
		})
	}
	return spans
}

// Compose walks the concatenation of the block's run contents once and emits
// plain and highlighted segments in order. Spans are sorted by start (stable,
// so equal starts keep their input order); the cursor only moves forward.
//
// Overlapping spans are not merged or nested: a later span that starts
// before the cursor emits its unconsumed remainder as a separate highlighted
// segment. Offsets past the end of the text are clamped, so anchors that
// went stale after a document edit still render best-effort.
func Compose(runs []models.TextRun, spans []Span) []Segment {
	text := concatRunes(runs)
	length := len(text)

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var segments []Segment
	cursor := 0
	for _, sp := range sorted {
		start, end := sp.Start, sp.End
		if start < 0 {
			start = 0
		}
		if end > length {
			end = length
		}
		if start > cursor {
			if start > length {
				start = length
			}
			if start > cursor {
				segments = append(segments, Segment{Text: string(text[cursor:start])})
				cursor = start
			}
		}
		if start < cursor {
			start = cursor
		}
		if end <= start {
			continue
		}
		segments = append(segments, Segment{
			Text:        string(text[start:end]),
			Highlighted: true,
			CommentID:   sp.CommentID,
			Color:       sp.Color,
		})
		cursor = end
	}
	if cursor < length {
		segments = append(segments, Segment{Text: string(text[cursor:])})
	}
	return segments
}

func concatRunes(runs []models.TextRun) []rune {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Content)
	}
	return []rune(sb.String())
}
