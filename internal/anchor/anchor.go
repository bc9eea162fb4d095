// Package anchor translates browser text selections into stable,
// re-derivable anchors. A rendered block is a sequence of <span> elements,
// one per text run; the browser reports a selection relative to whichever
// span it starts and ends in. Resolve maps that back to rune offsets over
// the concatenation of the block's run contents, which is the only offset
// space comments persist.
package anchor

import (
	"strings"

	"github.com/jasoncui/notion-blog/internal/models"
)

// RangeRef is the run-relative shape of a browser selection range: run
// indices paired with rune offsets inside each run.
type RangeRef struct {
	StartRun    int `json:"start_run"`
	StartOffset int `json:"start_offset"`
	EndRun      int `json:"end_run"`
	EndOffset   int `json:"end_offset"`
}

// Resolve converts ref into a block-relative anchor. It returns ok=false for
// degenerate selections: empty runs, a collapsed range, or a range that
// covers no text. Out-of-range run indices and offsets are clamped rather
// than rejected, since a selection ending at a span boundary is routinely
// reported one position past the content.
//
// Selections spanning multiple blocks are not representable here; callers
// truncate to the block containing the selection's start before resolving.
func Resolve(blockID string, runs []models.TextRun, ref RangeRef) (models.Anchor, bool) {
	if len(runs) == 0 {
		return models.Anchor{}, false
	}

	start := absoluteOffset(runs, ref.StartRun, ref.StartOffset)
	end := absoluteOffset(runs, ref.EndRun, ref.EndOffset)
	if start > end {
		start, end = end, start
	}

	text := concat(runs)
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return models.Anchor{}, false
	}

	return models.Anchor{
		BlockID:      blockID,
		Start:        start,
		End:          end,
		SelectedText: string(text[start:end]),
	}, true
}

// absoluteOffset converts (run index, rune offset within run) to a rune
// offset over the concatenated run contents.
func absoluteOffset(runs []models.TextRun, run, offset int) int {
	if run < 0 {
		run = 0
	}
	if run >= len(runs) {
		run = len(runs) - 1
	}
	abs := 0
	for i := 0; i < run; i++ {
		abs += len([]rune(runs[i].Content))
	}
	runLen := len([]rune(runs[run].Content))
	if offset < 0 {
		offset = 0
	}
	if offset > runLen {
		offset = runLen
	}
	return abs + offset
}

func concat(runs []models.TextRun) []rune {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Content)
	}
	return []rune(sb.String())
}
