package anchor

import (
	"testing"

	"github.com/jasoncui/notion-blog/internal/models"
)

func runs(contents ...string) []models.TextRun {
	out := make([]models.TextRun, len(contents))
	for i, c := range contents {
		out[i] = models.TextRun{Content: c}
	}
	return out
}

func TestResolveSingleRun(t *testing.T) {
	a, ok := Resolve("b1", runs("The quick brown fox"), RangeRef{
		StartRun: 0, StartOffset: 4,
		EndRun: 0, EndOffset: 9,
	})
	if !ok {
		t.Fatal("expected ok")
	}
	if a.Start != 4 || a.End != 9 {
		t.Errorf("range = [%d,%d), want [4,9)", a.Start, a.End)
	}
	if a.SelectedText != "quick" {
		t.Errorf("selected = %q, want %q", a.SelectedText, "quick")
	}
	if a.BlockID != "b1" {
		t.Errorf("block = %q", a.BlockID)
	}
}

func TestResolveAcrossRuns(t *testing.T) {
	// "The quick " + "brown" + " fox": select "ick brown f".
	a, ok := Resolve("b1", runs("The quick ", "brown", " fox"), RangeRef{
		StartRun: 0, StartOffset: 6,
		EndRun: 2, EndOffset: 2,
	})
	if !ok {
		t.Fatal("expected ok")
	}
	if a.SelectedText != "ick brown f" {
		t.Errorf("selected = %q", a.SelectedText)
	}
	if a.Start != 6 || a.End != 17 {
		t.Errorf("range = [%d,%d), want [6,17)", a.Start, a.End)
	}
}

func TestResolveInvertedRange(t *testing.T) {
	// Backwards selections arrive with start after end.
	a, ok := Resolve("b1", runs("hello world"), RangeRef{
		StartRun: 0, StartOffset: 11,
		EndRun: 0, EndOffset: 6,
	})
	if !ok {
		t.Fatal("expected ok")
	}
	if a.SelectedText != "world" {
		t.Errorf("selected = %q", a.SelectedText)
	}
}

func TestResolveClampsOutOfRange(t *testing.T) {
	a, ok := Resolve("b1", runs("abc", "def"), RangeRef{
		StartRun: 0, StartOffset: -2,
		EndRun: 9, EndOffset: 99,
	})
	if !ok {
		t.Fatal("expected ok")
	}
	if a.Start != 0 || a.End != 6 {
		t.Errorf("range = [%d,%d), want [0,6)", a.Start, a.End)
	}
	if a.SelectedText != "abcdef" {
		t.Errorf("selected = %q", a.SelectedText)
	}
}

func TestResolveRuneOffsets(t *testing.T) {
	a, ok := Resolve("b1", runs("héllo wörld"), RangeRef{
		StartRun: 0, StartOffset: 6,
		EndRun: 0, EndOffset: 11,
	})
	if !ok {
		t.Fatal("expected ok")
	}
	if a.SelectedText != "wörld" {
		t.Errorf("selected = %q", a.SelectedText)
	}
}

func TestResolveRejectsDegenerate(t *testing.T) {
	if _, ok := Resolve("b1", nil, RangeRef{}); ok {
		t.Error("empty runs should not resolve")
	}
	if _, ok := Resolve("b1", runs("abc"), RangeRef{StartRun: 0, StartOffset: 2, EndRun: 0, EndOffset: 2}); ok {
		t.Error("collapsed range should not resolve")
	}
	if _, ok := Resolve("b1", runs(""), RangeRef{EndOffset: 5}); ok {
		t.Error("empty content should not resolve")
	}
}
