package linter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/slide-qa/internal/deck"
	"github.com/ironsheep/slide-qa/internal/deck/decktest"
	"github.com/ironsheep/slide-qa/internal/geometry"
)

var widescreen = geometry.Canvas{Width: 12192000, Height: 6858000}

func rect(id int, name string, left, top, width, height int64) geometry.Shape {
	return geometry.Shape{ID: id, Name: name, Left: left, Top: top, Width: width, Height: height, HasGeometry: true}
}

func countKind(issues []Issue, kind IssueKind) int {
	n := 0
	for _, i := range issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

func TestLintSlide_OffCanvasTolerance(t *testing.T) {
	tol := float64(DefaultTolerance)

	tests := []struct {
		name    string
		shape   geometry.Shape
		flagged bool
	}{
		{"fills canvas", rect(1, "bg", 0, 0, widescreen.Width, widescreen.Height), false},
		{"inside", rect(1, "body", 500000, 500000, 1000000, 1000000), false},
		{"touches right edge", rect(1, "edge", widescreen.Width-100, 0, 100, 100), false},
		{"within tolerance", rect(1, "nudge", -int64(tol/2), 0, 100000, 100000), false},
		{"twice tolerance left", rect(1, "left", -int64(2*tol), 0, 100000, 100000), true},
		{"below bottom", rect(1, "low", 0, widescreen.Height, 100, int64(2*tol)), true},
		{"above top", rect(1, "high", 0, -int64(2*tol), 100, 100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := LintSlide(0, []geometry.Shape{tt.shape}, widescreen, Options{})
			if got := countKind(issues, OffCanvas) == 1; got != tt.flagged {
				t.Errorf("flagged: got %v, want %v (issues=%v)", got, tt.flagged, issues)
			}
		})
	}
}

func TestLintSlide_OffCanvasScenario(t *testing.T) {
	s := rect(7, "Stray Logo", -50000, 0, 100000, 100000)
	issues := LintSlide(0, []geometry.Shape{s}, widescreen, Options{})

	if len(issues) != 1 || issues[0].Kind != OffCanvas || issues[0].ShapeA != "Stray Logo" {
		t.Fatalf("issues: got %v, want one off-canvas issue", issues)
	}
	if got := geometry.ToNormalized(s, widescreen.Width, widescreen.Height); got != [4]int{0, 0, 8, 14} {
		t.Errorf("normalized box: got %v, want [0 0 8 14]", got)
	}
}

func TestLintSlide_OverlapThreshold(t *testing.T) {
	// A is 1000x1000; B is 400x500 (area 200000), positioned so the
	// intersection area is exactly dx*dy.
	a := rect(1, "A", 0, 0, 1000, 1000)
	canvas := geometry.Canvas{Width: 5000, Height: 5000}

	tests := []struct {
		name    string
		dx, dy  int64
		flagged bool
	}{
		{"exactly five percent", 20, 500, false},
		{"just over five percent", 73, 137, true},
		{"five point one percent", 30, 340, true},
		{"shared edge", 0, 500, false},
		{"disjoint", -10, 500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := rect(2, "B", 1000-tt.dx, 1000-tt.dy, 400, 500)
			if tt.dy == 500 {
				b.Top = 0
			}
			issues := LintSlide(0, []geometry.Shape{a, b}, canvas, Options{})
			if got := countKind(issues, Overlap) == 1; got != tt.flagged {
				t.Errorf("flagged: got %v, want %v (issues=%v)", got, tt.flagged, issues)
			}
		})
	}
}

func TestLintSlide_OverlapReportedOnce(t *testing.T) {
	shapes := []geometry.Shape{
		rect(1, "A", 0, 0, 1000, 1000),
		rect(2, "B", 500, 500, 1000, 1000),
		rect(3, "C", 100, 100, 200, 200),
	}
	issues := LintSlide(2, shapes, geometry.Canvas{Width: 5000, Height: 5000}, Options{})

	pairs := map[string]int{}
	for _, i := range issues {
		if i.Kind != Overlap {
			t.Fatalf("unexpected issue %v", i)
		}
		if i.Slide != 2 {
			t.Errorf("slide: got %d, want 2", i.Slide)
		}
		key := i.ShapeA + "|" + i.ShapeB
		if i.ShapeB < i.ShapeA {
			key = i.ShapeB + "|" + i.ShapeA
		}
		pairs[key]++
	}

	want := map[string]int{"A|B": 1, "A|C": 1}
	if len(pairs) != len(want) {
		t.Fatalf("pairs: got %v, want %v", pairs, want)
	}
	for k, n := range want {
		if pairs[k] != n {
			t.Errorf("pair %s reported %d times, want %d", k, pairs[k], n)
		}
	}
}

func TestLintSlide_RotatedShapesExcluded(t *testing.T) {
	base := rect(1, "Photo", 100, 100, 1000, 1000)
	rotated := rect(2, "Banner", 100, 100, 1000, 1000)
	rotated.Rotation = 30

	issues := LintSlide(0, []geometry.Shape{base, rotated}, geometry.Canvas{Width: 5000, Height: 5000}, Options{})
	if len(issues) != 0 {
		t.Errorf("rotated overlap should be ignored, got %v", issues)
	}

	offCanvas := rect(3, "Tilted", -1000000, 0, 100, 100)
	offCanvas.Rotation = 90
	if issues := LintSlide(0, []geometry.Shape{offCanvas}, widescreen, Options{}); len(issues) != 0 {
		t.Errorf("rotated shapes are not checked against the canvas, got %v", issues)
	}
}

func TestLintSlide_ZeroAreaAndEmpty(t *testing.T) {
	if issues := LintSlide(0, nil, widescreen, Options{}); len(issues) != 0 {
		t.Errorf("empty slide: got %v", issues)
	}

	line := rect(1, "Connector", 0, 500, 2000, 0)
	box := rect(2, "Box", 0, 0, 1000, 1000)
	issues := LintSlide(0, []geometry.Shape{line, box}, geometry.Canvas{Width: 5000, Height: 5000}, Options{})
	if len(issues) != 0 {
		t.Errorf("zero-area shapes cannot overlap materially, got %v", issues)
	}
}

func TestLintSlide_CustomOptions(t *testing.T) {
	a := rect(1, "A", 0, 0, 1000, 1000)
	b := rect(2, "B", 900, 0, 1000, 1000) // 10% overlap
	canvas := geometry.Canvas{Width: 5000, Height: 5000}

	if issues := LintSlide(0, []geometry.Shape{a, b}, canvas, Options{OverlapThreshold: 0.2}); len(issues) != 0 {
		t.Errorf("threshold 0.2: got %v", issues)
	}

	stray := rect(3, "Stray", -100, 0, 10, 10)
	if issues := LintSlide(0, []geometry.Shape{stray}, canvas, Options{Tolerance: 200}); len(issues) != 0 {
		t.Errorf("tolerance 200: got %v", issues)
	}

	edge := rect(4, "Edge", -1000, 0, 2000, 2000)
	if issues := LintSlide(0, []geometry.Shape{edge}, canvas, Options{ExactTolerance: true}); countKind(issues, OffCanvas) != 1 {
		t.Errorf("exact zero tolerance must flag a 1000 EMU overhang, got %v", issues)
	}
	if issues := LintSlide(0, []geometry.Shape{edge}, canvas, Options{}); len(issues) != 0 {
		t.Errorf("unset tolerance should fall back to the default, got %v", issues)
	}
}

func TestLintDocument(t *testing.T) {
	rotated := rect(3, "Rotated", 0, 0, 1000, 1000)
	rotated.Rotation = 15
	noFrame := geometry.Shape{ID: 4, Name: "Footer"}

	doc := &deck.Document{
		Canvas: geometry.Canvas{Width: 10000, Height: 5000},
		Slides: []deck.Slide{
			{Index: 0, Shapes: []geometry.Shape{rect(1, "Title", 0, 0, 5000, 1000), rotated, noFrame}},
			{Index: 1},
			{Index: 2, Shapes: []geometry.Shape{rect(1, "A", 0, 0, 1000, 1000), rect(2, "B", 0, 0, 1000, 1000)}},
		},
	}

	res := LintDocument(doc, Options{})
	if res.Passed {
		t.Error("document with an overlap should fail")
	}
	if len(res.Issues) != 1 || res.Issues[0].Slide != 2 {
		t.Errorf("issues: got %v", res.Issues)
	}

	first, ok := res.Map.Lookup(0)
	if !ok || len(first) != 3 {
		t.Fatalf("slide 0 map: got %v", first)
	}
	if first[1].Name != "Rotated" || first[1].Rotation != 15 {
		t.Errorf("rotated shape should be mapped: %+v", first[1])
	}
	if first[0].BBox != [4]int{0, 0, 500, 200} {
		t.Errorf("title bbox: got %v", first[0].BBox)
	}
	if empty, ok := res.Map.Lookup(1); !ok || len(empty) != 0 {
		t.Errorf("empty slide should be present with no entries, got %v %v", empty, ok)
	}
}

func TestLintFile(t *testing.T) {
	dir := t.TempDir()
	path := decktest.Deck{
		Width:  12192000,
		Height: 6858000,
		Slides: [][]decktest.Shape{{
			{ID: 2, Name: "Title", Left: 457200, Top: 274638, Width: 8229600, Height: 1143000, Text: "Agenda"},
		}},
	}.Write(t, dir, "ok.pptx")
	mapPath := filepath.Join(dir, "out", "shapemap.json")

	res, err := LintFile(path, mapPath, Options{})
	if err != nil {
		t.Fatalf("LintFile failed: %v", err)
	}
	if !res.Passed {
		t.Errorf("expected pass, got %v", res.Issues)
	}
	if _, err := os.Stat(mapPath); err != nil {
		t.Errorf("shape map not written: %v", err)
	}
}

func TestLintFile_FailsClosed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pptx")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	mapPath := filepath.Join(dir, "shapemap.json")

	res, err := LintFile(path, mapPath, Options{})
	if err == nil {
		t.Fatal("expected error for unreadable document")
	}
	if res.Passed {
		t.Error("unreadable document must not pass")
	}
	if _, err := os.Stat(mapPath); !os.IsNotExist(err) {
		t.Errorf("no shape map should be written, stat err=%v", err)
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, Result{Passed: true})
	if !strings.Contains(buf.String(), "passed") {
		t.Errorf("pass report: %q", buf.String())
	}

	buf.Reset()
	PrintReport(&buf, Result{Issues: []Issue{
		{Kind: OffCanvas, Slide: 0, ShapeA: "Logo"},
		{Kind: Overlap, Slide: 3, ShapeA: "A", ShapeB: "B", Ratio: 0.25},
	}})
	out := buf.String()
	for _, want := range []string{"2 issue(s)", `Slide 1: shape "Logo" is off-canvas`, `Slide 4: shapes "A" and "B" overlap (25.0%`} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
