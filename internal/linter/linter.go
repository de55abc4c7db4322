package linter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tidwall/rtree"

	"github.com/ironsheep/slide-qa/internal/deck"
	"github.com/ironsheep/slide-qa/internal/geometry"
	"github.com/ironsheep/slide-qa/internal/shapemap"
)

const (
	// DefaultTolerance is the off-canvas slack in EMU (1 mm).
	DefaultTolerance = geometry.EMUPerCentimeter / 10

	// DefaultOverlapThreshold is the intersection over smaller-area ratio
	// above which an overlap is reported. Equal ratios are not reported.
	DefaultOverlapThreshold = 0.05
)

// Options tunes the checks. Zero values select the defaults.
type Options struct {
	// Tolerance in native units added around the canvas.
	Tolerance float64

	// ExactTolerance uses Tolerance as given, so zero means no slack.
	ExactTolerance bool

	// OverlapThreshold is exclusive.
	OverlapThreshold float64
}

func (o Options) withDefaults() Options {
	if o.Tolerance < 0 || (o.Tolerance == 0 && !o.ExactTolerance) {
		o.Tolerance = DefaultTolerance
	}
	if o.OverlapThreshold <= 0 {
		o.OverlapThreshold = DefaultOverlapThreshold
	}
	return o
}

// Result is the outcome of linting a document.
type Result struct {
	// Passed is true iff there are no issues.
	Passed bool              `json:"passed"`
	Issues []Issue           `json:"issues"`
	Map    shapemap.ShapeMap `json:"-"`
}

// LintDocument checks every slide of doc.
func LintDocument(doc *deck.Document, opts Options) Result {
	opts = opts.withDefaults()

	res := Result{Map: shapemap.ShapeMap{}}
	for _, slide := range doc.Slides {
		res.Map.Ensure(slide.Index)
		for _, s := range slide.Shapes {
			res.Map.Add(slide.Index, shapemap.NewEntry(s, doc.Canvas))
		}
		issues := LintSlide(slide.Index, slide.Shapes, doc.Canvas, opts)
		res.Issues = append(res.Issues, issues...)
	}
	res.Passed = len(res.Issues) == 0
	return res
}

// placed is a measurable shape with its Cartesian box.
type placed struct {
	shape geometry.Shape
	box   geometry.Box
}

// LintSlide runs the off-canvas and overlap checks for one slide.
func LintSlide(index int, shapes []geometry.Shape, canvas geometry.Canvas, opts Options) []Issue {
	opts = opts.withDefaults()

	var tr rtree.RTreeG[int]
	items := make([]placed, 0, len(shapes))
	for _, s := range shapes {
		if !s.Measurable() {
			slog.Debug("Excluding shape from geometry checks", "slide", index+1, "shape", s.Name, "rotation", s.Rotation, "hasGeometry", s.HasGeometry)
			continue
		}
		b := geometry.ToCartesian(s, canvas.Height)
		tr.Insert(b.Min(), b.Max(), len(items))
		items = append(items, placed{shape: s, box: b})
	}

	var issues []Issue

	bounds := canvas.Box().Expand(opts.Tolerance)
	for _, it := range items {
		if !bounds.Contains(it.box) {
			issues = append(issues, Issue{Kind: OffCanvas, Slide: index, ShapeA: it.shape.Name})
		}
	}

	for i, a := range items {
		areaA := a.box.Area()
		tr.Search(a.box.Min(), a.box.Max(), func(_, _ [2]float64, j int) bool {
			// Each pair once, from its lower-ordered member.
			if j <= i {
				return true
			}
			b := items[j]
			smaller := areaA
			if bArea := b.box.Area(); bArea < smaller {
				smaller = bArea
			}
			if smaller <= 0 {
				return true
			}
			ratio := a.box.IntersectionArea(b.box) / smaller
			if ratio > opts.OverlapThreshold {
				issues = append(issues, Issue{Kind: Overlap, Slide: index, ShapeA: a.shape.Name, ShapeB: b.shape.Name, Ratio: ratio})
			}
			return true
		})
	}

	return issues
}

// LintFile opens the document at path, lints it, and writes the shape map to
// mapPath when it is non-empty. A document that cannot be read fails the lint
// and no map is written.
func LintFile(path, mapPath string, opts Options) (Result, error) {
	doc, err := deck.Open(path)
	if err != nil {
		return Result{Passed: false}, fmt.Errorf("lint %s: %w", path, err)
	}

	res := LintDocument(doc, opts)
	if mapPath != "" {
		if err := res.Map.Write(mapPath); err != nil {
			return res, err
		}
	}
	return res, nil
}

// PrintReport writes an itemized issue list to w.
func PrintReport(w io.Writer, res Result) {
	if res.Passed {
		fmt.Fprintln(w, "Lint passed: no layout issues found.")
		return
	}
	fmt.Fprintf(w, "Lint failed: %d issue(s)\n", len(res.Issues))
	for _, issue := range res.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
}
