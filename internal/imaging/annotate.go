package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strconv"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/slide-qa/internal/geometry"
	"github.com/ironsheep/slide-qa/internal/shapemap"
)

// ErrNoShapes is returned when the shape map has no entry for the slide being
// annotated. It usually means the render and the map come from different
// builds of the deck.
var ErrNoShapes = errors.New("no shapes for this slide")

// AnnotateOptions controls how marks are drawn. Zero values select defaults.
type AnnotateOptions struct {
	// Color overrides the per-mark palette with a single "#RRGGBB" or
	// "#RRGGBBAA" colour. Invalid values fall back to the palette.
	Color string

	// FillAlpha is the opacity of the box fill (default 40).
	FillAlpha uint8

	// StrokeWidth is the outline width in pixels. Zero scales with the image.
	StrokeWidth int
}

// AnnotateResult describes a saved Set-of-Mark image.
type AnnotateResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Marks  int    `json:"marks"`

	// Image is the marked image that was saved.
	Image *image.RGBA `json:"-"`
}

// Annotate draws one outlined, translucent box per entry, labelled with the
// entry's shape ID. Boxes are read in normalized 0-1000 space and scaled to
// the image's own dimensions.
func Annotate(img image.Image, entries []shapemap.Entry, opts AnnotateOptions) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	fillAlpha := opts.FillAlpha
	if fillAlpha == 0 {
		fillAlpha = 40
	}
	stroke := opts.StrokeWidth
	if stroke <= 0 {
		stroke = max(2, width/480)
	}
	labelScale := max(1, width/640)

	var fixedColor *color.RGBA
	if opts.Color != "" {
		if c, err := parseHexColor(opts.Color); err == nil {
			fixedColor = &c
		}
	}

	for i, e := range entries {
		c := MarkColor(i)
		if fixedColor != nil {
			c = *fixedColor
		}

		r := image.Rect(
			bounds.Min.X+e.BBox[0]*width/geometry.NormalizedScale,
			bounds.Min.Y+e.BBox[1]*height/geometry.NormalizedScale,
			bounds.Min.X+(e.BBox[0]+e.BBox[2])*width/geometry.NormalizedScale,
			bounds.Min.Y+(e.BBox[1]+e.BBox[3])*height/geometry.NormalizedScale,
		).Intersect(bounds)
		if r.Dx() < 1 {
			r.Max.X = min(r.Min.X+1, bounds.Max.X)
		}
		if r.Dy() < 1 {
			r.Max.Y = min(r.Min.Y+1, bounds.Max.Y)
		}

		draw.Draw(result, r, image.NewUniform(withAlpha(c, fillAlpha)), image.Point{}, draw.Over)
		drawOutline(result, r, stroke, withAlpha(c, 230))
		drawLabel(result, r.Min, strconv.Itoa(e.ID), labelScale, c)
	}

	return result
}

// drawOutline strokes the inside edge of r.
func drawOutline(dst *image.RGBA, r image.Rectangle, stroke int, c color.Color) {
	src := image.NewUniform(c)
	sw := min(stroke, r.Dx())
	sh := min(stroke, r.Dy())
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+sh),
		image.Rect(r.Min.X, r.Max.Y-sh, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+sh, r.Min.X+sw, r.Max.Y-sh),
		image.Rect(r.Max.X-sw, r.Min.Y+sh, r.Max.X, r.Max.Y-sh),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

// drawLabel renders text on an opaque chip of colour bg with its top-left
// corner at at, keeping the chip inside the image.
func drawLabel(dst *image.RGBA, at image.Point, text string, scale int, bg color.RGBA) {
	face := basicfont.Face7x13
	pad := 2
	textWidth := font.MeasureString(face, text).Ceil()
	chip := image.NewRGBA(image.Rect(0, 0, textWidth+2*pad, face.Height+pad))
	draw.Draw(chip, chip.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  chip,
		Src:  image.NewUniform(ContrastText(bg)),
		Face: face,
		Dot:  fixed.P(pad, face.Ascent+pad/2),
	}
	d.DrawString(text)

	var label image.Image = chip
	if scale > 1 {
		cb := chip.Bounds()
		label = imaging.Resize(chip, cb.Dx()*scale, cb.Dy()*scale, imaging.NearestNeighbor)
	}

	lb := label.Bounds()
	bounds := dst.Bounds()
	x := min(at.X, bounds.Max.X-lb.Dx())
	y := min(at.Y, bounds.Max.Y-lb.Dy())
	x = max(x, bounds.Min.X)
	y = max(y, bounds.Min.Y)
	draw.Draw(dst, image.Rect(x, y, x+lb.Dx(), y+lb.Dy()), label, lb.Min, draw.Src)
}

// AnnotateSlide marks the render at imagePath with the shapes recorded for
// slide in m and saves the result as PNG at outPath.
//
// It returns an error wrapping ErrNoShapes when m has no entry for slide.
// A slide recorded with zero shapes is annotated (with no marks) normally.
func AnnotateSlide(cache *ImageCache, imagePath string, m shapemap.ShapeMap, slide int, outPath string, opts AnnotateOptions) (*AnnotateResult, error) {
	entries, ok := m.Lookup(slide)
	if !ok {
		return nil, fmt.Errorf("%w: slide index %d", ErrNoShapes, slide)
	}

	img, err := cache.Load(imagePath)
	if err != nil {
		return nil, err
	}

	marked := Annotate(img, entries, opts)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := imgio.Save(outPath, marked, imgio.PNGEncoder()); err != nil {
		return nil, fmt.Errorf("failed to save annotated image: %w", err)
	}

	b := marked.Bounds()
	return &AnnotateResult{
		Path:   outPath,
		Width:  b.Dx(),
		Height: b.Dy(),
		Marks:  len(entries),
		Image:  marked,
	}, nil
}
