package geometry

import "math"

// EMUPerCentimeter is the number of OOXML English Metric Units in one centimeter.
const EMUPerCentimeter = 360000

// NormalizedScale is the upper bound of the normalized coordinate space.
const NormalizedScale = 1000

const rotationEpsilon = 1e-9

// Shape is one drawable element on a slide, in native document units.
type Shape struct {
	// ID is unique within a slide.
	ID   int
	Name string

	// Left and Top may be negative for shapes placed off the canvas.
	Left   int64
	Top    int64
	Width  int64
	Height int64

	// Rotation in degrees, clockwise.
	Rotation float64

	// Text is the shape's concatenated text, empty when it carries none.
	Text string

	// HasGeometry is false when no placement could be resolved for the shape
	// (for example a placeholder whose layout defines no position).
	HasGeometry bool
}

// IsRotated reports whether the shape is rotated by anything other than a
// whole turn.
func (s Shape) IsRotated() bool {
	r := math.Mod(s.Rotation, 360)
	return math.Abs(r) > rotationEpsilon
}

// Measurable reports whether the shape takes part in geometry checks.
func (s Shape) Measurable() bool {
	return s.HasGeometry && !s.IsRotated()
}

// Native returns the shape's [left, top, width, height] in native units.
func (s Shape) Native() [4]int64 {
	return [4]int64{s.Left, s.Top, s.Width, s.Height}
}

// Canvas is the slide size shared by every slide of a document.
type Canvas struct {
	Width  int64
	Height int64
}

// Box returns the canvas as a Cartesian box.
func (c Canvas) Box() Box {
	return Box{MinX: 0, MinY: -float64(c.Height), MaxX: float64(c.Width), MaxY: 0}
}
