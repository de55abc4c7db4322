package geometry

import "math"

// Box is an axis-aligned rectangle in Cartesian coordinates (Y up).
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width of the box.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height of the box.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Area returns the box area, or 0 for degenerate boxes.
func (b Box) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Min returns the lower-left corner in the layout used by spatial indexes.
func (b Box) Min() [2]float64 { return [2]float64{b.MinX, b.MinY} }

// Max returns the upper-right corner in the layout used by spatial indexes.
func (b Box) Max() [2]float64 { return [2]float64{b.MaxX, b.MaxY} }

// Intersection returns the overlapping region of two boxes and whether it has
// positive area. Boxes that only share an edge do not intersect.
func (b Box) Intersection(o Box) (Box, bool) {
	r := Box{
		MinX: math.Max(b.MinX, o.MinX),
		MinY: math.Max(b.MinY, o.MinY),
		MaxX: math.Min(b.MaxX, o.MaxX),
		MaxY: math.Min(b.MaxY, o.MaxY),
	}
	if r.MinX >= r.MaxX || r.MinY >= r.MaxY {
		return Box{}, false
	}
	return r, true
}

// IntersectionArea is the area shared by two boxes.
func (b Box) IntersectionArea(o Box) float64 {
	r, ok := b.Intersection(o)
	if !ok {
		return 0
	}
	return r.Area()
}

// Contains reports whether o lies entirely within b. Shared edges count as
// contained.
func (b Box) Contains(o Box) bool {
	return o.MinX >= b.MinX && o.MaxX <= b.MaxX && o.MinY >= b.MinY && o.MaxY <= b.MaxY
}

// Expand grows the box by d on every side.
func (b Box) Expand(d float64) Box {
	return Box{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}
