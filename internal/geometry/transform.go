package geometry

// ToCartesian maps a shape's document placement (Y down) to a Cartesian box
// (Y up) by negating top and top+height.
//
// The second argument is the slide height. The top edge of the slide stays
// at Y=0, so the height does not shift the result and the canvas box becomes
// [0, -height, width, 0]. The result is only meaningful for shapes that are
// not rotated.
func ToCartesian(s Shape, _ int64) Box {
	return Box{
		MinX: float64(s.Left),
		MinY: -float64(s.Top + s.Height),
		MaxX: float64(s.Left + s.Width),
		MaxY: -float64(s.Top),
	}
}

// ToNormalized scales a shape's [left, top, width, height] into the 0-1000
// space of the canvas, truncating each value toward zero.
//
// Results are clamped so the box stays inside [0, 1000]: x and y are clamped
// to [0, 1000], then w to [0, 1000-x] and h to [0, 1000-y]. A shape hanging
// off the left edge therefore keeps its truncated width but starts at 0.
// A non-positive canvas dimension yields the zero box.
func ToNormalized(s Shape, slideWidth, slideHeight int64) [4]int {
	if slideWidth <= 0 || slideHeight <= 0 {
		return [4]int{}
	}
	x := clamp(scale(s.Left, slideWidth), 0, NormalizedScale)
	y := clamp(scale(s.Top, slideHeight), 0, NormalizedScale)
	w := clamp(scale(s.Width, slideWidth), 0, NormalizedScale-x)
	h := clamp(scale(s.Height, slideHeight), 0, NormalizedScale-y)
	return [4]int{x, y, w, h}
}

// scale multiplies before dividing so exact fractions of the canvas land on
// whole numbers instead of one below them.
func scale(v, extent int64) int {
	return int(float64(v) * NormalizedScale / float64(extent))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
