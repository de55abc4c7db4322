package linter

import "fmt"

// IssueKind distinguishes lint findings.
type IssueKind int

const (
	// OffCanvas means a shape extends past the tolerated canvas.
	OffCanvas IssueKind = iota + 1
	// Overlap means two shapes overlap by more than the threshold.
	Overlap
)

func (k IssueKind) String() string {
	switch k {
	case OffCanvas:
		return "off-canvas"
	case Overlap:
		return "overlap"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Issue is a single lint finding. ShapeB is only set for overlaps.
type Issue struct {
	Kind IssueKind `json:"kind"`

	// Slide is the 0-based slide index.
	Slide  int    `json:"slide"`
	ShapeA string `json:"shape_a"`
	ShapeB string `json:"shape_b,omitempty"`

	// Ratio is the intersection over the smaller area, for overlaps.
	Ratio float64 `json:"ratio,omitempty"`
}

func (i Issue) String() string {
	switch i.Kind {
	case OffCanvas:
		return fmt.Sprintf("Slide %d: shape %q is off-canvas", i.Slide+1, i.ShapeA)
	case Overlap:
		return fmt.Sprintf("Slide %d: shapes %q and %q overlap (%.1f%% of the smaller shape)", i.Slide+1, i.ShapeA, i.ShapeB, i.Ratio*100)
	default:
		return fmt.Sprintf("Slide %d: unknown issue", i.Slide+1)
	}
}
