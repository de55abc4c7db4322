// Package geometry converts slide shape placement into forms suitable for
// geometric checks and for resolution-independent annotation.
//
// # Coordinate Systems
//
// Slide documents place shapes in native units (EMU for OOXML decks) with the
// origin at the top-left corner and Y increasing downward. This package works
// with two derived forms:
//
//   - Cartesian boxes: the same extents with Y negated, so the canvas occupies
//     [0, -height, width, 0]. All overlap and containment decisions use this
//     form and stay in native units.
//   - Normalized boxes: [x, y, w, h] integers in the closed range [0, 1000]
//     relative to the canvas. These are lossy and are only used to place
//     overlays on rendered images of unknown resolution.
//
// # Rotation
//
// Rotated shapes are not axis-aligned, so their Cartesian box does not describe
// their footprint. Callers filter them with IsRotated before any geometric
// check; they still receive a normalized box so they can be annotated.
package geometry
