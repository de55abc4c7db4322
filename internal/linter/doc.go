// Package linter checks slide geometry before a deck is rendered.
//
// Each slide is checked independently:
//
//   - Off-canvas: every measurable shape must lie inside the canvas grown by
//     a fixed tolerance on each side.
//   - Overlap: candidate pairs come from an R-tree over the shapes' Cartesian
//     boxes; a pair is reported when its intersection exceeds a fraction of
//     the smaller shape's area. Touching frames and small incidental overlaps
//     stay under the threshold.
//
// Rotated shapes and shapes without resolvable placement are excluded from
// both checks but are always recorded in the shape map, so every shape can be
// annotated on the rendered slide.
//
// The index is built per slide and discarded when the slide is done.
package linter
