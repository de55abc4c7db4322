// Package imaging draws Set-of-Mark overlays on rendered slides and prepares
// images for the critique service.
//
// # Coordinate System
//
// Shape boxes arrive in normalized space: [x, y, w, h] integers in 0-1000,
// relative to the slide width and height. They are scaled to the pixel size of
// each image, so one shape map serves renders of any resolution. Pixel
// coordinates are 0-based with (0,0) at the top-left corner.
//
// # Marks
//
// Each shape gets a translucent fill, a solid outline and a label chip
// carrying its shape ID. Outline colours step around the hue circle so
// neighbouring IDs differ; the label text is black or white, whichever reads
// better on the chip.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Annotate never mutates its
// input image, so several slides can be marked at once.
package imaging
