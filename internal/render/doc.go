// Package render turns a presentation document into one raster image per
// slide by running external converter commands.
//
// The converter is invoked once for the whole deck and must finish before
// any slide image is used. Images are discovered in the output directory
// and returned in slide order, using the trailing number in each file name.
package render
