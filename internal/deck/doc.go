// Package deck reads slide geometry out of OOXML presentation files (.pptx).
//
// Only the parts needed for layout checks are decoded: the slide size and
// slide order from ppt/presentation.xml, and the top-level shape tree of each
// slide. Placeholders that carry no placement of their own inherit it from the
// matching placeholder on the slide layout, then on the slide master.
//
// Group shapes are reported as a single shape using the group's own frame;
// their children are not descended into.
//
// Reading fails as a whole on any structural problem. A partially read deck
// is never returned.
package deck
