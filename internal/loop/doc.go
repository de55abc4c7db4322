// Package loop runs the review loop for one candidate deck.
//
// A run moves through fixed states:
//
//	Init -> LintGate -> Render -> AnnotateAndCritique -> Report -> AutoPatch -> Done
//
// A failed lint or render moves the run to Aborted. Critique problems never
// abort; the slide is recorded as skipped in the report.
//
// Stages hand off through files in the run directory: the shape map, the
// rendered images, the marked images and the iteration report. Every run
// starts from a wiped directory so no artifact of an earlier run survives.
package loop
