// Package critique asks a multimodal model to review a marked slide image.
//
// The model sees the slide with numbered boxes drawn over every shape and a
// fixed rubric asking it to report collisions, clipped or off-slide text,
// empty placeholders and unreadable contrast, referring to shapes only by the
// visible numbers. It answers with free text or the single word PASS.
//
// Two backends are provided: Vertex AI (Gemini) through the genai SDK, and any
// OpenAI-compatible chat completions endpoint over HTTP. Whatever the wire
// format, replies are reduced to one plain-text string before they leave this
// package, and NewCritique is the only place that decides whether a reply
// means PASS.
//
// Visual review is advisory. Missing configuration yields ErrNotConfigured
// and HTTP failures yield *TransportError; callers record the slide as
// skipped and carry on. An empty or unparseable reply is not an error: it is
// an empty critique.
package critique
