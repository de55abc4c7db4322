package critique

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// PassSentinel is the reply that means the model found no defects.
const PassSentinel = "PASS"

// ErrNotConfigured means the critique backend lacks an endpoint, project or
// credentials.
var ErrNotConfigured = errors.New("critique service not configured")

// TransportError is a failed call to the critique service.
type TransportError struct {
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("critique request failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("critique request failed with status %d: %v", e.Status, e.Err)
	default:
		return fmt.Sprintf("critique request failed with status %d: %s", e.Status, truncate(e.Body, 300))
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Critique is the outcome of reviewing one slide.
type Critique struct {
	// SlideIndex is 0-based.
	SlideIndex int `json:"slide_index"`

	// Text is the model's reply with surrounding whitespace removed.
	Text string `json:"text"`

	// Pass is true when the reply is the PASS sentinel.
	Pass bool `json:"pass"`

	// Skipped is true when no critique could be obtained.
	Skipped bool `json:"skipped"`

	// Reason explains a skip.
	Reason string `json:"reason,omitempty"`
}

// NewCritique classifies a raw reply. A reply consisting of PASS alone, in
// any case and with optional trailing punctuation, is a pass.
func NewCritique(slide int, raw string) Critique {
	text := strings.TrimSpace(raw)
	verdict := strings.TrimRight(strings.Trim(text, "*`\"' "), ".!")
	return Critique{
		SlideIndex: slide,
		Text:       text,
		Pass:       strings.EqualFold(verdict, PassSentinel),
	}
}

// Skipped records a slide for which no critique was obtained.
func Skipped(slide int, err error) Critique {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Critique{SlideIndex: slide, Skipped: true, Reason: reason}
}

// Critic reviews one marked slide image (PNG bytes).
type Critic interface {
	Critique(ctx context.Context, slide int, png []byte) (Critique, error)
}

// Disabled is a Critic for runs without a configured backend. Every call
// returns ErrNotConfigured.
type Disabled struct {
	Reason string
}

// Critique implements Critic.
func (d Disabled) Critique(context.Context, int, []byte) (Critique, error) {
	if d.Reason != "" {
		return Critique{}, fmt.Errorf("%w: %s", ErrNotConfigured, d.Reason)
	}
	return Critique{}, ErrNotConfigured
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
