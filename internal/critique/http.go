package critique

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single critique call.
const DefaultTimeout = 60 * time.Second

const maxResponseBytes = 4 << 20

// HTTPConfig configures an OpenAI-compatible chat completions backend.
type HTTPConfig struct {
	// Endpoint is the full chat completions URL.
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// HTTP reviews slides through an OpenAI-compatible chat completions API.
type HTTP struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTP creates an HTTP critic. A missing endpoint or API key yields
// ErrNotConfigured.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: critique endpoint must be set", ErrNotConfigured)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: critique API key must be set", ErrNotConfigured)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &HTTP{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}, nil
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatPart struct {
	Type     string     `json:"type"`
	Text     string     `json:"text,omitempty"`
	ImageURL *chatImage `json:"image_url,omitempty"`
}

type chatImage struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// Critique implements Critic.
func (h *HTTP) Critique(ctx context.Context, slide int, png []byte) (Critique, error) {
	body, err := json.Marshal(chatRequest{
		Model: h.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemRubric},
			{Role: "user", Content: []chatPart{
				{Type: "text", Text: UserPrompt},
				{Type: "image_url", ImageURL: &chatImage{URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)}},
			}},
		},
	})
	if err != nil {
		return Critique{}, fmt.Errorf("failed to encode critique request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Critique{}, fmt.Errorf("failed to build critique request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.cfg.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return Critique{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Critique{}, &TransportError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Critique{}, &TransportError{Status: resp.StatusCode, Body: string(data)}
	}

	return NewCritique(slide, ExtractText(data)), nil
}
