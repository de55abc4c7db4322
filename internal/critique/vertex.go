package critique

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// DefaultVertexModel is used when no model is configured.
const DefaultVertexModel = "gemini-1.5-pro"

// VertexConfig configures the Vertex AI backend.
type VertexConfig struct {
	ProjectID string
	Region    string
	Model     string
}

// generator is the part of *genai.GenerativeModel the critic uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Vertex reviews slides with a Gemini model on Vertex AI.
type Vertex struct {
	model      generator
	baseClient *genai.Client
}

// NewVertex creates a Vertex AI critic. Missing project or region yields
// ErrNotConfigured.
func NewVertex(ctx context.Context, cfg VertexConfig) (*Vertex, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: vertex project and region must be set", ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVertexModel
	}

	baseClient, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	model := baseClient.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemRubric)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &Vertex{model: model, baseClient: baseClient}, nil
}

// Critique implements Critic.
func (v *Vertex) Critique(ctx context.Context, slide int, png []byte) (Critique, error) {
	resp, err := v.model.GenerateContent(ctx, genai.ImageData("png", png), genai.Text(UserPrompt))
	if err != nil {
		return Critique{}, &TransportError{Err: err}
	}
	if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != 0 {
		slog.Warn("Critique prompt was blocked", "slide", slide+1, "reason", resp.PromptFeedback.BlockReason)
	}
	return NewCritique(slide, responseText(resp)), nil
}

// Close releases the underlying client.
func (v *Vertex) Close() error {
	if v.baseClient != nil {
		return v.baseClient.Close()
	}
	return nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return cleanReply(b.String())
}
