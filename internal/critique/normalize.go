package critique

import (
	"encoding/json"
	"strings"
)

// replyEnvelope covers the response bodies of the chat-style APIs we accept.
// Only the fields that carry reply text are declared.
type replyEnvelope struct {
	// OpenAI chat completions and legacy completions.
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`

	// Gemini REST.
	Candidates []struct {
		Content struct {
			Parts []textPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`

	// OpenAI responses API convenience field.
	OutputText string `json:"output_text"`

	// Anthropic messages.
	Content []textPart `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ExtractText pulls the reply text out of a response body. Unknown shapes,
// malformed JSON and empty bodies all yield "".
func ExtractText(body []byte) string {
	var env replyEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}

	var parts []string
	switch {
	case len(env.Choices) > 0:
		c := env.Choices[0]
		if s := contentText(c.Message.Content); s != "" {
			parts = append(parts, s)
		} else if c.Text != "" {
			parts = append(parts, c.Text)
		}
	case len(env.Candidates) > 0:
		for _, p := range env.Candidates[0].Content.Parts {
			parts = append(parts, p.Text)
		}
	case env.OutputText != "":
		parts = append(parts, env.OutputText)
	case len(env.Content) > 0:
		for _, p := range env.Content {
			if p.Type == "" || p.Type == "text" {
				parts = append(parts, p.Text)
			}
		}
	}
	return cleanReply(strings.Join(parts, ""))
}

// contentText reads a chat message content that is either a string or an
// array of typed parts.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []textPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "" || p.Type == "text" || p.Type == "output_text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// cleanReply trims whitespace and a surrounding code fence.
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], " ") {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
