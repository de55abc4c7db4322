package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/slide-qa/internal/critique"
	"github.com/ironsheep/slide-qa/internal/imaging"
	"github.com/ironsheep/slide-qa/internal/linter"
	"github.com/ironsheep/slide-qa/internal/loop"
	"github.com/ironsheep/slide-qa/internal/shapemap"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "deck_lint").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "deck_lint":
		return s.handleDeckLint(args)
	case "slide_annotate":
		return s.handleSlideAnnotate(args)
	case "slide_critique":
		return s.handleSlideCritique(ctx, args)
	case "deck_review":
		return s.handleDeckReview(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	return json.Unmarshal(args, v)
}

type deckLintArgs struct {
	Path      string `json:"path"`
	ExportMap string `json:"export_map"`
}

type deckLintResult struct {
	Passed    bool           `json:"passed"`
	Slides    int            `json:"slides"`
	Issues    []linter.Issue `json:"issues"`
	Messages  []string       `json:"messages"`
	ExportMap string         `json:"export_map,omitempty"`
}

func (s *Server) handleDeckLint(args json.RawMessage) (interface{}, error) {
	var a deckLintArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	res, err := linter.LintFile(a.Path, a.ExportMap, s.opts.Lint)
	if err != nil {
		return nil, err
	}

	out := deckLintResult{
		Passed:    res.Passed,
		Slides:    len(res.Map),
		Issues:    res.Issues,
		Messages:  make([]string, len(res.Issues)),
		ExportMap: a.ExportMap,
	}
	if out.Issues == nil {
		out.Issues = []linter.Issue{}
	}
	for i, issue := range res.Issues {
		out.Messages[i] = issue.String()
	}
	return out, nil
}

type slideAnnotateArgs struct {
	Image string      `json:"image"`
	Map   string      `json:"map"`
	Slide interface{} `json:"slide"`
	Out   string      `json:"out"`
	Color string      `json:"color"`
}

func (s *Server) handleSlideAnnotate(args json.RawMessage) (interface{}, error) {
	var a slideAnnotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Image == "" || a.Map == "" || a.Out == "" {
		return nil, errors.New("image, map and out are required")
	}
	slide, ok := shapemap.SlideIndex(a.Slide)
	if !ok {
		return nil, fmt.Errorf("invalid slide index: %v", a.Slide)
	}

	m, err := shapemap.Read(a.Map)
	if err != nil {
		return nil, err
	}

	opts := s.opts.Annotate
	if a.Color != "" {
		opts.Color = a.Color
	}
	return imaging.AnnotateSlide(s.cache, a.Image, m, slide, a.Out, opts)
}

type slideCritiqueArgs struct {
	Image string `json:"image"`
	Slide int    `json:"slide"`
}

func (s *Server) handleSlideCritique(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a slideCritiqueArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Image == "" {
		return nil, errors.New("image is required")
	}

	img, err := s.cache.Load(a.Image)
	if err != nil {
		return nil, err
	}
	enc, err := imaging.EncodeForTransport(img, s.opts.MaxEdge)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.CritiqueTimeout)
	defer cancel()
	c, err := s.opts.Critic.Critique(ctx, a.Slide, enc.Data)
	if err != nil {
		return critique.Skipped(a.Slide, err), nil
	}
	return c, nil
}

type deckReviewArgs struct {
	Path   string `json:"path"`
	OutDir string `json:"out_dir"`
}

func (s *Server) handleDeckReview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a deckReviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}

	opts := s.opts.Loop
	if a.OutDir != "" {
		opts.OutputDir = a.OutDir
	}
	// An aborted run is still a result: its state explains what failed.
	run, _ := loop.New(opts, s.opts.Renderer, s.opts.Critic, s.opts.Publisher).Run(ctx, a.Path)
	return run, nil
}

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}
