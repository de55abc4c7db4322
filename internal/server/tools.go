package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "deck_lint",
			Description: "Check every slide of a .pptx deck for shapes that extend past the slide canvas or overlap each other by more than 5% of the smaller shape. Optionally writes the shape map used for annotation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       stringProp("Absolute path to the .pptx file"),
					"export_map": stringProp("Optional path to write the shape map JSON"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "slide_annotate",
			Description: "Draw numbered Set-of-Mark boxes for one slide's shapes onto its rendered image. Fails if the shape map has no entry for the slide.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": stringProp("Absolute path to the rendered slide image"),
					"map":   stringProp("Absolute path to the shape map JSON"),
					"slide": map[string]interface{}{
						"type":        []string{"integer", "string"},
						"description": "0-based slide index",
					},
					"out":   stringProp("Path for the marked PNG"),
					"color": stringProp("Optional single box colour as #RRGGBB"),
				},
				"required": []string{"image", "map", "slide", "out"},
			},
		},
		{
			Name:        "slide_critique",
			Description: "Send a marked slide image to the configured vision model and return its defect list, or PASS. Returns a skipped result when no model is configured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image": stringProp("Absolute path to the marked slide image"),
					"slide": map[string]interface{}{
						"type":        "integer",
						"description": "Optional 0-based slide index recorded in the result",
					},
				},
				"required": []string{"image"},
			},
		},
		{
			Name:        "deck_review",
			Description: "Run the full review loop on a deck: lint, render, annotate, critique and write the iteration report. Returns the run record.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    stringProp("Absolute path to the .pptx file"),
					"out_dir": stringProp("Run directory; wiped before the run"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": stringProp("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
