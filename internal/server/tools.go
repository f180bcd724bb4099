package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func frameProperties() map[string]interface{} {
	return map[string]interface{}{
		"run": map[string]interface{}{
			"type":        "integer",
			"description": "Run number",
		},
		"camcol": map[string]interface{}{
			"type":        "integer",
			"description": "Camera column (1-6)",
		},
		"filter": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"u", "g", "r", "i", "z"},
			"description": "Photometric filter",
		},
		"field": map[string]interface{}{
			"type":        "integer",
			"description": "Field number",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "frame_detect",
			Description: "Search an archived frame for straight trails. Returns each accepted trail as the two points where it crosses the frame edge, with per-pass rectangle and rejection counts.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": frameProperties(),
				"required":   []string{"run", "camcol", "filter", "field"},
			},
		},
		{
			Name:        "frame_mask",
			Description: "Build the catalog source mask of an archived frame and report how much of the frame it covers and which catalog entries were unusable.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": frameProperties(),
				"required":   []string{"run", "camcol", "filter", "field"},
			},
		},
		{
			Name:        "file_detect",
			Description: "Search any image file for straight trails. A catalog CSV, when given, masks its sources first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"image_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a PNG, JPEG or TIFF image",
					},
					"catalog_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to a catalog CSV (optional)",
					},
					"filter": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"u", "g", "r", "i", "z"},
						"description": "Filter used to select catalog magnitudes (default: r)",
					},
				},
				"required": []string{"image_path"},
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
