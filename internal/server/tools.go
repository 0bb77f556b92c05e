package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func resizeProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": "Optional frame resize factor applied before detection. Defaults to the configured frame_resize_factor",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for the marker tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Detection
		{
			Name:        "marker_detect",
			Description: "Run the marker candidate pipeline on an image and return every quadrilateral candidate with its four vertices in frame pixel coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"resize_factor": resizeProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_components",
			Description: "Run the pipeline and list every connected component found, including components rejected by the size filter or by vertex reduction.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"resize_factor": resizeProperty(),
					"accepted_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Only list components that passed the size filter. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_edge_mask",
			Description: "Return the edge mask the configured gradient detector produces for an image, as base64 PNG. Edge pixels are white.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"resize_factor": resizeProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Visualisation
		{
			Name:        "marker_debug_render",
			Description: "Render detection results as base64 PNG: 'labels' colours each accepted component, 'candidates' outlines each quadrilateral over the frame and numbers it. An optional coordinate grid helps read positions.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"resize_factor": resizeProperty(),
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"labels", "candidates"},
						"description": "What to render. Default candidates",
						"default":     "candidates",
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Optional coordinate grid spacing in pixels. 0 draws no grid",
						"default":     0,
					},
					"show_coordinates": map[string]interface{}{
						"type":        "boolean",
						"description": "Label grid intersections with their coordinates. Default false",
						"default":     false,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color as #RRGGBB. Default #FF0000",
						"default":     "#FF0000",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "marker_crop_candidate",
			Description: "Crop the region around one candidate from the original image and return it as base64 PNG, with the candidate's vertices relative to the crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"resize_factor": resizeProperty(),
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Candidate index as returned by marker_detect (0-based)",
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Extra pixels around the candidate bounding box. Default 4",
						"default":     4,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the crop. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "index"},
			},
		},

		// Configuration
		{
			Name:        "marker_config",
			Description: "Show the detector configuration, or change settings by name. Changes are validated as a whole and apply to subsequent detections.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"settings": map[string]interface{}{
						"type":        "object",
						"description": "Setting names mapped to new values, e.g. {\"harris_threshold\": \"180\"}",
						"additionalProperties": map[string]interface{}{
							"type": "string",
						},
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional configuration file to load before applying settings",
					},
				},
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
