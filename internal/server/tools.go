package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// schema property helpers

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func numberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

func booleanProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
	}
}

func withDefault(property map[string]interface{}, value interface{}) map[string]interface{} {
	property["default"] = value
	return property
}

func cornersProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Four corners ordered top-left, bottom-left, bottom-right, top-right",
		"minItems":    4,
		"maxItems":    4,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x", "y"},
		},
	}
}

func rectangleShapeProperties() map[string]interface{} {
	return map[string]interface{}{
		"path":            pathProperty(),
		"rectangle_width": numberProperty("Expected rectangle width in pixels"),
		"aspect_ratio":    numberProperty("Expected width divided by height"),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	detectProps := rectangleShapeProperties()
	detectProps["aspect_ratio_tolerance"] = withDefault(numberProperty("Relative aspect ratio deviation accepted, in [0, 1). Default 0.1"), 0.1)
	detectProps["alignment_degrees"] = withDefault(numberProperty("Accepted rotation against the image axes in degrees. Default 35"), 35.0)
	detectProps["sort"] = withDefault(booleanProperty("Sort rectangles by decreasing area. Default true"), true)
	detectProps["use_hemicube"] = withDefault(booleanProperty("Merge line fragments through the HemiCube spatial hash. Default false"), false)

	guessProps := rectangleShapeProperties()
	guessProps["max_candidates"] = withDefault(integerProperty("Maximal number of guessed rectangles. Default 20"), 20)

	overlayProps := rectangleShapeProperties()
	overlayProps["line_color"] = map[string]interface{}{
		"type":        "string",
		"description": "Color of the extracted segments as #RRGGBB. Default #FFD700",
		"default":     "#FFD700",
	}
	overlayProps["show_lines"] = booleanProperty("Also draw the extracted line segments")

	return []Tool{
		{
			Name:        "quad_load",
			Description: "Load an image file and return its dimensions, format and luminance range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Pipeline stages
		{
			Name:        "quad_detect_lines",
			Description: "Extract straight line segments from the image edges, optionally merging collinear fragments.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"min_length": withDefault(integerProperty("Minimal segment length in pixels. Default 20"), 20),
					"threshold":  withDefault(numberProperty("Minimal edge gradient magnitude. Default 20"), 20.0),
					"merge": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"none", "greedy", "hemicube"},
						"description": "Fragment merging strategy. Default none",
						"default":     "none",
					},
					"merge_gap": withDefault(numberProperty("Largest gap between merged fragments in pixels. Default 10"), 10.0),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "quad_detect_corners",
			Description: "Find L-, T- and X-shaped junctions between roughly horizontal and vertical segments.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty(),
					"distance":      withDefault(numberProperty("How far an intersection may lie beyond a segment end, in pixels. Default 2"), 2.0),
					"angle_degrees": withDefault(numberProperty("Accepted deviation from a right angle in degrees. Default 20"), 20.0),
					"verify_x":      booleanProperty("Drop X-shapes whose arms do not look alike in the image"),
				},
				"required": []string{"path"},
			},
		},

		// Rectangles
		{
			Name:        "quad_detect_rectangles",
			Description: "Detect axis-aligned rectangles of a known size and aspect ratio, with corners refined to sub-pixel accuracy. Corners are ordered top-left, bottom-left, bottom-right, top-right.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectProps,
				"required":   []string{"path", "rectangle_width", "aspect_ratio"},
			},
		},
		{
			Name:        "quad_guess_rectangles",
			Description: "Guess rectangles from their two upper corners when the lower edge is occluded or cut off.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": guessProps,
				"required":   []string{"path", "rectangle_width", "aspect_ratio"},
			},
		},
		{
			Name:        "quad_refine_rectangle",
			Description: "Refine four approximate corners by fitting each edge to the strongest intensity step nearby.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":            pathProperty(),
					"corners":         cornersProperty(),
					"sample_distance": withDefault(integerProperty("Search distance perpendicular to each edge in pixels. Default 5"), 5),
				},
				"required": []string{"path", "corners"},
			},
		},

		// Rendering
		{
			Name:        "quad_overlay",
			Description: "Detect rectangles and return the image with them drawn as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": overlayProps,
				"required":   []string{"path", "rectangle_width", "aspect_ratio"},
			},
		},
		{
			Name:        "quad_crop",
			Description: "Crop the bounding box of a quadrilateral and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty(),
					"corners": cornersProperty(),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
					"margin": withDefault(integerProperty("Pixels added around the bounding box. Default 4"), 4),
				},
				"required": []string{"path", "corners"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return resultResponse(req.ID, map[string]interface{}{
		"tools": GetToolDefinitions(),
	})
}
