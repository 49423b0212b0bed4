package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func axisPointSchema(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": desc,
		"properties": map[string]interface{}{
			"pixel_x": map[string]interface{}{"type": "number"},
			"pixel_y": map[string]interface{}{"type": "number"},
			"value":   map[string]interface{}{"type": "number"},
		},
	}
}

var probeIDProperty = map[string]interface{}{
	"type":        "string",
	"description": "Probe id as returned by digitize_probe_add or digitize_results",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image access
		{
			Name:        "image_load",
			Description: "Load a chart image and make it the active image for digitizing. Returns dimensions and format. Probes are re-detected against the new image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"reload": map[string]interface{}{
						"type":        "boolean",
						"description": "Re-read the file even if it is cached (use after the file changed on disk)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file, or of the active image when path is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file (optional)",
					},
				},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the color at a pixel as hex, RGB, HSL and luma. Useful for picking label colors for the mask.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file (defaults to the active image)",
					},
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "mask_load",
			Description: "Load a highlight mask image aligned with the chart. Pixels painted in a label's color restrict that label's detection to those rows. Returns per-label pixel coverage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the mask image (same size as the chart)",
					},
					"clear": map[string]interface{}{
						"type":        "boolean",
						"description": "Remove the current mask instead of loading one",
					},
				},
			},
		},

		// Calibration
		{
			Name:        "digitize_calibrate",
			Description: "Set axis calibration points. Each point pairs a pixel position with its data value; the axes may be skewed. Omitted points keep their current value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x1": axisPointSchema("First x-axis reference"),
					"x2": axisPointSchema("Second x-axis reference"),
					"y1": axisPointSchema("First y-axis reference"),
					"y2": axisPointSchema("Second y-axis reference"),
				},
			},
		},
		{
			Name:        "digitize_transform",
			Description: "Convert points between pixel and data coordinates using the current calibration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"to_data", "to_pixel"},
						"description": "Conversion direction. Default to_data",
					},
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
						},
					},
				},
				"required": []string{"points"},
			},
		},

		// Labels and settings
		{
			Name:        "digitize_labels",
			Description: "Edit the ordered curve label list (least-value curve first) and label mask colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"action": map[string]interface{}{
						"type": "string",
						"enum": []string{"list", "set", "add", "rename", "remove", "color"},
					},
					"labels": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "New label list (set)",
					},
					"colors": map[string]interface{}{
						"type":        "object",
						"description": "Label to hex color map (set)",
					},
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Label to add, rename, remove or color",
					},
					"to": map[string]interface{}{
						"type":        "string",
						"description": "New name (rename)",
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Hex color like #FF0000 (add, color)",
					},
				},
			},
		},
		{
			Name:        "digitize_settings",
			Description: "Update global detection settings. Omitted fields are unchanged. All probes are re-detected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sensitivity":    map[string]interface{}{"type": "number", "description": "0-1, higher accepts weaker edges"},
					"band_px":        map[string]interface{}{"type": "integer", "description": "Half-width of the sampled band"},
					"min_separation": map[string]interface{}{"type": "integer", "description": "Minimum rows between curves"},
					"mask_tolerance": map[string]interface{}{"type": "number", "description": "RGB distance for mask color matching"},
					"smooth_sigma":   map[string]interface{}{"type": "number", "description": "Gaussian pre-blur radius, 0 disables"},
					"refine_radius":  map[string]interface{}{"type": "integer", "description": "Darkest-row search radius (simple strategy)"},
					"strategy":       map[string]interface{}{"type": "string", "enum": []string{"labels", "simple"}},
				},
			},
		},

		// Probes
		{
			Name:        "digitize_probe_add",
			Description: "Add a probe at a data x value or a pixel column. It is detected on the next frame.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x":           map[string]interface{}{"type": "number", "description": "Data x value"},
					"pixel_x":     map[string]interface{}{"type": "number", "description": "Pixel column"},
					"sensitivity": map[string]interface{}{"type": "number", "description": "Per-probe sensitivity override"},
					"band_px":     map[string]interface{}{"type": "integer", "description": "Per-probe band override"},
				},
			},
		},
		{
			Name:        "digitize_probe_generate",
			Description: "Add probes every interval data units across the calibrated x range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"interval": map[string]interface{}{"type": "number", "description": "Spacing in data units"},
				},
				"required": []string{"interval"},
			},
		},
		{
			Name:        "digitize_probe_update",
			Description: "Change a probe's sensitivity or band override. Rapid repeated updates are coalesced into one detection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":                probeIDProperty,
					"sensitivity":       map[string]interface{}{"type": "number"},
					"band_px":           map[string]interface{}{"type": "integer"},
					"clear_sensitivity": map[string]interface{}{"type": "boolean"},
					"clear_band_px":     map[string]interface{}{"type": "boolean"},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "digitize_probe_remove",
			Description: "Remove one probe, or all probes with all=true.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":  probeIDProperty,
					"all": map[string]interface{}{"type": "boolean"},
				},
			},
		},
		{
			Name:        "digitize_manual",
			Description: "Set or clear a manual y value for one label on one probe. Manual values always win over detected ones.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":    probeIDProperty,
					"label": map[string]interface{}{"type": "string"},
					"y":     map[string]interface{}{"type": "number"},
					"clear": map[string]interface{}{"type": "boolean"},
				},
				"required": []string{"id", "label"},
			},
		},
		{
			Name:        "digitize_manual_import",
			Description: "Create probes from manual (x, label, y) readings. Unknown labels are added.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"entries": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "number"},
								"label": map[string]interface{}{"type": "string"},
								"y":     map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "label", "y"},
						},
					},
				},
				"required": []string{"entries"},
			},
		},

		// Detection and results
		{
			Name:        "digitize_profile",
			Description: "Return the brightness profile, its derivative and the detection threshold for a probe or a pixel column.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":      probeIDProperty,
					"pixel_x": map[string]interface{}{"type": "number"},
				},
			},
		},
		{
			Name:        "digitize_detect",
			Description: "Run curve detection now for one probe, or for every probe when id is omitted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": probeIDProperty,
				},
			},
		},
		{
			Name:        "digitize_results",
			Description: "Return every probe with merged per-label values and the per-label series sorted by x.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "digitize_preview",
			Description: "Render the chart with axes, probes and detected points drawn on it, as base64 PNG. Optionally crop to a region and scale.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x1":     map[string]interface{}{"type": "integer", "description": "Crop left edge"},
					"y1":     map[string]interface{}{"type": "integer", "description": "Crop top edge"},
					"x2":     map[string]interface{}{"type": "integer", "description": "Crop right edge (exclusive)"},
					"y2":     map[string]interface{}{"type": "integer", "description": "Crop bottom edge (exclusive)"},
					"scale":  map[string]interface{}{"type": "number", "description": "Scale factor, default 1.0"},
					"values": map[string]interface{}{"type": "boolean", "description": "Print y values next to points"},
				},
			},
		},
		{
			Name:        "digitize_status",
			Description: "Report the active image, calibration, labels, settings and detection scheduler counters.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
