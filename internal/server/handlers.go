package server

import (
	"encoding/json"
	"fmt"
	"image"
	"log"

	"github.com/RBFZ/CurveQuant/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "digitize_detect").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.debug {
			log.Printf("Tool %s failed: %v", params.Name, err)
		}
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
//
// Tools that change digitizer state only queue re-detection; tools that
// report results flush the queue first so the answer reflects every change
// made before the call.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Image access
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)
	case "mask_load":
		return s.handleMaskLoad(args)

	// Calibration
	case "digitize_calibrate":
		return s.handleCalibrate(args)
	case "digitize_transform":
		return s.handleTransform(args)

	// Labels and settings
	case "digitize_labels":
		return s.handleLabels(args)
	case "digitize_settings":
		return s.handleSettings(args)

	// Probes
	case "digitize_probe_add":
		return s.handleProbeAdd(args)
	case "digitize_probe_generate":
		return s.handleProbeGenerate(args)
	case "digitize_probe_update":
		return s.handleProbeUpdate(args)
	case "digitize_probe_remove":
		return s.handleProbeRemove(args)
	case "digitize_manual":
		return s.handleManual(args)
	case "digitize_manual_import":
		return s.handleManualImport(args)

	// Detection and results
	case "digitize_profile":
		return s.handleProfile(args)
	case "digitize_detect":
		return s.handleDetect(args)
	case "digitize_results":
		return s.handleResults(args)
	case "digitize_preview":
		return s.handlePreview(args)
	case "digitize_status":
		return s.handleStatus(args)

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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path   string `json:"path"`
	Reload bool   `json:"reload,omitempty"`
}

// handleImageLoad loads the image and makes it the chart being digitized.
func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reload {
		s.cache.Evict(a.Path)
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	_, prev := s.ws.Image()
	s.ws.SetImage(img, a.Path)
	if prev != "" && prev != a.Path {
		s.cache.Evict(prev)
	}
	return info, nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		img, err := s.activeImage()
		if err != nil {
			return nil, err
		}
		b := img.Bounds()
		return &imaging.DimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.imageFor(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type maskLoadArgs struct {
	Path  string `json:"path"`
	Clear bool   `json:"clear"`
}

type maskLoadResult struct {
	Enabled  bool           `json:"enabled"`
	Width    int            `json:"width,omitempty"`
	Height   int            `json:"height,omitempty"`
	Coverage map[string]int `json:"coverage,omitempty"`
}

// handleMaskLoad installs a highlight layer from an image file and reports
// how many pixels each label's color owns.
func (s *Server) handleMaskLoad(args json.RawMessage) (interface{}, error) {
	var a maskLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Clear {
		s.ws.SetMask(nil)
		return &maskLoadResult{Enabled: false}, nil
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if active, _ := s.ws.Image(); active != nil && active.Bounds().Size() != img.Bounds().Size() {
		return nil, fmt.Errorf("mask size %v does not match image size %v", img.Bounds().Size(), active.Bounds().Size())
	}

	// The mask keeps its own copy of the pixels.
	m := imaging.NewImageMask(img)
	s.cache.Evict(a.Path)
	s.ws.SetMask(m)
	b := m.Bounds()
	return &maskLoadResult{
		Enabled:  true,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Coverage: imaging.LabelCoverage(m, s.ws.Colors(), s.ws.Settings().MaskTolerance),
	}, nil
}

// imageFor returns the image at path, or the active image when path is empty.
func (s *Server) imageFor(path string) (image.Image, error) {
	if path == "" {
		return s.activeImage()
	}
	return s.cache.Load(path)
}

func (s *Server) activeImage() (image.Image, error) {
	img, _ := s.ws.Image()
	if img == nil {
		return nil, fmt.Errorf("no image loaded; call image_load first")
	}
	return img, nil
}
