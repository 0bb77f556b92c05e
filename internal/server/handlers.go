package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/ironsheep/glyph-detect-mcp/internal/config"
	"github.com/ironsheep/glyph-detect-mcp/internal/detection"
	"github.com/ironsheep/glyph-detect-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "marker_detect").
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	case "marker_detect":
		return s.handleMarkerDetect(args)
	case "marker_components":
		return s.handleMarkerComponents(args)
	case "marker_edge_mask":
		return s.handleMarkerEdgeMask(args)

	case "marker_debug_render":
		return s.handleMarkerDebugRender(args)
	case "marker_crop_candidate":
		return s.handleMarkerCropCandidate(args)

	case "marker_config":
		return s.handleMarkerConfig(args)

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

// frameArgs are the arguments shared by every tool that runs detection.
type frameArgs struct {
	Path         string  `json:"path"`
	ResizeFactor float64 `json:"resize_factor"`
}

// detectionRun bundles one pipeline run with the images it ran on.
type detectionRun struct {
	source image.Image
	frame  *image.Gray
	factor float64
	result *detection.Result
}

// prepare loads a.Path and converts it to a detection frame.
func (s *Server) prepare(a frameArgs, cfg *config.Config) (image.Image, *image.Gray, float64, error) {
	if a.Path == "" {
		return nil, nil, 0, fmt.Errorf("path is required")
	}
	factor := a.ResizeFactor
	if factor == 0 {
		factor = cfg.FrameResizeFactor
	}
	if factor < 0 {
		return nil, nil, 0, fmt.Errorf("resize_factor must be positive")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, 0, err
	}
	return img, imaging.PrepareFrame(img, factor), factor, nil
}

// runDetection runs the pipeline on a.Path with the current configuration and
// publishes the result.
func (s *Server) runDetection(a frameArgs) (*detectionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, frame, factor, err := s.prepare(a, s.cfg)
	if err != nil {
		return nil, err
	}
	res, err := s.detector.Detect(frame, s.cfg.Params())
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	s.latest.Publish(res)
	return &detectionRun{source: img, frame: frame, factor: factor, result: res}, nil
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Detection ===

// CandidateInfo describes one quadrilateral candidate in frame coordinates.
type CandidateInfo struct {
	Index    int                    `json:"index"`
	Label    int                    `json:"label"`
	BBox     detection.Box          `json:"bbox"`
	Vertices []detection.Vertex     `json:"vertices"`
	Geometry detection.QuadGeometry `json:"geometry"`
}

// DetectResult is the result of marker_detect.
type DetectResult struct {
	Sequence       uint64          `json:"sequence"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	ResizeFactor   float64         `json:"resize_factor"`
	ComponentCount int             `json:"component_count"`
	AcceptedCount  int             `json:"accepted_count"`
	Candidates     []CandidateInfo `json:"candidates"`
}

func (s *Server) handleMarkerDetect(args json.RawMessage) (interface{}, error) {
	var a frameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.runDetection(a)
	if err != nil {
		return nil, err
	}
	res := run.result

	out := &DetectResult{
		Sequence:       res.Sequence,
		Width:          res.Width,
		Height:         res.Height,
		ResizeFactor:   run.factor,
		ComponentCount: len(res.Components),
		Candidates:     make([]CandidateInfo, 0, len(res.Candidates)),
	}
	for _, c := range res.Components {
		if c.Accepted {
			out.AcceptedCount++
		}
	}
	for i, idx := range res.Candidates {
		comp := res.Components[idx]
		q, _ := res.Quad(i)
		out.Candidates = append(out.Candidates, CandidateInfo{
			Index:    i,
			Label:    comp.Label,
			BBox:     detection.GridBoxToFrame(comp.BBox),
			Vertices: comp.Vertices,
			Geometry: detection.Measure(q),
		})
	}
	return out, nil
}

type markerComponentsArgs struct {
	frameArgs
	AcceptedOnly bool `json:"accepted_only"`
}

// ComponentInfo describes one labeled component in frame coordinates.
type ComponentInfo struct {
	Label      int                `json:"label"`
	Origin     image.Point        `json:"origin"`
	BBox       detection.Box      `json:"bbox"`
	PixelCount int                `json:"pixel_count"`
	Accepted   bool               `json:"accepted"`
	Candidate  bool               `json:"candidate"`
	Vertices   []detection.Vertex `json:"vertices,omitempty"`
}

// ComponentsResult is the result of marker_components.
type ComponentsResult struct {
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Total      int             `json:"total"`
	Components []ComponentInfo `json:"components"`
}

func (s *Server) handleMarkerComponents(args json.RawMessage) (interface{}, error) {
	var a markerComponentsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	run, err := s.runDetection(a.frameArgs)
	if err != nil {
		return nil, err
	}
	res := run.result

	candidate := make(map[int]bool, len(res.Candidates))
	for _, idx := range res.Candidates {
		candidate[idx] = true
	}

	out := &ComponentsResult{
		Width:      res.Width,
		Height:     res.Height,
		Total:      len(res.Components),
		Components: make([]ComponentInfo, 0, len(res.Components)),
	}
	for i, c := range res.Components {
		if a.AcceptedOnly && !c.Accepted {
			continue
		}
		out.Components = append(out.Components, ComponentInfo{
			Label:      c.Label,
			Origin:     detection.GridToFrame(c.Origin),
			BBox:       detection.GridBoxToFrame(c.BBox),
			PixelCount: c.PixelCount,
			Accepted:   c.Accepted,
			Candidate:  candidate[i],
			Vertices:   c.Vertices,
		})
	}
	return out, nil
}

// EdgeMaskResult is the result of marker_edge_mask.
type EdgeMaskResult struct {
	imaging.EncodedImage
	Method    string `json:"method"`
	EdgeCount int    `json:"edge_count"`
}

func (s *Server) handleMarkerEdgeMask(args json.RawMessage) (interface{}, error) {
	var a frameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	_, frame, _, err := s.prepare(a, cfg)
	if err != nil {
		return nil, err
	}
	edges, err := cfg.EdgeDetector()
	if err != nil {
		return nil, err
	}
	mask, err := edges.EdgeMask(frame)
	if err != nil {
		return nil, fmt.Errorf("edge detection failed: %w", err)
	}

	count := 0
	for _, v := range mask.Pix {
		if v != 0 {
			count++
		}
	}
	enc, err := imaging.EncodePNG(mask)
	if err != nil {
		return nil, err
	}
	return &EdgeMaskResult{EncodedImage: *enc, Method: cfg.EdgeMethod, EdgeCount: count}, nil
}

// === Visualisation ===

type markerDebugRenderArgs struct {
	frameArgs
	Mode            string `json:"mode"`
	GridSpacing     int    `json:"grid_spacing"`
	ShowCoordinates bool   `json:"show_coordinates"`
	GridColor       string `json:"grid_color"`
}

// RenderResult is the result of marker_debug_render.
type RenderResult struct {
	imaging.EncodedImage
	Mode           string `json:"mode"`
	CandidateCount int    `json:"candidate_count"`
}

func (s *Server) handleMarkerDebugRender(args json.RawMessage) (interface{}, error) {
	var a markerDebugRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Mode == "" {
		a.Mode = "candidates"
	}
	if a.Mode != "labels" && a.Mode != "candidates" {
		return nil, fmt.Errorf("unknown mode %q (valid: labels, candidates)", a.Mode)
	}

	run, err := s.runDetection(a.frameArgs)
	if err != nil {
		return nil, err
	}

	var img *image.RGBA
	if a.Mode == "labels" {
		img = detection.RenderLabels(run.result)
	} else {
		img = detection.RenderCandidates(run.frame, run.result)
		fg := color.RGBA{255, 255, 255, 255}
		bg := color.RGBA{0, 0, 0, 255}
		for i, q := range run.result.Quads() {
			p := q[0].Pt()
			imaging.DrawLabel(img, p.X+3, p.Y+3, fmt.Sprintf("#%d", i), fg, bg)
		}
	}
	if a.GridSpacing > 0 {
		if a.GridColor == "" {
			a.GridColor = "#FF0000"
		}
		gridColor, err := imaging.ParseColor(a.GridColor)
		if err != nil {
			return nil, err
		}
		if err := imaging.DrawGrid(img, a.GridSpacing, a.ShowCoordinates, gridColor); err != nil {
			return nil, err
		}
	}
	enc, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &RenderResult{EncodedImage: *enc, Mode: a.Mode, CandidateCount: run.result.CandidateCount()}, nil
}

type markerCropCandidateArgs struct {
	frameArgs
	Index  int     `json:"index"`
	Margin *int    `json:"margin"`
	Scale  float64 `json:"scale"`
}

// CropResult is the result of marker_crop_candidate. Region is in source
// image pixels; Vertices are relative to the crop's top-left corner, before
// scaling.
type CropResult struct {
	imaging.EncodedImage
	Region   image.Rectangle    `json:"region"`
	Vertices []detection.Vertex `json:"vertices"`
}

func (s *Server) handleMarkerCropCandidate(args json.RawMessage) (interface{}, error) {
	var a markerCropCandidateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	margin := 4
	if a.Margin != nil {
		margin = *a.Margin
	}
	if margin < 0 {
		return nil, fmt.Errorf("margin must not be negative")
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	run, err := s.runDetection(a.frameArgs)
	if err != nil {
		return nil, err
	}
	q, ok := run.result.Quad(a.Index)
	if !ok {
		return nil, fmt.Errorf("candidate %d out of range (found %d)", a.Index, run.result.CandidateCount())
	}

	// Candidate geometry is in frame pixels; the crop comes from the
	// full-resolution source.
	verts := make([]detection.Vertex, len(q))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, v := range q {
		v = detection.Vertex{X: v.X / run.factor, Y: v.Y / run.factor}
		verts[i] = v
		minX, minY = math.Min(minX, v.X), math.Min(minY, v.Y)
		maxX, maxY = math.Max(maxX, v.X), math.Max(maxY, v.Y)
	}
	b := run.source.Bounds()
	rect := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	).Add(b.Min)
	region := rect.Inset(-margin).Intersect(b)

	enc, err := imaging.CropAround(run.source, rect, margin, a.Scale)
	if err != nil {
		return nil, err
	}
	origin := region.Min.Sub(b.Min)
	for i := range verts {
		verts[i].X -= float64(origin.X)
		verts[i].Y -= float64(origin.Y)
	}
	return &CropResult{EncodedImage: *enc, Region: region, Vertices: verts}, nil
}

// === Configuration ===

type markerConfigArgs struct {
	Path     string                 `json:"path"`
	Settings map[string]interface{} `json:"settings"`
}

// ConfigResult is the result of marker_config.
type ConfigResult struct {
	Config  *config.Config `json:"config"`
	Changed []string       `json:"changed,omitempty"`
}

func (s *Server) handleMarkerConfig(args json.RawMessage) (interface{}, error) {
	var a markerConfigArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if a.Path == "" && len(a.Settings) == 0 {
		return &ConfigResult{Config: s.cfg}, nil
	}

	next := s.cfg.Clone()
	var changed []string
	if a.Path != "" {
		loaded, err := config.Load(a.Path)
		if err != nil {
			return nil, err
		}
		next = loaded
		changed = append(changed, "file:"+a.Path)
	}

	names := make([]string, 0, len(a.Settings))
	for name := range a.Settings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := next.Set(name, fmt.Sprint(a.Settings[name])); err != nil {
			return nil, err
		}
		changed = append(changed, name)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := next.Apply(s.detector); err != nil {
		return nil, err
	}
	s.cfg = next
	return &ConfigResult{Config: next, Changed: changed}, nil
}
