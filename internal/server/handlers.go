package server

import (
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/detection"
	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
)

// Tool defaults that are not part of the tuning file.
const (
	defaultMergeGap       = 10.0
	defaultCropMargin     = 4
	verifyMinimalRange    = 10.0
	defaultLongMultiplier = 2.5
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "quad_load", "quad_detect_rectangles").
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
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return resultResponse(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(result)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies the tuning config and default values for optional parameters
//  3. Loads the luminance frame from cache
//  4. Calls the appropriate detection/imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "quad_load":
		return s.handleLoad(args)

	// Pipeline stages
	case "quad_detect_lines":
		return s.handleDetectLines(args)
	case "quad_detect_corners":
		return s.handleDetectCorners(args)

	// Rectangles
	case "quad_detect_rectangles":
		return s.handleDetectRectangles(args)
	case "quad_guess_rectangles":
		return s.handleGuessRectangles(args)
	case "quad_refine_rectangle":
		return s.handleRefineRectangle(args)

	// Rendering
	case "quad_overlay":
		return s.handleOverlay(args)
	case "quad_crop":
		return s.handleCrop(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// frame returns the cached luminance frame of path.
func (s *Server) frame(path string) (*image.Gray, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.cache.Frame(path)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

// === Pipeline Stage Handlers ===

type detectLinesArgs struct {
	Path      string  `json:"path"`
	MinLength int     `json:"min_length"`
	Threshold float64 `json:"threshold"`
	Merge     string  `json:"merge"`
	MergeGap  float64 `json:"merge_gap"`
}

func (s *Server) handleDetectLines(args json.RawMessage) (interface{}, error) {
	var a detectLinesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Merge == "" {
		a.Merge = string(detection.MergeNone)
	}
	if a.MergeGap <= 0 {
		a.MergeGap = defaultMergeGap
	}

	frame, err := s.frame(a.Path)
	if err != nil {
		return nil, err
	}

	detector := s.tuning.LineDetector()
	if a.MinLength > 0 {
		detector.MinLength = a.MinLength
	}
	if a.Threshold > 0 {
		detector.Threshold = a.Threshold
	}

	lines, err := detector.DetectLines(frame)
	if err != nil {
		return nil, err
	}
	rawCount := len(lines)

	lines, err = detection.MergeLines(lines, detection.MergeMode(a.Merge), frame.Bounds().Dx(), frame.Bounds().Dy(), a.MergeGap)
	if err != nil {
		return nil, err
	}

	result := &detection.SegmentsResult{
		Segments: make([]detection.Segment, 0, len(lines)),
		Merge:    a.Merge,
		RawCount: rawCount,
	}
	for _, line := range lines {
		result.Segments = append(result.Segments, detection.NewSegment(line))
	}
	result.Count = len(result.Segments)
	return result, nil
}

type detectCornersArgs struct {
	Path         string  `json:"path"`
	Distance     float64 `json:"distance"`
	AngleDegrees float64 `json:"angle_degrees"`
	VerifyX      bool    `json:"verify_x"`
}

// handleDetectCorners extracts and greedily merges the segments, then
// classifies the junctions between horizontal and vertical ones. distance is
// how far an intersection may lie beyond a segment end; the middle part of a
// segment starts 2.5 times as far from its ends.
func (s *Server) handleDetectCorners(args json.RawMessage) (interface{}, error) {
	var a detectCornersArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Distance <= 0 {
		a.Distance = detection.DefaultShortThreshold
	}
	shapeAngle := detection.DefaultShapeAngle
	if a.AngleDegrees > 0 {
		shapeAngle = s1.Angle(a.AngleDegrees) * s1.Degree
	}

	frame, err := s.frame(a.Path)
	if err != nil {
		return nil, err
	}
	width, height := frame.Bounds().Dx(), frame.Bounds().Dy()

	lines, err := s.tuning.LineDetector().DetectLines(frame)
	if err != nil {
		return nil, err
	}
	lines, err = detection.MergeLines(lines, detection.MergeGreedy, width, height, defaultMergeGap)
	if err != nil {
		return nil, err
	}

	horizontal, vertical := detection.SplitByOrientation(lines)
	lShapes, tShapes, xShapes := detection.DetermineShapes(horizontal, vertical, width, height,
		a.Distance, defaultLongMultiplier*a.Distance, shapeAngle, detection.DefaultXShapeAngle)
	lShapes, tShapes, xShapes = detection.PostAdjustShapes(width, height, lShapes, tShapes, xShapes,
		detection.DefaultSimilarPointDistance, detection.DefaultSimilarAngle)

	if a.VerifyX {
		verified := xShapes[:0]
		for _, x := range xShapes {
			if x.VerifyShape(frame, true, verifyMinimalRange, detection.DefaultVerifySampleOffset, detection.DefaultVerifySamples) {
				verified = append(verified, x)
			}
		}
		xShapes = verified
	}

	return detection.NewCornersResult(lShapes, tShapes, xShapes), nil
}

// === Rectangle Handlers ===

type detectRectanglesArgs struct {
	Path                 string   `json:"path"`
	RectangleWidth       float64  `json:"rectangle_width"`
	AspectRatio          float64  `json:"aspect_ratio"`
	AspectRatioTolerance *float64 `json:"aspect_ratio_tolerance,omitempty"`
	AlignmentDegrees     *float64 `json:"alignment_degrees,omitempty"`
	Sort                 *bool    `json:"sort,omitempty"`
	UseHemiCube          *bool    `json:"use_hemicube,omitempty"`
}

// alignedParams combines the tuning config with the per-call overrides.
func (s *Server) alignedParams(a detectRectanglesArgs) detection.AlignedParams {
	params := detection.DefaultAlignedParams(a.RectangleWidth, a.AspectRatio)
	s.tuning.ApplyTo(&params)
	if a.AspectRatioTolerance != nil {
		params.AspectRatioTolerance = *a.AspectRatioTolerance
	}
	if a.AlignmentDegrees != nil {
		params.AlignmentAngle = s1.Angle(*a.AlignmentDegrees) * s1.Degree
	}
	if a.Sort != nil {
		params.SortByArea = *a.Sort
	}
	if a.UseHemiCube != nil {
		params.UseHemiCube = *a.UseHemiCube
	}
	params.Logf = s.logf()
	return params
}

func (s *Server) detectRectangles(a detectRectanglesArgs) ([]detection.Rectangle, error) {
	frame, err := s.frame(a.Path)
	if err != nil {
		return nil, err
	}
	return detection.DetectAlignedRectangles(frame, s.tuning.LineDetector(), s.alignedParams(a))
}

func (s *Server) handleDetectRectangles(args json.RawMessage) (interface{}, error) {
	var a detectRectanglesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	rectangles, err := s.detectRectangles(a)
	if err != nil {
		return nil, err
	}
	return detection.NewRectanglesResult(rectangles), nil
}

type guessRectanglesArgs struct {
	Path           string  `json:"path"`
	RectangleWidth float64 `json:"rectangle_width"`
	AspectRatio    float64 `json:"aspect_ratio"`
	MaxCandidates  int     `json:"max_candidates"`
}

func (s *Server) handleGuessRectangles(args json.RawMessage) (interface{}, error) {
	var a guessRectanglesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	frame, err := s.frame(a.Path)
	if err != nil {
		return nil, err
	}

	params := s.alignedParams(detectRectanglesArgs{RectangleWidth: a.RectangleWidth, AspectRatio: a.AspectRatio})
	rectangles, err := detection.GuessAlignedRectangles(frame, s.tuning.LineDetector(), params, a.MaxCandidates)
	if err != nil {
		return nil, err
	}
	return detection.NewRectanglesResult(rectangles), nil
}

type cornersArgs struct {
	Path    string            `json:"path"`
	Corners []detection.Point `json:"corners"`
}

// quad returns the four corners in top-left, bottom-left, bottom-right,
// top-right order.
func (a cornersArgs) quad() (detection.Rectangle, error) {
	var r detection.Rectangle
	if len(a.Corners) != 4 {
		return r, fmt.Errorf("corners must hold 4 points, got %d", len(a.Corners))
	}
	for i, p := range a.Corners {
		r[i] = p.Vector()
	}
	return r, nil
}

type refineRectangleArgs struct {
	cornersArgs
	SampleDistance int `json:"sample_distance"`
}

func (s *Server) handleRefineRectangle(args json.RawMessage) (interface{}, error) {
	var a refineRectangleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.SampleDistance <= 0 {
		a.SampleDistance = s.tuning.GetSampleDistance()
	}

	rectangle, err := a.quad()
	if err != nil {
		return nil, err
	}
	frame, err := s.frame(a.Path)
	if err != nil {
		return nil, err
	}

	refined, ok := detection.OptimizeRectangleAlongEdges(frame, rectangle, a.SampleDistance)
	if !ok {
		return &detection.RefineResult{Rectangle: detection.NewRectangleInfo(rectangle)}, nil
	}

	shift := 0.0
	for i := range refined {
		shift = max(shift, refined[i].Sub(rectangle[i]).Norm())
	}
	return &detection.RefineResult{
		Refined:        true,
		Rectangle:      detection.NewRectangleInfo(refined),
		MaxCornerShift: math.Round(shift*10) / 10,
	}, nil
}

// === Rendering Handlers ===

type overlayArgs struct {
	detectRectanglesArgs
	LineColor string `json:"line_color"`
	ShowLines bool   `json:"show_lines"`
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.LineColor == "" {
		a.LineColor = s.tuning.GetOverlayColor()
	}
	if _, err := imaging.ParseColor(a.LineColor); err != nil {
		return nil, err
	}

	rectangles, err := s.detectRectangles(a.detectRectanglesArgs)
	if err != nil {
		return nil, err
	}

	var lines []geometry.FiniteLine2
	if a.ShowLines {
		frame, err := s.frame(a.Path)
		if err != nil {
			return nil, err
		}
		if lines, err = s.tuning.LineDetector().DetectLines(frame); err != nil {
			return nil, err
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Overlay(img, Quads(rectangles), lines, a.LineColor)
}

type cropArgs struct {
	cornersArgs
	Scale  float64 `json:"scale"`
	Margin *int    `json:"margin,omitempty"`
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	margin := defaultCropMargin
	if a.Margin != nil {
		margin = *a.Margin
	}

	quad, err := a.quad()
	if err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropQuad(img, quad, margin, a.Scale)
}

// Quads converts rectangles into the corner arrays the imaging package draws.
func Quads(rectangles []detection.Rectangle) [][4]geometry.Vector2 {
	quads := make([][4]geometry.Vector2, len(rectangles))
	for i, r := range rectangles {
		quads[i] = r
	}
	return quads
}
