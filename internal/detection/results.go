package detection

import (
	"math"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// Point is a pixel position rounded for JSON output.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a line segment in JSON output.
type Segment struct {
	Start  Point   `json:"start"`
	End    Point   `json:"end"`
	Length float64 `json:"length"`

	// AngleDegrees is measured from the X axis towards Y, in (-180, 180].
	AngleDegrees float64 `json:"angle_degrees"`
}

// SegmentsResult contains the extracted line segments.
type SegmentsResult struct {
	Segments []Segment `json:"segments"`
	Count    int       `json:"count"`

	// Merge names the merger applied: "none", "greedy" or "hemicube".
	Merge string `json:"merge"`

	// RawCount is the number of segments before merging.
	RawCount int `json:"raw_count"`
}

// Corner is an L-, T- or X-shape in JSON output.
type Corner struct {
	Kind     string  `json:"kind"` // "L", "T" or "X"
	Position Point   `json:"position"`
	Score    float64 `json:"score"`

	// DirectionDegrees is the bisector (L), stem (T) or first arm (X)
	// direction.
	DirectionDegrees float64 `json:"direction_degrees"`
}

// CornersResult contains the junctions found between line segments.
type CornersResult struct {
	Corners []Corner `json:"corners"`
	Count   int      `json:"count"`
	LCount  int      `json:"l_count"`
	TCount  int      `json:"t_count"`
	XCount  int      `json:"x_count"`
}

// RectangleInfo is a quadrilateral in JSON output.
type RectangleInfo struct {
	// Corners are ordered top-left, bottom-left, bottom-right, top-right.
	Corners [4]Point `json:"corners"`
	Center  Point    `json:"center"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Area    float64  `json:"area"`
}

// RectanglesResult contains detected rectangles.
type RectanglesResult struct {
	Rectangles []RectangleInfo `json:"rectangles"`
	Count      int             `json:"count"`
}

// RefineResult contains a refined rectangle.
type RefineResult struct {
	Refined   bool          `json:"refined"`
	Rectangle RectangleInfo `json:"rectangle"`

	// MaxCornerShift is the largest distance a corner moved during
	// refinement.
	MaxCornerShift float64 `json:"max_corner_shift"`
}

// NewPoint rounds p to a tenth of a pixel.
func NewPoint(p geometry.Vector2) Point {
	return Point{X: round1(p.X), Y: round1(p.Y)}
}

// Vector returns the point as a geometry vector.
func (p Point) Vector() geometry.Vector2 {
	return geometry.Vector2{X: p.X, Y: p.Y}
}

// NewSegment describes line for JSON output.
func NewSegment(line geometry.FiniteLine2) Segment {
	d := line.P1.Sub(line.P0)
	return Segment{
		Start:        NewPoint(line.P0),
		End:          NewPoint(line.P1),
		Length:       round1(line.Length()),
		AngleDegrees: round1(math.Atan2(d.Y, d.X) * 180 / math.Pi),
	}
}

// NewRectangleInfo describes r for JSON output. Width and height are the
// averages of the opposite edge lengths; the area is the shoelace area.
func NewRectangleInfo(r Rectangle) RectangleInfo {
	var info RectangleInfo
	var center geometry.Vector2
	for i, corner := range r {
		info.Corners[i] = NewPoint(corner)
		center = center.Add(corner)
	}
	info.Center = NewPoint(center.Mul(0.25))

	info.Width = round1((r[3].Sub(r[0]).Norm() + r[2].Sub(r[1]).Norm()) / 2)
	info.Height = round1((r[1].Sub(r[0]).Norm() + r[2].Sub(r[3]).Norm()) / 2)

	area := 0.0
	for i := range r {
		area += r[i].Cross(r[(i+1)%4])
	}
	info.Area = round1(math.Abs(area) / 2)

	return info
}

// NewRectanglesResult describes rectangles for JSON output.
func NewRectanglesResult(rectangles []Rectangle) *RectanglesResult {
	result := &RectanglesResult{Rectangles: make([]RectangleInfo, 0, len(rectangles))}
	for _, r := range rectangles {
		result.Rectangles = append(result.Rectangles, NewRectangleInfo(r))
	}
	result.Count = len(result.Rectangles)
	return result
}

// NewCornersResult describes junctions for JSON output, L-shapes first.
func NewCornersResult(lShapes []LShape, tShapes []TShape, xShapes []XShape) *CornersResult {
	result := &CornersResult{
		Corners: make([]Corner, 0, len(lShapes)+len(tShapes)+len(xShapes)),
		LCount:  len(lShapes),
		TCount:  len(tShapes),
		XCount:  len(xShapes),
	}
	for _, s := range lShapes {
		result.Corners = append(result.Corners, newCorner("L", s.Position, s.Direction, s.Score))
	}
	for _, s := range tShapes {
		result.Corners = append(result.Corners, newCorner("T", s.Position, s.Direction, s.Score))
	}
	for _, s := range xShapes {
		result.Corners = append(result.Corners, newCorner("X", s.Position, s.Direction0, s.Score))
	}
	result.Count = len(result.Corners)
	return result
}

func newCorner(kind string, position, direction geometry.Vector2, score float64) Corner {
	return Corner{
		Kind:             kind,
		Position:         NewPoint(position),
		Score:            round1(score),
		DirectionDegrees: round1(math.Atan2(direction.Y, direction.X) * 180 / math.Pi),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
