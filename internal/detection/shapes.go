package detection

import (
	"image"
	"sort"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
)

// LShape is a corner formed by two roughly perpendicular line segments.
//
// EdgeLeft and EdgeRight are unit vectors pointing from the corner along both
// segments. They are oriented so that EdgeLeft.Cross(EdgeRight) >= 0, which in
// image coordinates (y down) means EdgeRight is reached from EdgeLeft by a
// clockwise turn on screen. Direction is the normalized bisector of both
// edges.
type LShape struct {
	// Position is the intersection of both infinite lines.
	Position geometry.Vector2 `json:"position"`

	// Direction points into the corner, between both edges.
	Direction geometry.Vector2 `json:"direction"`

	EdgeLeft  geometry.Vector2 `json:"edge_left"`
	EdgeRight geometry.Vector2 `json:"edge_right"`

	// Score grows with the length of both segments that supports the corner.
	Score float64 `json:"score"`

	// LineIndex0 belongs to EdgeLeft and LineIndex1 to EdgeRight. Both are -1
	// for shapes without source lines.
	LineIndex0 int `json:"line_index0"`
	LineIndex1 int `json:"line_index1"`
}

// TShape is a junction where one segment (the stem) ends on the middle part of
// another one (the bar).
type TShape struct {
	Position geometry.Vector2 `json:"position"`

	// Direction runs along the stem, away from the junction.
	Direction geometry.Vector2 `json:"direction"`

	Score      float64 `json:"score"`
	LineIndex0 int     `json:"line_index0"` // bar
	LineIndex1 int     `json:"line_index1"` // stem
}

// XShape is a crossing of two segments.
type XShape struct {
	Position   geometry.Vector2 `json:"position"`
	Direction0 geometry.Vector2 `json:"direction0"`
	Direction1 geometry.Vector2 `json:"direction1"`
	Score      float64          `json:"score"`
	LineIndex0 int              `json:"line_index0"`
	LineIndex1 int              `json:"line_index1"`
}

// IndexedRectangle refers to four L-shapes in the order top-left,
// bottom-left, bottom-right, top-right.
type IndexedRectangle [4]int

// Rectangle is a quadrilateral with corners in the order top-left,
// bottom-left, bottom-right, top-right.
type Rectangle [4]geometry.Vector2

// Corners resolves an indexed rectangle against the L-shapes it refers to.
func (r IndexedRectangle) Corners(lShapes []LShape) Rectangle {
	var rect Rectangle
	for i, index := range r {
		rect[i] = lShapes[index].Position
	}
	return rect
}

// Default arguments of XShape.VerifyShape.
const (
	DefaultVerifySampleOffset = 2
	DefaultVerifySamples      = 4
)

// VerifyShape checks that the four arms of the crossing look alike in frame.
//
// Along each of the four arm directions (Direction0, -Direction0, Direction1,
// -Direction1) the intensity is sampled at distances sampleOffset,
// sampleOffset+1, ... sampleOffset+samples-1 from Position. For dark crossings
// on a bright background set darkShape so that the arms become the bright
// part. Frames whose sampled values span less than minimalValueRange are
// considered flat and accepted.
//
// Otherwise a threshold is taken from the sorted samples and the shape is
// accepted when at least two arms contain a value at or below that threshold.
// Any sample outside of the frame rejects the shape.
func (x XShape) VerifyShape(frame *image.Gray, darkShape bool, minimalValueRange float64, sampleOffset, samples int) bool {
	if samples <= 0 {
		return false
	}

	directions := [4]geometry.Vector2{
		x.Direction0,
		x.Direction0.Mul(-1),
		x.Direction1,
		x.Direction1.Mul(-1),
	}

	values := make([]float64, 0, 4*samples)
	minValue, maxValue := 255.0, 0.0

	for _, direction := range directions {
		for n := 0; n < samples; n++ {
			p := x.Position.Add(direction.Mul(float64(sampleOffset + n)))
			value, ok := imaging.Bilinear(frame, p.X, p.Y)
			if !ok {
				return false
			}
			if darkShape {
				value = 255 - value
			}
			values = append(values, value)
			minValue = min(minValue, value)
			maxValue = max(maxValue, value)
		}
	}

	if maxValue-minValue < minimalValueRange {
		return true
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	threshold := sorted[(samples+1)/2]

	arms := 0
	for d := 0; d < 4; d++ {
		for _, value := range values[d*samples : (d+1)*samples] {
			if value <= threshold {
				arms++
				break
			}
		}
	}

	return arms >= 2
}
