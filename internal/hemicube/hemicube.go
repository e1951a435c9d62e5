package hemicube

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// MapIndex addresses one bucket of a HemiCube.
type MapIndex struct {
	BinX int `json:"bin_x"`
	BinY int `json:"bin_y"`
	Face int `json:"face"` // 0, 1 or 2
}

// HemiCube stores line segments bucketed by their homogeneous line equation.
//
// Stored lines are addressed by the index returned from Insert. Indices stay
// valid until Clear, also across UpdateLine.
//
// A HemiCube is not safe for concurrent use.
type HemiCube struct {
	bins        int
	principal   geometry.Vector2
	focalLength float64

	lines   []geometry.FiniteLine2
	indices []MapIndex
	buckets map[MapIndex][]int
}

// New creates an empty HemiCube with bins x bins buckets per face for images
// of the given size. The principal point is the image center.
func New(bins, imageWidth, imageHeight int, focalLength float64) (*HemiCube, error) {
	if bins < 1 {
		return nil, fmt.Errorf("invalid bin count %d: must be at least 1", bins)
	}
	if imageWidth < 1 || imageHeight < 1 {
		return nil, fmt.Errorf("invalid image size %dx%d", imageWidth, imageHeight)
	}
	if !(focalLength > 0) {
		return nil, fmt.Errorf("invalid focal length %f: must be positive", focalLength)
	}

	return &HemiCube{
		bins:        bins,
		principal:   geometry.Vector2{X: float64(imageWidth) * 0.5, Y: float64(imageHeight) * 0.5},
		focalLength: focalLength,
		buckets:     make(map[MapIndex][]int),
	}, nil
}

// Bins returns the number of bins per face axis.
func (h *HemiCube) Bins() int { return h.bins }

// Len returns the number of stored lines.
func (h *HemiCube) Len() int { return len(h.lines) }

// Line returns the stored line with the given index.
func (h *HemiCube) Line(index int) geometry.FiniteLine2 { return h.lines[index] }

// Lines returns a copy of all stored lines, ordered by index.
func (h *HemiCube) Lines() []geometry.FiniteLine2 {
	out := make([]geometry.FiniteLine2, len(h.lines))
	copy(out, h.lines)
	return out
}

// Clear removes all lines, keeping the configuration.
func (h *HemiCube) Clear() {
	h.lines = h.lines[:0]
	h.indices = h.indices[:0]
	h.buckets = make(map[MapIndex][]int)
}

// Insert stores line and returns its index.
func (h *HemiCube) Insert(line geometry.FiniteLine2) int {
	index := len(h.lines)
	mapIndex := h.mapIndexFrom(line)

	h.lines = append(h.lines, line)
	h.indices = append(h.indices, mapIndex)
	h.buckets[mapIndex] = append(h.buckets[mapIndex], index)

	return index
}

// Find returns the indices of all stored lines whose bucket lies within a
// disk of radius bins around the bucket of line, on the same face. Use a
// radius of 1.5 to cover the full 8-neighborhood. The result is sorted.
// Radii beyond the face size cover the whole face; a negative or NaN radius
// finds nothing.
func (h *HemiCube) Find(line geometry.FiniteLine2, radius float64) []int {
	if !(radius >= 0) {
		return nil
	}
	center := h.mapIndexFrom(line)

	// no face is wider than bins
	r := h.bins
	if radius < float64(h.bins) {
		r = int(radius)
	}
	sqrRadius := radius * radius

	var found []int
	for dy := -r; dy <= r; dy++ {
		y := center.BinY + dy
		if y < 0 || y >= h.bins {
			continue
		}
		for dx := -r; dx <= r; dx++ {
			x := center.BinX + dx
			if x < 0 || x >= h.bins {
				continue
			}
			if float64(dx*dx+dy*dy) > sqrRadius {
				continue
			}
			found = append(found, h.buckets[MapIndex{BinX: x, BinY: y, Face: center.Face}]...)
		}
	}

	sort.Ints(found)
	return found
}

// UpdateLine replaces the line stored at index and moves it to the bucket of
// the new line.
func (h *HemiCube) UpdateLine(index int, line geometry.FiniteLine2) {
	old := h.indices[index]

	bucket := h.buckets[old]
	for i, stored := range bucket {
		if stored == index {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(h.buckets, old)
	} else {
		h.buckets[old] = bucket
	}

	mapIndex := h.mapIndexFrom(line)
	h.buckets[mapIndex] = append(h.buckets[mapIndex], index)
	h.indices[index] = mapIndex
	h.lines[index] = line
}

// mapIndexFrom returns the bucket of a line. Reversed lines share a bucket.
func (h *HemiCube) mapIndexFrom(line geometry.FiniteLine2) MapIndex {
	ray0 := r3.Vector{X: line.P0.X - h.principal.X, Y: line.P0.Y - h.principal.Y, Z: h.focalLength}
	ray1 := r3.Vector{X: line.P1.X - h.principal.X, Y: line.P1.Y - h.principal.Y, Z: h.focalLength}

	equation := ray0.Cross(ray1)

	if equation.Norm2() == 0 {
		// degenerate segment, park it in the center of the last face
		return MapIndex{BinX: h.bins / 2, BinY: h.bins / 2, Face: 2}
	}

	var face int
	var u, v float64

	switch equation.LargestComponent() {
	case r3.XAxis:
		face, u, v = 0, equation.Y/equation.X, equation.Z/equation.X
	case r3.YAxis:
		face, u, v = 1, equation.X/equation.Y, equation.Z/equation.Y
	default:
		face, u, v = 2, equation.X/equation.Z, equation.Y/equation.Z
	}

	return MapIndex{BinX: h.bin(u), BinY: h.bin(v), Face: face}
}

// bin maps a face coordinate in [-1, 1] to [0, bins).
func (h *HemiCube) bin(value float64) int {
	b := int((value + 1) * 0.5 * float64(h.bins))
	if b < 0 {
		return 0
	}
	if b >= h.bins {
		return h.bins - 1
	}
	return b
}

// Fuse combines two roughly collinear segments into one.
//
// The fused line runs through the length-weighted average of both midpoints
// along the length-weighted average direction (the second direction is
// flipped first if both disagree). The result spans the extreme projections
// of all four endpoints onto that line.
func Fuse(line0, line1 geometry.FiniteLine2) geometry.FiniteLine2 {
	length0 := line0.Length()
	length1 := line1.Length()
	if length0+length1 == 0 {
		return line0
	}

	direction0 := line0.Direction()
	direction1 := line1.Direction()
	if direction0.Dot(direction1) < 0 {
		direction1 = direction1.Mul(-1)
	}

	weights := []float64{length0, length1}
	mid0 := line0.Midpoint()
	mid1 := line1.Midpoint()

	center := geometry.Vector2{
		X: stat.Mean([]float64{mid0.X, mid1.X}, weights),
		Y: stat.Mean([]float64{mid0.Y, mid1.Y}, weights),
	}

	direction := direction0.Mul(length0).Add(direction1.Mul(length1)).Normalize()
	if direction.Norm() == 0 {
		return line0
	}

	fitted := geometry.Line2{Point: center, Direction: direction}

	minT, maxT := math.MaxFloat64, -math.MaxFloat64
	for _, p := range []geometry.Vector2{line0.P0, line0.P1, line1.P0, line1.P1} {
		t := fitted.Project(p)
		minT = math.Min(minT, t)
		maxT = math.Max(maxT, t)
	}

	return geometry.FiniteLine2{P0: fitted.At(minT), P1: fitted.At(maxT)}
}
