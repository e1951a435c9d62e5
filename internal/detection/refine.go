package detection

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
)

// Defaults for edge refinement.
const (
	DefaultPerpendicularSampleDistance = 5
	DefaultSampleLocations             = 30
	DefaultMinimalValidSampleLocations = 5
)

const (
	// minimalEdgeDelta is the intensity difference between neighboring
	// samples a peak has to exceed.
	minimalEdgeDelta = 10.0

	refineIterations   = 30
	refineMaxSqrError  = 1.5 * 1.5
	refineRANSACSeed   = 1
	refineFirstPercent = 0.05
	refinePercentSpan  = 0.9
)

// ErrEdgeNotFound is returned by OptimizeLineAlongEdge when the frame holds
// no step edge close enough to the coarse line.
var ErrEdgeNotFound = errors.New("no edge found along line")

// OptimizeRectangleAlongEdges snaps the edges of a coarse rectangle to the
// strongest intensity steps in frame.
//
// The edges left (0-1), bottom (1-2), right (2-3) and top (3-0) are refined
// with OptimizeLineAlongEdge using default sampling. The refined corners are
// the intersections of adjacent edges. The boolean is false if an edge cannot
// be refined, adjacent edges are parallel, or a corner leaves the frame.
func OptimizeRectangleAlongEdges(frame *image.Gray, rectangle Rectangle, perpendicularSampleDistance int) (Rectangle, bool) {
	var edges [4]geometry.Line2
	for i := range edges {
		line := geometry.FiniteLine2{P0: rectangle[i], P1: rectangle[(i+1)%4]}
		refined, err := OptimizeLineAlongEdge(frame, line, perpendicularSampleDistance, DefaultSampleLocations, DefaultMinimalValidSampleLocations, nil)
		if err != nil {
			return Rectangle{}, false
		}
		edges[i] = refined
	}

	left, bottom, right, top := edges[0], edges[1], edges[2], edges[3]
	pairs := [4][2]geometry.Line2{{left, top}, {left, bottom}, {bottom, right}, {right, top}}

	width := float64(frame.Bounds().Dx())
	height := float64(frame.Bounds().Dy())

	var refined Rectangle
	for i, pair := range pairs {
		corner, ok := pair[0].Intersection(pair[1])
		if !ok || corner.X < 0 || corner.Y < 0 || corner.X >= width || corner.Y >= height {
			return Rectangle{}, false
		}
		refined[i] = corner
	}

	return refined, true
}

// OptimizeLineAlongEdge fits a line to the intensity step closest to a coarse
// edge.
//
// Samples are placed along line at the given fractions of its length; without
// percents, sampleLocations samples spread evenly over the middle 90%. Samples
// closer than 2*perpendicularSampleDistance to the frame border are skipped.
// From each sample the frame is scanned perpendicular to the line, from
// +perpendicularSampleDistance to -perpendicularSampleDistance in steps of
// one pixel. The largest intensity difference between two neighboring scan
// positions marks a peak halfway between them, provided the difference
// exceeds the noise floor.
//
// The peaks are fitted with RANSAC. ErrEdgeNotFound is returned when fewer
// than minimalValidSampleLocations peaks are found or support the fitted line.
// Explicit percents must agree with sampleLocations unless it is zero, and
// minimalValidSampleLocations may not exceed the number of samples.
func OptimizeLineAlongEdge(frame *image.Gray, line geometry.FiniteLine2, perpendicularSampleDistance, sampleLocations, minimalValidSampleLocations int, percents []float64) (geometry.Line2, error) {
	if percents != nil && sampleLocations != 0 && sampleLocations != len(percents) {
		return geometry.Line2{}, fmt.Errorf("got %d sample percents for %d sample locations", len(percents), sampleLocations)
	}
	if percents == nil && sampleLocations < 2 {
		return geometry.Line2{}, fmt.Errorf("invalid sample location count %d: must be at least 2", sampleLocations)
	}
	count := sampleLocations
	if percents != nil {
		count = len(percents)
	}
	if minimalValidSampleLocations > count {
		return geometry.Line2{}, fmt.Errorf("%d valid samples required but only %d sampled", minimalValidSampleLocations, count)
	}

	width := frame.Bounds().Dx()
	height := frame.Bounds().Dy()

	if perpendicularSampleDistance <= 0 || !line.IsValid() {
		return geometry.Line2{}, ErrEdgeNotFound
	}
	if width <= 2*perpendicularSampleDistance || height <= 2*perpendicularSampleDistance {
		return geometry.Line2{}, ErrEdgeNotFound
	}

	if percents == nil {
		percents = make([]float64, sampleLocations)
		for n := range percents {
			percents[n] = refineFirstPercent + float64(n)*refinePercentSpan/float64(sampleLocations-1)
		}
	}

	border := float64(2 * perpendicularSampleDistance)
	direction := line.P1.Sub(line.P0)
	perpendicular := line.Normal()

	peaks := make([]geometry.Vector2, 0, len(percents))

	for _, percent := range percents {
		center := line.P0.Add(direction.Mul(percent))
		if center.X < border || center.Y < border || center.X >= float64(width)-border || center.Y >= float64(height)-border {
			continue
		}

		if peak, ok := strongestStep(frame, center, perpendicular, perpendicularSampleDistance); ok {
			peaks = append(peaks, peak)
		}
	}

	if len(peaks) < minimalValidSampleLocations || len(peaks) < 2 {
		return geometry.Line2{}, ErrEdgeNotFound
	}

	rng := rand.New(rand.NewSource(refineRANSACSeed))
	fitted, used, ok := geometry.RANSACLine(peaks, rng, true, refineIterations, refineMaxSqrError)
	if !ok || len(used) < minimalValidSampleLocations {
		return geometry.Line2{}, ErrEdgeNotFound
	}

	return fitted, nil
}

// strongestStep scans from center along perpendicular and returns the point
// halfway between the two neighboring positions with the largest intensity
// difference. The first maximum wins.
func strongestStep(frame *image.Gray, center, perpendicular geometry.Vector2, distance int) (geometry.Vector2, bool) {
	previous, ok := sampleAt(frame, center, perpendicular, float64(distance))
	if !ok {
		return geometry.Vector2{}, false
	}

	bestDelta := minimalEdgeDelta
	var best geometry.Vector2
	found := false

	for k := distance - 1; k >= -distance; k-- {
		value, ok := sampleAt(frame, center, perpendicular, float64(k))
		if !ok {
			return geometry.Vector2{}, false
		}

		if delta := math.Abs(value - previous); delta > bestDelta {
			bestDelta = delta
			best = center.Add(perpendicular.Mul(float64(k) + 0.5))
			found = true
		}
		previous = value
	}

	return best, found
}

func sampleAt(frame *image.Gray, center, perpendicular geometry.Vector2, offset float64) (float64, bool) {
	p := center.Add(perpendicular.Mul(offset))
	return imaging.Bilinear(frame, p.X, p.Y)
}
