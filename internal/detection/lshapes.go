package detection

import (
	"math"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// Defaults for corner detection.
const (
	DefaultLShapeDistance = 15.0
	DefaultLShapeAngle    = 15 * s1.Degree

	DefaultNMSDistance = 10.0
	DefaultNMSAngle    = 25 * s1.Degree
)

// DetermineLShapes finds corners formed by pairs of line segments.
//
// Two segments form an L-shape when
//   - their directions are perpendicular within thresholdAngle,
//   - an endpoint of one lies within thresholdDistance of an endpoint of the
//     other,
//   - their infinite lines intersect inside the image, and
//   - on each segment the intersection is closer to the near endpoint than to
//     the far one.
//
// Both edges point from the intersection towards the far endpoints. The score
// is the product of both segment lengths, each reduced by the distance between
// the segment and the intersection. Every pair of lines yields at most one
// L-shape. Lines with an endpoint outside the image are not indexed, so they
// only pair with in-image lines that come later in lines.
func DetermineLShapes(lines []geometry.FiniteLine2, width, height int, thresholdDistance float64, thresholdAngle s1.Angle) []LShape {
	if len(lines) < 2 || width <= 0 || height <= 0 {
		return nil
	}

	horizontalBins, verticalBins := geometry.IdealBinsNeighborhood9(width, height, thresholdDistance)
	grid := geometry.NewDistributionArray(0, 0, float64(width), float64(height), horizontalBins, verticalBins)

	maxX := float64(width - 1)
	maxY := float64(height - 1)
	for i, line := range lines {
		if !line.IsValid() || !inside(line.P0, maxX, maxY) || !inside(line.P1, maxX, maxY) {
			continue
		}
		grid.AddPoint(line.P0, i)
		grid.AddPoint(line.P1, i)
	}

	cosPerpendicular := math.Cos(math.Pi/2 - thresholdAngle.Radians())
	sqrDistance := thresholdDistance * thresholdDistance

	var lShapes []LShape
	paired := make(map[[2]int]struct{})
	var candidates []int

	for a, lineA := range lines {
		if !lineA.IsValid() {
			continue
		}
		directionA := lineA.Direction()

		for endpoint := 0; endpoint < 2; endpoint++ {
			query := lineA.Point(endpoint)

			candidates = grid.IndicesNeighborhood9(grid.HorizontalBin(query.X), grid.VerticalBin(query.Y), candidates[:0])

			for _, b := range candidates {
				if b <= a {
					continue
				}
				if _, ok := paired[[2]int{a, b}]; ok {
					continue
				}

				lineB := lines[b]
				directionB := lineB.Direction()

				if math.Abs(directionA.Dot(directionB)) > cosPerpendicular {
					continue
				}
				if geometry.SqrDistance(query, lineB.P0) > sqrDistance && geometry.SqrDistance(query, lineB.P1) > sqrDistance {
					continue
				}

				intersection, ok := lineA.Infinite().Intersection(lineB.Infinite())
				if !ok || intersection.X < 0 || intersection.Y < 0 || intersection.X >= float64(width) || intersection.Y >= float64(height) {
					continue
				}

				farA, okA := farEndpoint(lineA, intersection)
				farB, okB := farEndpoint(lineB, intersection)
				if !okA || !okB {
					continue
				}

				edgeLeft := farA.Sub(intersection).Normalize()
				edgeRight := farB.Sub(intersection).Normalize()

				score := math.Max(0, lineA.Length()-lineA.Distance(intersection)) *
					math.Max(0, lineB.Length()-lineB.Distance(intersection))

				shape := LShape{
					Position:   intersection,
					Direction:  edgeLeft.Add(edgeRight).Normalize(),
					EdgeLeft:   edgeLeft,
					EdgeRight:  edgeRight,
					Score:      score,
					LineIndex0: a,
					LineIndex1: b,
				}
				if shape.EdgeLeft.Cross(shape.EdgeRight) < 0 {
					shape.EdgeLeft, shape.EdgeRight = shape.EdgeRight, shape.EdgeLeft
					shape.LineIndex0, shape.LineIndex1 = shape.LineIndex1, shape.LineIndex0
				}

				lShapes = append(lShapes, shape)
				paired[[2]int{a, b}] = struct{}{}
			}
		}
	}

	return lShapes
}

// farEndpoint returns the endpoint of line farther away from p. The boolean
// is false when p is not strictly closer to the other endpoint.
func farEndpoint(line geometry.FiniteLine2, p geometry.Vector2) (geometry.Vector2, bool) {
	sqr0 := geometry.SqrDistance(line.P0, p)
	sqr1 := geometry.SqrDistance(line.P1, p)
	switch {
	case sqr0 < sqr1:
		return line.P1, true
	case sqr1 < sqr0:
		return line.P0, true
	}
	return geometry.Vector2{}, false
}

func inside(p geometry.Vector2, maxX, maxY float64) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= maxX && p.Y <= maxY
}

// FilterLShapesBasedOnDirection keeps the L-shapes whose direction is
// parallel to alignment within angle. With allowPerpendicular set, shapes
// perpendicular to alignment are kept as well. Directions are compared
// without sign. The order of the kept shapes is preserved.
func FilterLShapesBasedOnDirection(lShapes []LShape, alignment geometry.Vector2, angle s1.Angle, allowPerpendicular bool) []LShape {
	alignment = alignment.Normalize()
	perpendicular := alignment.Ortho()
	cosAngle := math.Cos(angle.Radians())

	filtered := make([]LShape, 0, len(lShapes))
	for _, shape := range lShapes {
		if math.Abs(shape.Direction.Dot(alignment)) >= cosAngle ||
			(allowPerpendicular && math.Abs(shape.Direction.Dot(perpendicular)) >= cosAngle) {
			filtered = append(filtered, shape)
		}
	}
	return filtered
}

// NonMaximumSuppressionLShapes removes L-shapes that have a stronger neighbor:
// a shape within distance whose direction differs by at most angle and whose
// score is higher, or equal with a lower index. The order of the surviving
// shapes is preserved.
func NonMaximumSuppressionLShapes(lShapes []LShape, width, height int, distance float64, angle s1.Angle) []LShape {
	if len(lShapes) < 2 {
		return lShapes
	}

	horizontalBins, verticalBins := geometry.IdealBinsNeighborhood9(width, height, distance)
	grid := geometry.NewDistributionArray(0, 0, float64(width), float64(height), horizontalBins, verticalBins)
	for i, shape := range lShapes {
		grid.AddPoint(shape.Position, i)
	}

	sqrDistance := distance * distance
	cosAngle := math.Cos(angle.Radians())

	kept := make([]LShape, 0, len(lShapes))
	var neighbors []int

	for i, shape := range lShapes {
		neighbors = grid.IndicesNeighborhood9(grid.HorizontalBin(shape.Position.X), grid.VerticalBin(shape.Position.Y), neighbors[:0])

		suppressed := false
		for _, j := range neighbors {
			if j == i {
				continue
			}
			other := lShapes[j]
			if geometry.SqrDistance(shape.Position, other.Position) > sqrDistance {
				continue
			}
			if shape.Direction.Dot(other.Direction) < cosAngle {
				continue
			}
			if other.Score > shape.Score || (other.Score == shape.Score && j < i) {
				suppressed = true
				break
			}
		}

		if !suppressed {
			kept = append(kept, shape)
		}
	}

	return kept
}
