package detection

import (
	"math"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// Defaults for DetermineShapes.
const (
	DefaultShortThreshold = 2.0
	DefaultLongThreshold  = 5.0
	DefaultShapeAngle     = 20 * s1.Degree
	DefaultXShapeAngle    = 5 * s1.Degree
)

// zone classifies where an intersection lies along a segment.
type zone int

const (
	zoneNone zone = iota
	zoneLong
	zoneShortStart
	zoneShortEnd
)

// lineZone returns the zone of the signed position t along a segment of the
// given length. The middle part [long, length-long] wins over both ends.
func lineZone(t, length, shortThreshold, longThreshold float64) zone {
	switch {
	case t >= longThreshold && t <= length-longThreshold:
		return zoneLong
	case t >= -shortThreshold && t <= shortThreshold:
		return zoneShortStart
	case t >= length-shortThreshold && t <= length+shortThreshold:
		return zoneShortEnd
	}
	return zoneNone
}

// SplitByOrientation separates lines into the roughly horizontal and the
// roughly vertical ones. Diagonals at exactly 45 degrees count as horizontal.
func SplitByOrientation(lines []geometry.FiniteLine2) (horizontal, vertical []geometry.FiniteLine2) {
	for _, line := range lines {
		d := line.P1.Sub(line.P0)
		if math.Abs(d.X) >= math.Abs(d.Y) {
			horizontal = append(horizontal, line)
		} else {
			vertical = append(vertical, line)
		}
	}
	return horizontal, vertical
}

// DetermineShapes classifies the junctions between a set of roughly
// horizontal and a set of roughly vertical segments.
//
// For every pair whose directions are perpendicular within shapeAngle and
// whose infinite lines intersect inside the image, the position of the
// intersection along each segment decides the shape:
//   - middle of both segments: X-shape, which additionally needs the
//     directions to be perpendicular within xAngle
//   - middle of one segment, end of the other: T-shape, with the direction
//     pointing along the stem away from the junction
//   - end of both segments: L-shape
//
// The middle part of a segment starts longThreshold away from its endpoints,
// the ends reach shortThreshold beyond and before each endpoint. Segments not
// longer than longThreshold and 2*shortThreshold are skipped. LineIndex0 of
// every shape indexes horizontal (the bar for T-shapes), LineIndex1 indexes
// vertical.
func DetermineShapes(horizontal, vertical []geometry.FiniteLine2, width, height int, shortThreshold, longThreshold float64, shapeAngle, xAngle s1.Angle) ([]LShape, []TShape, []XShape) {
	var (
		lShapes []LShape
		tShapes []TShape
		xShapes []XShape
	)

	cosShape := math.Cos(math.Pi/2 - shapeAngle.Radians())
	cosX := math.Cos(math.Pi/2 - xAngle.Radians())

	usable := func(line geometry.FiniteLine2) bool {
		length := line.Length()
		return length > longThreshold && length > 2*shortThreshold
	}

	for h, lineH := range horizontal {
		if !usable(lineH) {
			continue
		}
		directionH := lineH.Direction()
		lengthH := lineH.Length()

		for v, lineV := range vertical {
			if !usable(lineV) {
				continue
			}
			directionV := lineV.Direction()
			lengthV := lineV.Length()

			dot := math.Abs(directionH.Dot(directionV))
			if dot > cosShape {
				continue
			}

			intersection, ok := lineH.Infinite().Intersection(lineV.Infinite())
			if !ok || intersection.X < 0 || intersection.Y < 0 || intersection.X >= float64(width) || intersection.Y >= float64(height) {
				continue
			}

			zoneH := lineZone(directionH.Dot(intersection.Sub(lineH.P0)), lengthH, shortThreshold, longThreshold)
			zoneV := lineZone(directionV.Dot(intersection.Sub(lineV.P0)), lengthV, shortThreshold, longThreshold)
			if zoneH == zoneNone || zoneV == zoneNone {
				continue
			}

			score := lengthH * lengthV

			switch {
			case zoneH == zoneLong && zoneV == zoneLong:
				if dot > cosX {
					continue
				}
				xShapes = append(xShapes, XShape{
					Position:   intersection,
					Direction0: directionH,
					Direction1: directionV,
					Score:      score,
					LineIndex0: h,
					LineIndex1: v,
				})

			case zoneH == zoneLong:
				tShapes = append(tShapes, TShape{
					Position:   intersection,
					Direction:  awayFromJoint(directionV, zoneV),
					Score:      score,
					LineIndex0: h,
					LineIndex1: v,
				})

			case zoneV == zoneLong:
				tShapes = append(tShapes, TShape{
					Position:   intersection,
					Direction:  awayFromJoint(directionH, zoneH),
					Score:      score,
					LineIndex0: h,
					LineIndex1: v,
				})

			default:
				edgeLeft := awayFromJoint(directionH, zoneH)
				edgeRight := awayFromJoint(directionV, zoneV)
				if edgeLeft.Cross(edgeRight) < 0 {
					edgeLeft, edgeRight = edgeRight, edgeLeft
				}
				lShapes = append(lShapes, LShape{
					Position:   intersection,
					Direction:  edgeLeft.Add(edgeRight).Normalize(),
					EdgeLeft:   edgeLeft,
					EdgeRight:  edgeRight,
					Score:      score,
					LineIndex0: h,
					LineIndex1: v,
				})
			}
		}
	}

	return lShapes, tShapes, xShapes
}

// awayFromJoint orients a segment direction away from a junction at its start
// or end.
func awayFromJoint(direction geometry.Vector2, z zone) geometry.Vector2 {
	if z == zoneShortEnd {
		return direction.Mul(-1)
	}
	return direction
}
