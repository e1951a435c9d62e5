package detection

import (
	"math"
	"sort"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// Defaults for PostAdjustShapes.
const (
	DefaultSimilarPointDistance = 1.5
	DefaultSimilarAngle         = 15 * s1.Degree
)

// postAdjustBinSize is the edge length in pixels of the grid cells used to
// find co-located shapes.
const postAdjustBinSize = 5

// PostAdjustShapes fuses co-located shapes into higher order junctions.
//
// Two T-shapes closer than similarPointDistance whose directions are parallel
// or perpendicular within similarAngle become an X-shape. Two L-shapes with
// opposite directions become an X-shape, two L-shapes with perpendicular
// directions become a T-shape. L/T pairs are left alone. Fused shapes are
// placed at the midpoint of their sources and carry line indices of -1.
//
// Every fusion consumes exactly two shapes, which are removed by swapping with
// the last element, so the order of the remaining shapes changes.
func PostAdjustShapes(width, height int, lShapes []LShape, tShapes []TShape, xShapes []XShape, similarPointDistance float64, similarAngle s1.Angle) ([]LShape, []TShape, []XShape) {
	if len(lShapes)+len(tShapes) < 2 {
		return lShapes, tShapes, xShapes
	}

	grid := geometry.NewDistributionArray(0, 0, float64(width), float64(height),
		max(1, width/postAdjustBinSize), max(1, height/postAdjustBinSize))

	// T-shapes come first, L-shapes follow with an offset of len(tShapes)
	offset := len(tShapes)
	position := func(index int) geometry.Vector2 {
		if index < offset {
			return tShapes[index].Position
		}
		return lShapes[index-offset].Position
	}

	for i := range tShapes {
		grid.AddPoint(position(i), i)
	}
	for i := range lShapes {
		grid.AddPoint(position(offset+i), offset+i)
	}

	sqrDistance := similarPointDistance * similarPointDistance
	cosSimilar := math.Cos(similarAngle.Radians())
	cosPerpendicular := math.Cos(math.Pi/2 - similarAngle.Radians())

	removed := make([]bool, offset+len(lShapes))
	var neighbors []int

	for yBin := 0; yBin < grid.VerticalBins(); yBin++ {
		for xBin := 0; xBin < grid.HorizontalBins(); xBin++ {
			for _, a := range grid.Indices(xBin, yBin) {
				if removed[a] {
					continue
				}

				neighbors = grid.IndicesNeighborhood9(xBin, yBin, neighbors[:0])

				for _, b := range neighbors {
					if b <= a || removed[b] || removed[a] {
						continue
					}
					// L/T pairs are never fused
					if (a < offset) != (b < offset) {
						continue
					}

					pa, pb := position(a), position(b)
					if geometry.SqrDistance(pa, pb) > sqrDistance {
						continue
					}
					midpoint := pa.Add(pb).Mul(0.5)

					if a < offset {
						ta, tb := tShapes[a], tShapes[b]
						cos := math.Abs(ta.Direction.Dot(tb.Direction))
						if cos < cosSimilar && cos > cosPerpendicular {
							continue
						}
						xShapes = append(xShapes, XShape{
							Position:   midpoint,
							Direction0: ta.Direction,
							Direction1: ta.Direction.Ortho(),
							Score:      ta.Score + tb.Score,
							LineIndex0: -1,
							LineIndex1: -1,
						})
						removed[a], removed[b] = true, true
						continue
					}

					la, lb := lShapes[a-offset], lShapes[b-offset]
					cos := la.Direction.Dot(lb.Direction)

					switch {
					case cos <= -cosSimilar:
						xShapes = append(xShapes, XShape{
							Position:   midpoint,
							Direction0: la.EdgeLeft,
							Direction1: la.EdgeRight,
							Score:      la.Score + lb.Score,
							LineIndex0: -1,
							LineIndex1: -1,
						})
					case math.Abs(cos) <= cosPerpendicular:
						tShapes = append(tShapes, TShape{
							Position:   midpoint,
							Direction:  la.Direction.Add(lb.Direction).Normalize(),
							Score:      la.Score + lb.Score,
							LineIndex0: -1,
							LineIndex1: -1,
						})
					default:
						continue
					}
					removed[a], removed[b] = true, true
				}
			}
		}
	}

	// New T-shapes were appended after the indexed ones, so indices below
	// offset still address the original T-shapes.
	var removedT, removedL []int
	for index, gone := range removed {
		if !gone {
			continue
		}
		if index < offset {
			removedT = append(removedT, index)
		} else {
			removedL = append(removedL, index-offset)
		}
	}

	lShapes = removeIndices(lShapes, removedL)
	tShapes = removeIndices(tShapes, removedT)

	return lShapes, tShapes, xShapes
}

// removeIndices removes the given indices from values by swapping each with
// the last element, highest index first.
func removeIndices[T any](values []T, indices []int) []T {
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, index := range indices {
		last := len(values) - 1
		values[index] = values[last]
		values = values[:last]
	}
	return values
}
