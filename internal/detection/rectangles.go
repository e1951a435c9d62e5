package detection

import (
	"math"
	"sort"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// Defaults for rectangle assembly.
const (
	DefaultMinDistanceBetweenCorners = 10.0
	DefaultCornerAngle               = 15 * s1.Degree
	DefaultConnectedAngle            = 5 * s1.Degree

	DefaultMinWidth                 = 90.0
	DefaultMaxWidth                 = 250.0
	DefaultAspectRatioTolerance     = 0.1
	DefaultOrthogonalAngleTolerance = 10 * s1.Degree

	DefaultBorderDistance = 10.0

	// minimalRectangleHeight is the shortest accepted side edge of a shaped
	// rectangle.
	minimalRectangleHeight = 5.0
)

// DetermineAlignedRectangles combines four L-shapes into rectangles.
//
// The L-shapes are split into four groups, one per corner, by comparing their
// direction with topLeftCornerDirection and its successive rotations by 90
// degrees (top-left, bottom-left, bottom-right, top-right) within cornerAngle.
// Each shape lands in the first matching group. If any group stays empty
// there is no rectangle.
//
// Every combination of one shape per group is accepted when consecutive
// corners (including top-right back to top-left) are at least
// minDistanceBetweenCorners apart and connected: the right edge of one corner
// and the left edge of the next point at each other within connectedAngle.
func DetermineAlignedRectangles(lShapes []LShape, topLeftCornerDirection geometry.Vector2, minDistanceBetweenCorners float64, cornerAngle, connectedAngle s1.Angle) []IndexedRectangle {
	if len(lShapes) < 4 {
		return nil
	}

	cosCorner := math.Cos(cornerAngle.Radians())
	cosConnected := math.Cos(connectedAngle.Radians())
	sqrMinDistance := minDistanceBetweenCorners * minDistanceBetweenCorners

	var groups [4][]int
	for i, shape := range lShapes {
		cornerDirection := topLeftCornerDirection.Normalize()
		for g := 0; g < 4; g++ {
			if cornerDirection.Dot(shape.Direction) >= cosCorner {
				groups[g] = append(groups[g], i)
				break
			}
			cornerDirection = geometry.Vector2{X: cornerDirection.Y, Y: -cornerDirection.X}
		}
	}

	for _, group := range groups {
		if len(group) == 0 {
			return nil
		}
	}

	connected := func(a, b int) bool {
		shapeA, shapeB := lShapes[a], lShapes[b]
		return geometry.SqrDistance(shapeA.Position, shapeB.Position) >= sqrMinDistance &&
			areLShapesConnected(shapeA, shapeB, shapeA.EdgeRight, shapeB.EdgeLeft, cosConnected)
	}

	var rectangles []IndexedRectangle
	for _, topLeft := range groups[0] {
		for _, bottomLeft := range groups[1] {
			if !connected(topLeft, bottomLeft) {
				continue
			}
			for _, bottomRight := range groups[2] {
				if !connected(bottomLeft, bottomRight) {
					continue
				}
				for _, topRight := range groups[3] {
					if !connected(bottomRight, topRight) || !connected(topRight, topLeft) {
						continue
					}
					rectangles = append(rectangles, IndexedRectangle{topLeft, bottomLeft, bottomRight, topRight})
				}
			}
		}
	}

	return rectangles
}

// areLShapesConnected reports whether edgeA of shape a points towards shape b
// and edgeB of shape b points back towards a, both within acos(cosAngle).
func areLShapesConnected(a, b LShape, edgeA, edgeB geometry.Vector2, cosAngle float64) bool {
	direction := b.Position.Sub(a.Position).Normalize()
	if direction.Norm() == 0 {
		return false
	}
	return edgeA.Dot(direction) >= cosAngle && -edgeB.Dot(direction) >= cosAngle
}

// DetermineShapedRectangles keeps the rectangles matching a target shape.
//
// Top and bottom edges must be between minWidth and maxWidth long, the side
// edges at least 5 pixels. All four corner angles must be within
// orthogonalAngleTolerance of 90 degrees, and every combination of a
// horizontal and a vertical edge length must have a ratio within
// aspectRatio*(1-tolerance) and aspectRatio*(1+tolerance).
func DetermineShapedRectangles(lShapes []LShape, rectangles []IndexedRectangle, aspectRatio, minWidth, maxWidth, aspectRatioTolerance float64, orthogonalAngleTolerance s1.Angle) []IndexedRectangle {
	cosOrthogonal := math.Cos(math.Pi/2 - orthogonalAngleTolerance.Radians())
	minRatio := aspectRatio * (1 - aspectRatioTolerance)
	maxRatio := aspectRatio * (1 + aspectRatioTolerance)

	var shaped []IndexedRectangle
	for _, indexed := range rectangles {
		corners := indexed.Corners(lShapes)
		if matchesShape(corners, minWidth, maxWidth, minRatio, maxRatio, cosOrthogonal) {
			shaped = append(shaped, indexed)
		}
	}
	return shaped
}

func matchesShape(r Rectangle, minWidth, maxWidth, minRatio, maxRatio, cosOrthogonal float64) bool {
	top := r[3].Sub(r[0])
	bottom := r[2].Sub(r[1])
	left := r[1].Sub(r[0])
	right := r[2].Sub(r[3])

	topWidth, bottomWidth := top.Norm(), bottom.Norm()
	leftHeight, rightHeight := left.Norm(), right.Norm()

	if topWidth < minWidth || topWidth > maxWidth || bottomWidth < minWidth || bottomWidth > maxWidth {
		return false
	}
	if leftHeight < minimalRectangleHeight || rightHeight < minimalRectangleHeight {
		return false
	}

	top, bottom = top.Mul(1/topWidth), bottom.Mul(1/bottomWidth)
	left, right = left.Mul(1/leftHeight), right.Mul(1/rightHeight)

	if math.Abs(top.Dot(left)) > cosOrthogonal || math.Abs(bottom.Dot(left)) > cosOrthogonal ||
		math.Abs(bottom.Dot(right)) > cosOrthogonal || math.Abs(top.Dot(right)) > cosOrthogonal {
		return false
	}

	for _, width := range []float64{topWidth, bottomWidth} {
		for _, height := range []float64{leftHeight, rightHeight} {
			if ratio := width / height; ratio < minRatio || ratio > maxRatio {
				return false
			}
		}
	}

	return true
}

// GuessParams configures GuessShapedRectanglesFromUpperCorners.
type GuessParams struct {
	TopLeftCornerDirection geometry.Vector2
	AspectRatio            float64
	ImageHeight            int
	MaxCandidates          int
	CornerAngle            s1.Angle
	ConnectedAngle         s1.Angle
	MinWidth               float64
	MaxWidth               float64

	// PairsPerEdge is the number of side lengths tried per corner pair.
	PairsPerEdge int

	// SideEdgeRatioMultiplier scales the side length derived from the aspect
	// ratio. Candidate k uses (multiplier + 0.1*k/PairsPerEdge) / AspectRatio.
	SideEdgeRatioMultiplier float64
}

// DefaultGuessParams returns guessing parameters for the given target shape.
func DefaultGuessParams(aspectRatio float64, imageHeight int) GuessParams {
	return GuessParams{
		TopLeftCornerDirection:  geometry.Vector2{X: 1, Y: 1}.Normalize(),
		AspectRatio:             aspectRatio,
		ImageHeight:             imageHeight,
		MaxCandidates:           20,
		CornerAngle:             DefaultCornerAngle,
		ConnectedAngle:          DefaultConnectedAngle,
		MinWidth:                DefaultMinWidth,
		MaxWidth:                DefaultMaxWidth,
		PairsPerEdge:            1,
		SideEdgeRatioMultiplier: 1,
	}
}

// GuessShapedRectanglesFromUpperCorners synthesizes rectangles when only the
// top-left and top-right corners were found.
//
// For every connected pair of a top-left and a top-right L-shape whose
// distance lies within [MinWidth, MaxWidth], PairsPerEdge side lengths are
// tried. Each yields two candidates: one extruding the top edge orthogonally
// downwards and one following the side edges of both L-shapes. A candidate is
// kept if one of its bottom corners lies above ImageHeight. At most
// MaxCandidates rectangles are returned.
func GuessShapedRectanglesFromUpperCorners(lShapes []LShape, params GuessParams) []Rectangle {
	if params.MaxCandidates <= 0 || params.PairsPerEdge <= 0 || params.AspectRatio <= 0 {
		return nil
	}

	topLeftDirection := params.TopLeftCornerDirection.Normalize()
	topRightDirection := topLeftDirection.Ortho()
	cosCorner := math.Cos(params.CornerAngle.Radians())
	cosConnected := math.Cos(params.ConnectedAngle.Radians())

	var topLefts, topRights []int
	for i, shape := range lShapes {
		switch {
		case shape.Direction.Dot(topLeftDirection) >= cosCorner:
			topLefts = append(topLefts, i)
		case shape.Direction.Dot(topRightDirection) >= cosCorner:
			topRights = append(topRights, i)
		}
	}
	if len(topLefts) == 0 || len(topRights) == 0 {
		return nil
	}

	sqrMinWidth := params.MinWidth * params.MinWidth
	sqrMaxWidth := params.MaxWidth * params.MaxWidth
	imageHeight := float64(params.ImageHeight)

	var candidates []Rectangle
	add := func(r Rectangle) bool {
		if r[1].Y < imageHeight || r[2].Y < imageHeight {
			candidates = append(candidates, r)
		}
		return len(candidates) >= params.MaxCandidates
	}

	for _, tl := range topLefts {
		topLeft := lShapes[tl]
		for _, tr := range topRights {
			topRight := lShapes[tr]

			sqrWidth := geometry.SqrDistance(topLeft.Position, topRight.Position)
			if sqrWidth < sqrMinWidth || sqrWidth > sqrMaxWidth {
				continue
			}
			if !areLShapesConnected(topLeft, topRight, topLeft.EdgeLeft, topRight.EdgeRight, cosConnected) {
				continue
			}

			top := topRight.Position.Sub(topLeft.Position)
			width := math.Sqrt(sqrWidth)

			for k := 0; k < params.PairsPerEdge; k++ {
				ratio := (params.SideEdgeRatioMultiplier + 0.10/float64(params.PairsPerEdge)*float64(k)) / params.AspectRatio

				vertical := top.Ortho().Mul(ratio)
				if add(Rectangle{topLeft.Position, topLeft.Position.Add(vertical), topRight.Position.Add(vertical), topRight.Position}) {
					return candidates[:params.MaxCandidates]
				}

				side := width * ratio
				if add(Rectangle{
					topLeft.Position,
					topLeft.Position.Add(topLeft.EdgeRight.Mul(side)),
					topRight.Position.Add(topRight.EdgeLeft.Mul(side)),
					topRight.Position,
				}) {
					return candidates[:params.MaxCandidates]
				}
			}
		}
	}

	return candidates
}

// HasGreaterArea reports whether a encloses a larger area than b. The area is
// compared through the sum of the squared areas of the triangles (0, 1, 2) and
// (2, 3, 0).
func HasGreaterArea(a, b Rectangle) bool {
	return squaredAreaSum(a) > squaredAreaSum(b)
}

func squaredAreaSum(r Rectangle) float64 {
	return geometry.TriangleSquaredArea(r[0], r[1], r[2]) + geometry.TriangleSquaredArea(r[2], r[3], r[0])
}

// SortRectanglesByArea sorts rectangles by decreasing area, keeping the order
// of equal areas.
func SortRectanglesByArea(rectangles []Rectangle) {
	sort.SliceStable(rectangles, func(i, j int) bool {
		return HasGreaterArea(rectangles[i], rectangles[j])
	})
}

// RemoveLinesTooCloseToBorder drops lines with an endpoint closer than
// distance to the image border. Lines are removed by swapping with the last
// element; the shortened slice is returned.
func RemoveLinesTooCloseToBorder(lines []geometry.FiniteLine2, width, height int, distance float64) []geometry.FiniteLine2 {
	maxX := float64(width) - distance
	maxY := float64(height) - distance

	tooClose := func(p geometry.Vector2) bool {
		return p.X < distance || p.Y < distance || p.X > maxX || p.Y > maxY
	}

	for i := 0; i < len(lines); {
		if tooClose(lines[i].P0) || tooClose(lines[i].P1) {
			last := len(lines) - 1
			lines[i] = lines[last]
			lines = lines[:last]
			continue
		}
		i++
	}
	return lines
}
