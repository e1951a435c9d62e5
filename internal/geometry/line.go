package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Vector2 is a 2D point or direction in pixel coordinates.
type Vector2 = r2.Point

// eps is the tolerance below which a length or determinant counts as zero.
const eps = 1e-10

// FiniteLine2 is a line segment between two endpoints.
type FiniteLine2 struct {
	P0 Vector2 `json:"p0"`
	P1 Vector2 `json:"p1"`
}

// NewFiniteLine2 creates a segment from its endpoint coordinates.
func NewFiniteLine2(x0, y0, x1, y1 float64) FiniteLine2 {
	return FiniteLine2{P0: Vector2{X: x0, Y: y0}, P1: Vector2{X: x1, Y: y1}}
}

// IsValid reports whether both endpoints differ.
func (l FiniteLine2) IsValid() bool {
	return l.P1.Sub(l.P0).Norm() > eps
}

// Point returns endpoint i (0 or 1).
func (l FiniteLine2) Point(i int) Vector2 {
	if i == 0 {
		return l.P0
	}
	return l.P1
}

// Direction returns the unit vector from P0 to P1, or the zero vector for a
// degenerate segment.
func (l FiniteLine2) Direction() Vector2 {
	return l.P1.Sub(l.P0).Normalize()
}

// Normal returns the unit normal (the direction rotated by 90 degrees).
func (l FiniteLine2) Normal() Vector2 {
	return l.Direction().Ortho()
}

// Length returns the Euclidean distance between the endpoints.
func (l FiniteLine2) Length() float64 {
	return l.P1.Sub(l.P0).Norm()
}

// Midpoint returns the center of the segment.
func (l FiniteLine2) Midpoint() Vector2 {
	return l.P0.Add(l.P1).Mul(0.5)
}

// Reversed returns the segment with swapped endpoints.
func (l FiniteLine2) Reversed() FiniteLine2 {
	return FiniteLine2{P0: l.P1, P1: l.P0}
}

// Infinite returns the infinite line through this segment.
func (l FiniteLine2) Infinite() Line2 {
	return Line2{Point: l.P0, Direction: l.Direction()}
}

// Distance returns the distance between p and the closest point of the
// segment.
func (l FiniteLine2) Distance(p Vector2) float64 {
	d := l.P1.Sub(l.P0)
	sqrLength := d.Dot(d)
	if sqrLength <= eps {
		return p.Sub(l.P0).Norm()
	}
	t := p.Sub(l.P0).Dot(d) / sqrLength
	t = math.Max(0, math.Min(1, t))
	return p.Sub(l.P0.Add(d.Mul(t))).Norm()
}

// Line2 is an infinite line through Point with unit Direction.
type Line2 struct {
	Point     Vector2 `json:"point"`
	Direction Vector2 `json:"direction"`
}

// NewLine2 creates a line through point with the given direction, which is
// normalized.
func NewLine2(point, direction Vector2) Line2 {
	return Line2{Point: point, Direction: direction.Normalize()}
}

// IsValid reports whether the line has a non-zero direction.
func (l Line2) IsValid() bool {
	return l.Direction.Norm() > eps
}

// Normal returns the unit normal of the line.
func (l Line2) Normal() Vector2 {
	return l.Direction.Ortho()
}

// SqrDistance returns the squared distance between p and the line.
func (l Line2) SqrDistance(p Vector2) float64 {
	d := l.Distance(p)
	return d * d
}

// Distance returns the perpendicular distance between p and the line.
func (l Line2) Distance(p Vector2) float64 {
	return math.Abs(p.Sub(l.Point).Dot(l.Normal()))
}

// Project returns the signed position of p along the line direction,
// measured from Point.
func (l Line2) Project(p Vector2) float64 {
	return p.Sub(l.Point).Dot(l.Direction)
}

// At returns the point at signed position t along the line.
func (l Line2) At(t float64) Vector2 {
	return l.Point.Add(l.Direction.Mul(t))
}

// Intersection returns the intersection point of two lines. The boolean is
// false for parallel or invalid lines.
func (l Line2) Intersection(other Line2) (Vector2, bool) {
	denominator := l.Direction.Cross(other.Direction)
	if math.Abs(denominator) <= eps {
		return Vector2{}, false
	}
	t := other.Point.Sub(l.Point).Cross(other.Direction) / denominator
	return l.At(t), true
}

// TriangleSquaredArea returns the squared area of the triangle (a, b, c),
// computed from its side lengths.
func TriangleSquaredArea(a, b, c Vector2) float64 {
	sqrAB := sqrDistance(a, b)
	sqrAC := sqrDistance(a, c)
	sqrBC := sqrDistance(b, c)
	s := sqrAB + sqrBC - sqrAC
	return (4*sqrAB*sqrBC - s*s) * 0.0625
}

// SqrDistance returns the squared Euclidean distance between two points.
func SqrDistance(a, b Vector2) float64 {
	return sqrDistance(a, b)
}

func sqrDistance(a, b Vector2) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}
