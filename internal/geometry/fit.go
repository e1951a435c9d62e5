package geometry

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitLineLeastSquares fits an infinite line to points by minimizing the sum of
// squared perpendicular distances.
//
// The line passes through the centroid; its direction is the eigenvector of
// the largest eigenvalue of the point covariance. The boolean is false for
// fewer than two points or when all points coincide.
func FitLineLeastSquares(points []Vector2) (Line2, bool) {
	if len(points) < 2 {
		return Line2{}, false
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
		ys[i] = p.Y
	}

	centroid := Vector2{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil)}

	sxx := stat.Variance(xs, nil)
	syy := stat.Variance(ys, nil)
	sxy := stat.Covariance(xs, ys, nil)

	scatter := mat.NewSymDense(2, []float64{sxx, sxy, sxy, syy})

	var eig mat.EigenSym
	if !eig.Factorize(scatter, true) {
		return Line2{}, false
	}

	// ascending order, the last value belongs to the principal direction
	values := eig.Values(nil)
	if values[1] <= eps {
		return Line2{}, false
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	direction := Vector2{X: vectors.At(0, 1), Y: vectors.At(1, 1)}.Normalize()
	if direction.Norm() <= eps {
		return Line2{}, false
	}

	return Line2{Point: centroid, Direction: direction}, true
}

// RANSACLine robustly fits a line to points.
//
// Each iteration draws two distinct points, builds the line through them and
// counts the points within maxSqrError (squared distance). The hypothesis with
// the most inliers wins; ties go to the smaller summed error. With refine set,
// the winning inliers are refitted by FitLineLeastSquares.
//
// Returns the line, the indices of all points within maxSqrError of the final
// line, and false if fewer than two points are given, no hypothesis was
// valid, the refinement failed, or fewer than two points support the result.
func RANSACLine(points []Vector2, rng *rand.Rand, refine bool, iterations int, maxSqrError float64) (Line2, []int, bool) {
	n := len(points)
	if n < 2 || iterations <= 0 {
		return Line2{}, nil, false
	}

	var (
		bestIndices []int
		bestLine    Line2
		bestError   = math.MaxFloat64
		found       bool
	)

	localIndices := make([]int, 0, n)

	for i := 0; i < iterations; i++ {
		index0 := rng.Intn(n)
		index1 := rng.Intn(n - 1)
		if index1 >= index0 {
			index1++
		}

		direction := points[index1].Sub(points[index0])
		if direction.Norm() <= eps {
			continue
		}

		candidate := NewLine2(points[index0], direction)

		localIndices = localIndices[:0]
		localError := 0.0

		for j, p := range points {
			sqrError := candidate.SqrDistance(p)
			if sqrError <= maxSqrError {
				localIndices = append(localIndices, j)
				localError += sqrError
			}
		}

		if len(localIndices) > len(bestIndices) || (len(localIndices) == len(bestIndices) && localError < bestError) {
			bestIndices = append(bestIndices[:0], localIndices...)
			bestError = localError
			bestLine = candidate
			found = true
		}
	}

	if !found || len(bestIndices) == 0 {
		return Line2{}, nil, false
	}

	line := bestLine

	if refine {
		inliers := make([]Vector2, len(bestIndices))
		for i, index := range bestIndices {
			inliers[i] = points[index]
		}

		refined, ok := FitLineLeastSquares(inliers)
		if !ok {
			return Line2{}, nil, false
		}
		line = refined
	}

	used := make([]int, 0, len(bestIndices))
	for j, p := range points {
		if line.SqrDistance(p) <= maxSqrError {
			used = append(used, j)
		}
	}

	if len(used) < 2 {
		return Line2{}, nil, false
	}

	return line, used, true
}
