package hemicube

import (
	"math"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// mergeSearchRadius is the Find radius used by Merge; anything above sqrt(2)
// visits the complete 8-neighborhood.
const mergeSearchRadius = 1.5

const minimalNormalCos = 1e-6

// MergeGreedyBruteForce merges collinear fragments by comparing each input
// line with every line produced so far.
//
// A line is fused into the first output line it is compatible with (see
// compatible); otherwise it starts a new output line. The returned mapping
// holds, for every input line, the index of the output line that absorbed it,
// or -1 for degenerate input lines which are dropped.
func MergeGreedyBruteForce(lines []geometry.FiniteLine2, maxLineDistance, maxLineGap, cosAngle float64) ([]geometry.FiniteLine2, []int) {
	merged := make([]geometry.FiniteLine2, 0, len(lines))
	mapping := make([]int, len(lines))

	for i, line := range lines {
		if !line.IsValid() {
			mapping[i] = -1
			continue
		}

		target := -1
		for j, candidate := range merged {
			if compatible(candidate, line, maxLineDistance, maxLineGap, cosAngle) {
				target = j
				break
			}
		}

		if target < 0 {
			mapping[i] = len(merged)
			merged = append(merged, line)
			continue
		}

		merged[target] = Fuse(merged[target], line)
		mapping[i] = target
	}

	return merged, mapping
}

// Merge adds lines to the cube, fusing each one into the best matching
// stored line when there is a compatible one.
//
// Candidates come from Find with a radius of 1.5 bins. Among compatible
// candidates the one with the lowest matchScore wins. The result maps every
// input line to the index of the stored line holding it, or -1 for degenerate
// input lines. The outcome depends on the order of lines and on everything
// merged before.
func (h *HemiCube) Merge(lines []geometry.FiniteLine2, maxLineDistance, maxLineGap, cosAngle float64) []int {
	mapping := make([]int, len(lines))

	for i, line := range lines {
		if !line.IsValid() {
			mapping[i] = -1
			continue
		}

		best := -1
		bestScore := math.MaxFloat64

		for _, index := range h.Find(line, mergeSearchRadius) {
			candidate := h.lines[index]
			if !compatible(candidate, line, maxLineDistance, maxLineGap, cosAngle) {
				continue
			}
			if score := matchScore(candidate, line); score < bestScore {
				best = index
				bestScore = score
			}
		}

		if best < 0 {
			mapping[i] = h.Insert(line)
			continue
		}

		h.UpdateLine(best, Fuse(h.lines[best], line))
		mapping[i] = best
	}

	return mapping
}

// compatible reports whether line can be fused into candidate: the
// directions differ by less than acos(cosAngle), both endpoints of line are
// within maxLineDistance of the infinite candidate line, and the gap between
// both segments is at most maxLineGap.
func compatible(candidate, line geometry.FiniteLine2, maxLineDistance, maxLineGap, cosAngle float64) bool {
	if math.Abs(candidate.Direction().Dot(line.Direction())) < cosAngle {
		return false
	}

	infinite := candidate.Infinite()
	if infinite.Distance(line.P0) > maxLineDistance || infinite.Distance(line.P1) > maxLineDistance {
		return false
	}

	return endpointGap(candidate, line) <= maxLineGap
}

// endpointGap returns zero when the projections of both segments onto the
// first one overlap, and the smallest endpoint distance otherwise.
func endpointGap(a, b geometry.FiniteLine2) float64 {
	infinite := a.Infinite()
	length := a.Length()

	t0 := infinite.Project(b.P0)
	t1 := infinite.Project(b.P1)
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	if t1 >= 0 && t0 <= length {
		return 0
	}

	gap := math.MaxFloat64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			gap = math.Min(gap, a.Point(i).Sub(b.Point(j)).Norm())
		}
	}
	return gap
}

// matchScore rates a compatible pair, lower is better: the farthest endpoint
// distance to the other infinite line, in both directions, divided by the
// cosine between both normals.
func matchScore(candidate, line geometry.FiniteLine2) float64 {
	candidateLine := candidate.Infinite()
	lineLine := line.Infinite()

	farthest := math.Max(
		math.Max(candidateLine.Distance(line.P0), candidateLine.Distance(line.P1)),
		math.Max(lineLine.Distance(candidate.P0), lineLine.Distance(candidate.P1)),
	)

	normalCos := math.Abs(candidate.Normal().Dot(line.Normal()))
	return farthest / math.Max(normalCos, minimalNormalCos)
}
