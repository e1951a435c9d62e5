package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
)

// LineDetector extracts line segments from a luminance frame.
type LineDetector interface {
	DetectLines(frame *image.Gray) ([]geometry.FiniteLine2, error)
}

// Defaults for HoughLineDetector.
const (
	DefaultEdgeThreshold = 20.0
	DefaultMinLineLength = 20
	DefaultMaxLineGap    = 3
)

const (
	houghAngles = 180

	// houghVoteSpread is the number of degrees around the gradient
	// orientation an edge pixel votes for.
	houghVoteSpread = 2

	// houghPeakRadius is the half size of the window a peak must dominate.
	houghPeakRadius = 2

	houghPointDistance    = 2.0
	houghOrientationSlack = 10.0
)

// HoughLineDetector finds straight segments with a gradient gated Hough
// transform.
//
// Zero fields fall back to the package defaults.
type HoughLineDetector struct {
	// Threshold is the minimal Sobel magnitude of an edge pixel.
	Threshold float64

	// MinLength is the minimal segment length in pixels.
	MinLength int

	// MaxGap is the longest run of missing edge pixels a segment may bridge.
	MaxGap float64

	// BlurRadius smooths the frame before the gradient is computed; zero
	// disables smoothing.
	BlurRadius float64
}

type houghPeak struct {
	rho   int
	theta int
	votes int
}

type edgePoint struct {
	x, y        int
	orientation float64
}

// DetectLines returns the segments found in frame.
//
// # Algorithm
//
//  1. Optional Gaussian smoothing.
//  2. Sobel gradient and non-maximum suppression along the gradient.
//  3. Every edge pixel votes in a (rho, theta) accumulator, but only for the
//     angles within 2 degrees of its own gradient orientation.
//  4. Accumulator cells with at least MinLength/2 votes that dominate their
//     5x5 neighborhood become peaks, strongest first.
//  5. For each peak the unused edge pixels within 2 pixels of the peak line
//     and with a matching orientation are collected and consumed.
//  6. The pixels are ordered along the line and split where the gap exceeds
//     MaxGap. Every run spanning at least MinLength pixels is refitted by
//     least squares and clipped to its first and last pixel.
//
// The error is currently always nil.
func (d HoughLineDetector) DetectLines(frame *image.Gray) ([]geometry.FiniteLine2, error) {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultEdgeThreshold
	}
	minLength := d.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLineLength
	}
	maxGap := d.MaxGap
	if maxGap <= 0 {
		maxGap = DefaultMaxLineGap
	}

	gradient := imaging.ComputeGradient(imaging.Blur(frame, d.BlurRadius))
	edges := gradient.ThinEdges(threshold)

	width, height := gradient.Width, gradient.Height
	if width < 3 || height < 3 {
		return nil, nil
	}

	var points []edgePoint
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y*width+x] {
				points = append(points, edgePoint{x: x, y: y, orientation: gradient.Orientation(x, y)})
			}
		}
	}

	maxRho := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	rhoBins := 2*maxRho + 1

	cosTable := make([]float64, houghAngles)
	sinTable := make([]float64, houghAngles)
	for theta := range cosTable {
		angle := float64(theta) * math.Pi / 180
		cosTable[theta] = math.Cos(angle)
		sinTable[theta] = math.Sin(angle)
	}

	accumulator := make([]int, rhoBins*houghAngles)
	cell := func(rho, theta int) int {
		return (rho+maxRho)*houghAngles + theta
	}

	for _, p := range points {
		center := int(math.Round(p.orientation))
		for offset := -houghVoteSpread; offset <= houghVoteSpread; offset++ {
			theta := (center + offset + houghAngles) % houghAngles
			rho := int(math.Round(float64(p.x)*cosTable[theta] + float64(p.y)*sinTable[theta]))
			accumulator[cell(rho, theta)]++
		}
	}

	minVotes := max(1, minLength/2)

	var peaks []houghPeak
	for rho := -maxRho; rho <= maxRho; rho++ {
		for theta := 0; theta < houghAngles; theta++ {
			votes := accumulator[cell(rho, theta)]
			if votes < minVotes {
				continue
			}
			if isHoughPeak(accumulator, cell, maxRho, rho, theta, votes) {
				peaks = append(peaks, houghPeak{rho: rho, theta: theta, votes: votes})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})

	used := make([]bool, len(points))
	var lines []geometry.FiniteLine2

	for _, peak := range peaks {
		cosTheta, sinTheta := cosTable[peak.theta], sinTable[peak.theta]
		rho := float64(peak.rho)

		var members []int
		for i, p := range points {
			if used[i] {
				continue
			}
			if math.Abs(float64(p.x)*cosTheta+float64(p.y)*sinTheta-rho) >= houghPointDistance {
				continue
			}
			if orientationDifference(p.orientation, float64(peak.theta)) > houghOrientationSlack {
				continue
			}
			members = append(members, i)
		}
		if len(members) < minVotes {
			continue
		}
		for _, i := range members {
			used[i] = true
		}

		// position along the line direction (-sin, cos)
		position := func(i int) float64 {
			return -float64(points[i].x)*sinTheta + float64(points[i].y)*cosTheta
		}
		sort.SliceStable(members, func(a, b int) bool {
			return position(members[a]) < position(members[b])
		})

		start := 0
		for end := 1; end <= len(members); end++ {
			if end < len(members) && position(members[end])-position(members[end-1]) <= maxGap {
				continue
			}
			if line, ok := fitRun(points, members[start:end], position, float64(minLength)); ok {
				lines = append(lines, line)
			}
			start = end
		}
	}

	return lines, nil
}

// isHoughPeak reports whether no cell within houghPeakRadius has more votes.
// Theta wraps around, which mirrors rho.
func isHoughPeak(accumulator []int, cell func(rho, theta int) int, maxRho, rho, theta, votes int) bool {
	for dt := -houghPeakRadius; dt <= houghPeakRadius; dt++ {
		t := theta + dt
		mirrored := false
		if t < 0 {
			t += houghAngles
			mirrored = true
		} else if t >= houghAngles {
			t -= houghAngles
			mirrored = true
		}

		for dr := -houghPeakRadius; dr <= houghPeakRadius; dr++ {
			if dt == 0 && dr == 0 {
				continue
			}
			r := rho + dr
			if mirrored {
				r = -r
			}
			if r < -maxRho || r > maxRho {
				continue
			}
			if accumulator[cell(r, t)] > votes {
				return false
			}
		}
	}
	return true
}

// fitRun turns a run of edge pixels into a segment. The boolean is false if
// the run is shorter than minLength or the fit fails.
func fitRun(points []edgePoint, run []int, position func(int) float64, minLength float64) (geometry.FiniteLine2, bool) {
	if len(run) < 2 || position(run[len(run)-1])-position(run[0]) < minLength {
		return geometry.FiniteLine2{}, false
	}

	samples := make([]geometry.Vector2, len(run))
	for i, index := range run {
		samples[i] = geometry.Vector2{X: float64(points[index].x), Y: float64(points[index].y)}
	}

	fitted, ok := geometry.FitLineLeastSquares(samples)
	if !ok {
		return geometry.FiniteLine2{}, false
	}

	first := fitted.At(fitted.Project(samples[0]))
	last := fitted.At(fitted.Project(samples[len(samples)-1]))

	return geometry.FiniteLine2{P0: first, P1: last}, true
}

// orientationDifference returns the angle in degrees between two
// orientations in [0, 180), taking the wrap-around into account.
func orientationDifference(a, b float64) float64 {
	diff := math.Mod(math.Abs(a-b), 180)
	return math.Min(diff, 180-diff)
}
