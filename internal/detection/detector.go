package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
	"github.com/ironsheep/quad-detect-mcp/internal/hemicube"
)

// Defaults of AlignedParams.
const (
	DefaultAlignmentAngle          = 35 * s1.Degree
	DefaultPipelineAspectTolerance = 0.1
)

// Pipeline constants of DetectAlignedRectangles.
const (
	pipelineBorderDistance      = 5.0
	pipelineMergeDistance       = 5.0
	pipelineMergeAngle          = 15 * s1.Degree
	pipelineLShapeAngle         = 25 * s1.Degree
	pipelineNMSAngle            = 25 * s1.Degree
	pipelineMinCornerDistance   = 10.0
	pipelineConnectedAngle      = 15 * s1.Degree
	pipelineOrthogonalTolerance = 5 * s1.Degree
	pipelineHemiCubeBins        = 50
	pipelineMinAspectRatio      = 0.01
	pipelineMaxAspectRatio      = 100.0
)

// AlignedParams configures DetectAlignedRectangles.
type AlignedParams struct {
	// RectangleWidth is the expected width of the rectangle in pixels.
	RectangleWidth float64

	// AspectRatio is width divided by height.
	AspectRatio float64

	// AspectRatioTolerance is the relative aspect ratio deviation accepted,
	// in [0, 1).
	AspectRatioTolerance float64

	// AlignmentAngle is the accepted rotation of the rectangle against the
	// image axes, in [0, 90] degrees.
	AlignmentAngle s1.Angle

	// SortByArea orders the result by decreasing area.
	SortByArea bool

	// UseHemiCube merges line fragments through a HemiCube instead of the
	// brute-force merger.
	UseHemiCube bool

	// Logf receives per-stage counts when set.
	Logf func(format string, args ...interface{})
}

// DefaultAlignedParams returns parameters for a rectangle of the given width
// and aspect ratio.
func DefaultAlignedParams(rectangleWidth, aspectRatio float64) AlignedParams {
	return AlignedParams{
		RectangleWidth:       rectangleWidth,
		AspectRatio:          aspectRatio,
		AspectRatioTolerance: DefaultPipelineAspectTolerance,
		AlignmentAngle:       DefaultAlignmentAngle,
	}
}

// Validate checks the parameters against a frame of the given size.
func (p AlignedParams) Validate(frameWidth, frameHeight int) error {
	if p.RectangleWidth < 1 || p.RectangleWidth >= float64(frameWidth) {
		return fmt.Errorf("invalid rectangle width %.1f: must be in [1, %d)", p.RectangleWidth, frameWidth)
	}
	if p.AspectRatio < pipelineMinAspectRatio || p.AspectRatio > pipelineMaxAspectRatio {
		return fmt.Errorf("invalid aspect ratio %f: must be in [%.2f, %.0f]", p.AspectRatio, pipelineMinAspectRatio, pipelineMaxAspectRatio)
	}
	if height := p.RectangleWidth / p.AspectRatio; height < 1 || height >= float64(frameHeight) {
		return fmt.Errorf("invalid rectangle height %.1f: must be in [1, %d)", height, frameHeight)
	}
	if p.AspectRatioTolerance < 0 || p.AspectRatioTolerance >= 1 {
		return fmt.Errorf("invalid aspect ratio tolerance %f: must be in [0, 1)", p.AspectRatioTolerance)
	}
	if p.AlignmentAngle < 0 || p.AlignmentAngle > 90*s1.Degree {
		return fmt.Errorf("invalid alignment angle %.1f degrees: must be in [0, 90]", p.AlignmentAngle.Degrees())
	}
	return nil
}

func (p AlignedParams) logf(format string, args ...interface{}) {
	if p.Logf != nil {
		p.Logf(format, args...)
	}
}

// MergeMode selects how line fragments are merged.
type MergeMode string

// Merge modes understood by MergeLines.
const (
	MergeNone     MergeMode = "none"
	MergeGreedy   MergeMode = "greedy"
	MergeHemiCube MergeMode = "hemicube"
)

// MergeLines merges fragments with the settings of the aligned pipeline: a
// line distance of 5 pixels, an angle of 15 degrees and the given maximal
// endpoint gap. An empty mode means MergeGreedy.
func MergeLines(lines []geometry.FiniteLine2, mode MergeMode, width, height int, maxGap float64) ([]geometry.FiniteLine2, error) {
	cosMerge := math.Cos(pipelineMergeAngle.Radians())

	switch mode {
	case MergeNone:
		return lines, nil
	case MergeGreedy, "":
		merged, _ := hemicube.MergeGreedyBruteForce(lines, pipelineMergeDistance, maxGap, cosMerge)
		return merged, nil
	case MergeHemiCube:
		cube, err := hemicube.New(pipelineHemiCubeBins, width, height, float64(max(width, height)))
		if err != nil {
			return nil, fmt.Errorf("failed to create hemicube: %w", err)
		}
		cube.Merge(lines, pipelineMergeDistance, maxGap, cosMerge)
		return cube.Lines(), nil
	default:
		return nil, fmt.Errorf("unknown merge mode %q: must be none, greedy or hemicube", mode)
	}
}

// DetectAlignedRectangles finds rectangles of a known size and aspect ratio
// that are roughly aligned with the image axes.
//
// # Algorithm
//
//  1. Line extraction with detector, using a minimal length of about a sixth
//     of the rectangle width when detector is a HoughLineDetector without an
//     explicit MinLength. Lines within 5 pixels of the border are dropped.
//  2. Fragment merging (brute force or HemiCube), followed by another border
//     check.
//  3. L-shapes with a corner distance of half the rectangle width, filtered
//     to the diagonal directions and thinned by non-maximum suppression.
//  4. Aligned rectangles, then the shape filter with widths between half and
//     twice the expected width.
//  5. Every candidate is refined against the frame; candidates whose
//     refinement fails are dropped.
//
// Invalid parameters return an error. An image without a matching rectangle
// returns an empty result.
func DetectAlignedRectangles(frame *image.Gray, detector LineDetector, params AlignedParams) ([]Rectangle, error) {
	lShapes, err := detectAlignedLShapes(frame, detector, params)
	if err != nil {
		return nil, err
	}

	indexed := DetermineAlignedRectangles(lShapes, diagonal, pipelineMinCornerDistance, params.AlignmentAngle, pipelineConnectedAngle)
	indexed = DetermineShapedRectangles(lShapes, indexed, params.AspectRatio,
		0.5*params.RectangleWidth, 2*params.RectangleWidth, params.AspectRatioTolerance, pipelineOrthogonalTolerance)
	params.logf("candidates: %d", len(indexed))

	rectangles := make([]Rectangle, 0, len(indexed))
	for _, candidate := range indexed {
		refined, ok := OptimizeRectangleAlongEdges(frame, candidate.Corners(lShapes), DefaultPerpendicularSampleDistance)
		if !ok {
			continue
		}
		rectangles = append(rectangles, refined)
	}
	params.logf("rectangles: %d", len(rectangles))

	if params.SortByArea {
		SortRectanglesByArea(rectangles)
	}

	return rectangles, nil
}

// GuessAlignedRectangles runs the line and corner stages of
// DetectAlignedRectangles but builds the rectangles from the two upper
// corners alone, for scenes where the lower edge is occluded or cut off.
// The candidates are not refined. At most maxCandidates rectangles are
// returned; zero or less selects the default of 20.
func GuessAlignedRectangles(frame *image.Gray, detector LineDetector, params AlignedParams, maxCandidates int) ([]Rectangle, error) {
	lShapes, err := detectAlignedLShapes(frame, detector, params)
	if err != nil {
		return nil, err
	}

	guess := DefaultGuessParams(params.AspectRatio, frame.Bounds().Dy())
	guess.CornerAngle = params.AlignmentAngle
	guess.ConnectedAngle = pipelineConnectedAngle
	guess.MinWidth = 0.5 * params.RectangleWidth
	guess.MaxWidth = 2 * params.RectangleWidth
	if maxCandidates > 0 {
		guess.MaxCandidates = maxCandidates
	}

	rectangles := GuessShapedRectanglesFromUpperCorners(lShapes, guess)
	params.logf("candidates: %d", len(rectangles))

	if params.SortByArea {
		SortRectanglesByArea(rectangles)
	}

	return rectangles, nil
}

var diagonal = geometry.Vector2{X: 1, Y: 1}.Normalize()

// detectAlignedLShapes validates params and runs the stages up to the L-shape
// non-maximum suppression.
func detectAlignedLShapes(frame *image.Gray, detector LineDetector, params AlignedParams) ([]LShape, error) {
	width := frame.Bounds().Dx()
	height := frame.Bounds().Dy()

	if err := params.Validate(width, height); err != nil {
		return nil, err
	}

	if hough, ok := detector.(HoughLineDetector); ok && hough.MinLength <= 0 {
		hough.MinLength = (int(params.RectangleWidth) + 3) / 6
		detector = hough
	}

	lines, err := detector.DetectLines(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to detect lines: %w", err)
	}
	lines = RemoveLinesTooCloseToBorder(lines, width, height, pipelineBorderDistance)
	params.logf("lines: %d", len(lines))

	mode := MergeGreedy
	if params.UseHemiCube {
		mode = MergeHemiCube
	}
	lines, err = MergeLines(lines, mode, width, height, float64((int(params.RectangleWidth)+1)/2))
	if err != nil {
		return nil, err
	}
	lines = RemoveLinesTooCloseToBorder(lines, width, height, pipelineBorderDistance)
	params.logf("merged lines: %d", len(lines))

	cornerDistance := float64((int(params.RectangleWidth) + 1) / 2)

	lShapes := DetermineLShapes(lines, width, height, cornerDistance, pipelineLShapeAngle)
	lShapes = FilterLShapesBasedOnDirection(lShapes, diagonal, params.AlignmentAngle, true)
	lShapes = NonMaximumSuppressionLShapes(lShapes, width, height, 0.5*cornerDistance, pipelineNMSAngle)
	params.logf("l-shapes: %d", len(lShapes))

	return lShapes, nil
}
