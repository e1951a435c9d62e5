// Package detection turns line segments into corners and rectangles.
//
// The package implements the stages between a line detector and a final,
// pixel-accurate quadrilateral. It is built for scenes where the size and
// aspect ratio of the rectangle are roughly known, such as cards, documents,
// screens or markers in a camera frame.
//
// # Pipeline
//
// DetectAlignedRectangles runs all stages in order:
//
//  1. Line extraction: a LineDetector (HoughLineDetector by default) returns
//     segments from an 8-bit luminance frame
//  2. Merging: collinear fragments are fused, see package hemicube
//  3. Corners: DetermineLShapes pairs segments into L-shapes, which are then
//     filtered by direction and thinned by non-maximum suppression
//  4. Rectangles: DetermineAlignedRectangles picks one corner per quadrant,
//     DetermineShapedRectangles keeps candidates of the requested shape
//  5. Refinement: OptimizeRectangleAlongEdges snaps each edge to the strongest
//     intensity step with RANSAC line fits
//
// Each stage is exported and can be used on its own.
//
// # Shapes
//
// L-shapes, T-shapes and X-shapes are corner, junction and crossing of two
// segments. DetermineShapes classifies junctions between a horizontal and a
// vertical line set, PostAdjustShapes fuses co-located shapes into higher
// order ones. Shapes refer to their source lines by index, and rectangles
// refer to L-shapes by index (IndexedRectangle) until they are resolved into
// corner positions (Rectangle).
//
// # Coordinate System
//
// Coordinates are sub-pixel positions in the frame:
//   - Origin (0, 0) at the center of the top-left pixel
//   - X increases rightward
//   - Y increases downward
//
// Rectangle corners are ordered top-left, bottom-left, bottom-right,
// top-right. Angles are s1.Angle values.
//
// # Failure Handling
//
// Degenerate geometry never produces an error. Parallel lines, corners outside
// the frame or too few edge samples make the affected candidate disappear from
// the result. Only invalid pipeline parameters are reported as errors.
package detection
