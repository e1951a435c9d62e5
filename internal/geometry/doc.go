// Package geometry provides the 2D primitives shared by the line merger, the
// shape assembler and the edge refiner.
//
// Points and directions are r2.Point values from github.com/golang/geo. The
// coordinate system is the image convention: X grows to the right and Y grows
// downward, so the perpendicular returned by Ortho() turns a direction by 90
// degrees clockwise on screen.
//
// # Lines
//
// FiniteLine2 is a segment between two endpoints and Line2 an infinite line
// through a point with a unit direction. Both are immutable values.
//
// # Fitting
//
// FitLineLeastSquares performs a total least-squares fit using the eigen
// decomposition of the 2x2 scatter matrix (gonum/mat). RANSACLine wraps it
// with random two-point hypotheses; every call uses its own *rand.Rand.
//
// # Spatial Bins
//
// DistributionArray buckets indices on a regular grid so that neighbor
// lookups only have to visit a 3x3 block of bins.
package geometry
