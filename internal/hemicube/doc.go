// Package hemicube implements a spatial hash for 2D line segments and the
// line mergers built on top of it.
//
// # Indexing
//
// A segment is lifted into 3D by treating the image as the image plane of a
// virtual pinhole camera: each endpoint becomes the ray (x-cx, y-cy, f). The
// cross product of both rays is the homogeneous equation of the infinite line.
// The dominant coordinate of that vector selects one of three cube faces, the
// remaining two coordinates divided by the dominant one lie in [-1, 1] and are
// quantized into bins. Reversing a segment flips the sign of the vector, which
// the division cancels, so three faces are enough.
//
// Lines that lie on the same infinite line therefore share a bucket, and
// nearly collinear lines land in neighboring buckets of the same face.
//
// # Merging
//
// MergeGreedyBruteForce is the quadratic reference merger: every input line is
// fused into the first compatible output line. HemiCube.Merge looks up
// candidates through the index instead and fuses into the best scoring one.
// Merge is order dependent and keeps its state between calls; the caller owns
// the HemiCube and resets it with Clear.
package hemicube
