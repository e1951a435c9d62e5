// Package imaging provides the pixel side of the quad detector: image loading
// and caching, 8-bit luminance frames, sampling, gradients, and rendering of
// detection results.
//
// All operations use a coordinate system where (0,0) is at the top-left
// corner, X increases rightward, and Y increases downward.
//
// # Frames
//
// The detectors work on *image.Gray frames whose bounds start at the origin.
// ToGray converts any decoded image with ITU-R BT.601 weights; ImageCache.Frame
// caches that conversion per file.
//
// Pixel (i, j) is sampled exactly at integer coordinates. Bilinear
// interpolates between pixel centers and rejects positions outside
// [0, width-1] x [0, height-1]; At clamps to the nearest pixel.
//
// # Gradients
//
// ComputeGradient applies 3x3 Sobel operators with replicated borders.
// ThinEdges keeps gradient maxima along the gradient direction. Together they
// feed the Hough line extractor of the detection package.
//
// # Rendering
//
//   - Overlay draws quads and segments on a copy of the image and returns a
//     base64 PNG; each quad gets its own palette color.
//   - CropQuad cuts out the bounding box of a quad, optionally rescaled.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and do not modify their inputs.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O and decoding errors during image loading
//   - Crop regions outside the image
//   - Encoding errors during PNG output
package imaging
