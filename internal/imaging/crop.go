package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// CropResult contains the cropped image data
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts the region [x1, x2) x [y1, y2) from an image and optionally
// scales it with a Lanczos filter. A scale of 1 or less than or equal to zero
// keeps the original size.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := encodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		X:           x1,
		Y:           y1,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// QuadBounds returns the pixel region covering the corners of a quad grown by
// margin pixels and clipped to bounds. The boolean is false when nothing of
// the quad lies inside bounds.
func QuadBounds(quad [4]geometry.Vector2, margin int, bounds image.Rectangle) (image.Rectangle, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range quad {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	region := image.Rect(
		int(math.Floor(minX))-margin, int(math.Floor(minY))-margin,
		int(math.Ceil(maxX))+1+margin, int(math.Ceil(maxY))+1+margin,
	).Intersect(bounds)

	return region, !region.Empty()
}

// CropQuad crops the axis aligned bounding box of a quad, grown by margin
// pixels. Corners are relative to the image bounds.
func CropQuad(img image.Image, quad [4]geometry.Vector2, margin int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	shifted := quad
	for i := range shifted {
		shifted[i] = shifted[i].Add(geometry.Vector2{X: float64(bounds.Min.X), Y: float64(bounds.Min.Y)})
	}

	region, ok := QuadBounds(shifted, margin, bounds)
	if !ok {
		return nil, fmt.Errorf("quad %v lies outside the image", quad)
	}

	return Crop(img, region.Min.X, region.Min.Y, region.Max.X, region.Max.Y, scale)
}
