package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
)

// ToGray converts img into an 8-bit luminance frame using ITU-R BT.601
// weights (0.299*R + 0.587*G + 0.114*B). The returned frame starts at (0, 0).
//
// A *image.Gray whose bounds already start at the origin is returned as is.
func ToGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok && gray.Bounds().Min == (image.Point{}) {
		return gray
	}

	luminance := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	bounds := luminance.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	frame := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := luminance.Pix[y*luminance.Stride:]
		dst := frame.Pix[y*frame.Stride:]
		for x := 0; x < width; x++ {
			dst[x] = src[x*4]
		}
	}
	return frame
}

// Bilinear returns the intensity at (x, y), interpolated between the four
// surrounding pixels. Pixel (i, j) is sampled exactly at integer coordinates,
// so the valid area is [0, width-1] x [0, height-1] relative to the frame
// bounds. The boolean is false outside of it.
func Bilinear(frame *image.Gray, x, y float64) (float64, bool) {
	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width == 0 || height == 0 || x < 0 || y < 0 || x > float64(width-1) || y > float64(height-1) {
		return 0, false
	}

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := min(x0+1, width-1)
	y1 := min(y0+1, height-1)

	fx := x - float64(x0)
	fy := y - float64(y0)

	row0 := frame.Pix[frame.PixOffset(bounds.Min.X, bounds.Min.Y+y0):]
	row1 := frame.Pix[frame.PixOffset(bounds.Min.X, bounds.Min.Y+y1):]

	top := float64(row0[x0])*(1-fx) + float64(row0[x1])*fx
	bottom := float64(row1[x0])*(1-fx) + float64(row1[x1])*fx

	return top*(1-fy) + bottom*fy, true
}

// At returns the intensity of pixel (x, y) relative to the frame bounds,
// clamping the coordinates into the frame.
func At(frame *image.Gray, x, y int) uint8 {
	bounds := frame.Bounds()
	x = max(0, min(x, bounds.Dx()-1))
	y = max(0, min(y, bounds.Dy()-1))
	return frame.Pix[frame.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)]
}
