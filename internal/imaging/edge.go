package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// GradientField holds the Sobel response of a luminance frame.
//
// All slices are row-major with Width*Height entries. Magnitudes are divided
// by four so that a sharp step between intensities a and b yields |a-b|.
type GradientField struct {
	Width     int
	Height    int
	GX        []float64
	GY        []float64
	Magnitude []float64
}

// Blur smooths frame with a Gaussian of the given radius. A radius of zero or
// less returns frame unchanged.
func Blur(frame *image.Gray, radius float64) *image.Gray {
	if radius <= 0 {
		return frame
	}
	return ToGray(blur.Gaussian(frame, radius))
}

// ComputeGradient applies the 3x3 Sobel operators to frame. Pixels outside
// the frame replicate the nearest border pixel.
func ComputeGradient(frame *image.Gray) *GradientField {
	bounds := frame.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	g := &GradientField{
		Width:     width,
		Height:    height,
		GX:        make([]float64, width*height),
		GY:        make([]float64, width*height),
		Magnitude: make([]float64, width*height),
	}

	pixel := func(x, y int) float64 {
		return float64(At(frame, x, y))
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := (pixel(x+1, y-1) + 2*pixel(x+1, y) + pixel(x+1, y+1)) -
				(pixel(x-1, y-1) + 2*pixel(x-1, y) + pixel(x-1, y+1))
			gy := (pixel(x-1, y+1) + 2*pixel(x, y+1) + pixel(x+1, y+1)) -
				(pixel(x-1, y-1) + 2*pixel(x, y-1) + pixel(x+1, y-1))

			i := y*width + x
			g.GX[i] = gx / 4
			g.GY[i] = gy / 4
			g.Magnitude[i] = math.Hypot(gx, gy) / 4
		}
	}

	return g
}

// Orientation returns the gradient orientation at (x, y) in degrees, folded
// into [0, 180).
func (g *GradientField) Orientation(x, y int) float64 {
	i := y*g.Width + x
	angle := math.Atan2(g.GY[i], g.GX[i]) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	if angle >= 180 {
		angle -= 180
	}
	return angle
}

// ThinEdges returns a row-major mask of edge pixels: pixels whose magnitude
// reaches threshold and is not exceeded by either neighbor along the gradient
// direction. Equal neighbors are both kept, so a step edge between two pixel
// columns marks both columns. Border pixels are never edges.
func (g *GradientField) ThinEdges(threshold float64) []bool {
	edges := make([]bool, g.Width*g.Height)

	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			i := y*g.Width + x
			magnitude := g.Magnitude[i]
			if magnitude < threshold {
				continue
			}

			var dx, dy int
			switch orientation := g.Orientation(x, y); {
			case orientation < 22.5 || orientation >= 157.5:
				dx, dy = 1, 0
			case orientation < 67.5:
				dx, dy = 1, 1
			case orientation < 112.5:
				dx, dy = 0, 1
			default:
				dx, dy = -1, 1
			}

			if magnitude >= g.Magnitude[(y+dy)*g.Width+x+dx] && magnitude >= g.Magnitude[(y-dy)*g.Width+x-dx] {
				edges[i] = true
			}
		}
	}

	return edges
}

// EdgeImage renders an edge mask as a white-on-black grayscale image.
func EdgeImage(edges []bool, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i, edge := range edges {
		if edge {
			img.Pix[i] = 255
		}
	}
	return img
}
