package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// createGradientFrame creates a frame where pixel (x, y) has intensity 10*x + y
func createGradientFrame(width, height int) *image.Gray {
	frame := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			frame.Pix[y*frame.Stride+x] = uint8(10*x + y)
		}
	}
	return frame
}

func TestToGray(t *testing.T) {
	img := createPatternImage(10, 10)

	frame := ToGray(img)
	if frame.Bounds() != image.Rect(0, 0, 10, 10) {
		t.Fatalf("bounds: got %v", frame.Bounds())
	}

	tests := []struct {
		name string
		x, y int
		want uint8
	}{
		{"red", 2, 2, 76},
		{"green", 7, 2, 150},
		{"blue", 2, 7, 29},
		{"white", 7, 7, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := At(frame, tt.x, tt.y)
			if diff := int(got) - int(tt.want); diff < -1 || diff > 1 {
				t.Errorf("luminance at (%d,%d): got %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestToGray_GrayInput(t *testing.T) {
	frame := createGradientFrame(4, 4)
	if ToGray(frame) != frame {
		t.Error("a gray frame at the origin should be returned as is")
	}

	sub := frame.SubImage(image.Rect(1, 1, 3, 3))
	shifted := ToGray(sub)
	if shifted.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Fatalf("bounds: got %v, want (0,0)-(2,2)", shifted.Bounds())
	}
	if got := At(shifted, 0, 0); got != 11 {
		t.Errorf("origin of sub image: got %d, want 11", got)
	}
}

func TestBilinear(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(frame.Pix, []uint8{0, 100, 200, 100})

	tests := []struct {
		name   string
		x, y   float64
		want   float64
		wantOK bool
	}{
		{"pixel center", 1, 0, 100, true},
		{"between columns", 0.5, 0, 50, true},
		{"between rows", 0, 0.5, 100, true},
		{"middle", 0.5, 0.5, 100, true},
		{"last pixel", 1, 1, 100, true},
		{"right of frame", 1.01, 0, 0, false},
		{"above frame", 0, -0.1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Bilinear(frame, tt.x, tt.y)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Bilinear(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestBilinear_EmptyFrame(t *testing.T) {
	if _, ok := Bilinear(image.NewGray(image.Rect(0, 0, 0, 0)), 0, 0); ok {
		t.Error("empty frame should not be sampled")
	}
}

func TestAt_Clamps(t *testing.T) {
	frame := createGradientFrame(5, 5)

	tests := []struct {
		x, y int
		want uint8
	}{
		{2, 3, 23},
		{-4, 0, 0},
		{9, 0, 40},
		{0, 9, 4},
		{-1, -1, 0},
	}

	for _, tt := range tests {
		if got := At(frame, tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}
