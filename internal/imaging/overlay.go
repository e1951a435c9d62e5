package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/quad-detect-mcp/internal/geometry"
)

// DefaultLineColor is used for segments when no valid color is given.
const DefaultLineColor = "#FFD700"

const cornerMarkerRadius = 2

// OverlayResult contains the image with detections drawn on top
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Quads       int    `json:"quads"`
	Lines       int    `json:"lines"`
}

// Overlay draws quads and line segments onto a copy of img and returns it as
// a base64 encoded PNG.
//
// Every quad gets its own color from a palette of distinct colors, with a
// small square marking each corner. Segments are drawn in lineColorHex
// ("#RRGGBB"); an invalid color falls back to DefaultLineColor.
func Overlay(img image.Image, quads [][4]geometry.Vector2, lines []geometry.FiniteLine2, lineColorHex string) (*OverlayResult, error) {
	result := RenderOverlay(img, quads, lines, lineColorHex)

	encoded, err := encodePNG(result)
	if err != nil {
		return nil, err
	}

	return &OverlayResult{
		Width:       result.Bounds().Dx(),
		Height:      result.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
		Quads:       len(quads),
		Lines:       len(lines),
	}, nil
}

// RenderOverlay is Overlay without the encoding step. The returned image
// starts at (0, 0); coordinates are relative to the bounds of img.
func RenderOverlay(img image.Image, quads [][4]geometry.Vector2, lines []geometry.FiniteLine2, lineColorHex string) *image.NRGBA {
	result := imaging.Clone(img)

	lineColor, err := colorful.Hex(lineColorHex)
	if err != nil {
		lineColor, _ = colorful.Hex(DefaultLineColor)
	}
	for _, line := range lines {
		drawSegment(result, line.P0, line.P1, lineColor)
	}

	palette := colorful.FastHappyPalette(len(quads))
	for i, quad := range quads {
		c := palette[i]
		for j := range quad {
			drawSegment(result, quad[j], quad[(j+1)%4], c)
		}
		for _, corner := range quad {
			drawMarker(result, corner, c)
		}
	}

	return result
}

// ParseColor parses "#RRGGBB" into an opaque color.
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c.Clamped(), nil
}

// drawSegment rasterizes the segment a-b with one sample per pixel step
func drawSegment(dst *image.NRGBA, a, b geometry.Vector2, c color.Color) {
	d := b.Sub(a)
	steps := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	if steps == 0 {
		dst.Set(int(math.Round(a.X)), int(math.Round(a.Y)), c)
		return
	}
	for i := 0; i <= steps; i++ {
		p := a.Add(d.Mul(float64(i) / float64(steps)))
		dst.Set(int(math.Round(p.X)), int(math.Round(p.Y)), c)
	}
}

func drawMarker(dst *image.NRGBA, p geometry.Vector2, c color.Color) {
	cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
	for dy := -cornerMarkerRadius; dy <= cornerMarkerRadius; dy++ {
		for dx := -cornerMarkerRadius; dx <= cornerMarkerRadius; dx++ {
			dst.Set(cx+dx, cy+dy, c)
		}
	}
}

// encodePNG encodes img as base64 PNG
func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
