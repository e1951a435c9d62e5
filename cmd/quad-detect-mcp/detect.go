package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/quad-detect-mcp/internal/config"
	"github.com/ironsheep/quad-detect-mcp/internal/detection"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
	"github.com/ironsheep/quad-detect-mcp/internal/server"
)

// runDetect runs the detection pipeline on a single image and writes the
// rectangles as JSON to out.
func runDetect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	imagePath := fs.String("image", "", "Path to the image file (required)")
	width := fs.Float64("width", 0, "Expected rectangle width in pixels (required)")
	aspect := fs.Float64("aspect", 0, "Expected width divided by height (required)")
	configPath := fs.String("config", "", "Path to a JSON tuning file")
	overlayPath := fs.String("overlay", "", "Write a PNG with the detected rectangles to this path")
	debug := fs.Bool("debug", false, "Log per-stage counts to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *imagePath == "" {
		return errors.New("-image is required")
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(*configPath); err != nil {
			return fmt.Errorf("failed to load tuning config: %w", err)
		}
	}

	img, err := imgio.Open(*imagePath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	params := detection.DefaultAlignedParams(*width, *aspect)
	tuning.ApplyTo(&params)
	if *debug {
		params.Logf = log.Printf
	}

	rectangles, err := detection.DetectAlignedRectangles(imaging.ToGray(img), tuning.LineDetector(), params)
	if err != nil {
		return err
	}

	if *overlayPath != "" {
		rendered := imaging.RenderOverlay(img, server.Quads(rectangles), nil, tuning.GetOverlayColor())
		if err := imgio.Save(*overlayPath, rendered, imgio.PNGEncoder()); err != nil {
			return fmt.Errorf("failed to save overlay: %w", err)
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(detection.NewRectanglesResult(rectangles))
}
