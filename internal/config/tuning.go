// Package config loads optional tuning files for the quad detector.
//
// A tuning file is a flat JSON object. Every field is optional; the Get*
// methods fall back to the detector defaults for fields that are not set, so
// partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/detection"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds the tuning parameters of the detection pipeline.
type TuningConfig struct {
	// Rectangle filter params
	AspectRatioTolerance *float64 `json:"aspect_ratio_tolerance,omitempty"`
	AlignmentDegrees     *float64 `json:"alignment_degrees,omitempty"`
	SortByArea           *bool    `json:"sort_by_area,omitempty"`
	UseHemiCube          *bool    `json:"use_hemicube,omitempty"`

	// Line extraction params
	EdgeThreshold *float64 `json:"edge_threshold,omitempty"`
	MinLineLength *int     `json:"min_line_length,omitempty"` // 0 derives it from the rectangle width
	MaxLineGap    *float64 `json:"max_line_gap,omitempty"`
	BlurRadius    *float64 `json:"blur_radius,omitempty"`

	// Refinement params
	SampleDistance *int `json:"sample_distance,omitempty"`

	// Rendering params
	OverlayColor *string `json:"overlay_color,omitempty"` // "#RRGGBB"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// default value.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		AspectRatioTolerance: ptrFloat64(detection.DefaultPipelineAspectTolerance),
		AlignmentDegrees:     ptrFloat64(detection.DefaultAlignmentAngle.Degrees()),
		SortByArea:           ptrBool(true),
		UseHemiCube:          ptrBool(false),
		EdgeThreshold:        ptrFloat64(detection.DefaultEdgeThreshold),
		MinLineLength:        ptrInt(0),
		MaxLineGap:           ptrFloat64(detection.DefaultMaxLineGap),
		BlurRadius:           ptrFloat64(0),
		SampleDistance:       ptrInt(detection.DefaultPerpendicularSampleDistance),
		OverlayColor:         ptrString(imaging.DefaultLineColor),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.AspectRatioTolerance != nil {
		if *c.AspectRatioTolerance < 0 || *c.AspectRatioTolerance >= 1 {
			return fmt.Errorf("aspect_ratio_tolerance must be in [0, 1), got %f", *c.AspectRatioTolerance)
		}
	}

	if c.AlignmentDegrees != nil {
		if *c.AlignmentDegrees < 0 || *c.AlignmentDegrees > 90 {
			return fmt.Errorf("alignment_degrees must be between 0 and 90, got %f", *c.AlignmentDegrees)
		}
	}

	if c.EdgeThreshold != nil && *c.EdgeThreshold < 0 {
		return fmt.Errorf("edge_threshold must be non-negative, got %f", *c.EdgeThreshold)
	}

	if c.MinLineLength != nil && *c.MinLineLength < 0 {
		return fmt.Errorf("min_line_length must be non-negative, got %d", *c.MinLineLength)
	}

	if c.MaxLineGap != nil && *c.MaxLineGap < 0 {
		return fmt.Errorf("max_line_gap must be non-negative, got %f", *c.MaxLineGap)
	}

	if c.BlurRadius != nil && *c.BlurRadius < 0 {
		return fmt.Errorf("blur_radius must be non-negative, got %f", *c.BlurRadius)
	}

	if c.SampleDistance != nil && *c.SampleDistance < 1 {
		return fmt.Errorf("sample_distance must be at least 1, got %d", *c.SampleDistance)
	}

	if c.OverlayColor != nil && *c.OverlayColor != "" {
		if _, err := imaging.ParseColor(*c.OverlayColor); err != nil {
			return fmt.Errorf("invalid overlay_color: %w", err)
		}
	}

	return nil
}

// GetAspectRatioTolerance returns the aspect_ratio_tolerance value or the default.
func (c *TuningConfig) GetAspectRatioTolerance() float64 {
	if c.AspectRatioTolerance == nil {
		return detection.DefaultPipelineAspectTolerance
	}
	return *c.AspectRatioTolerance
}

// GetAlignmentAngle returns the alignment_degrees value as an angle or the default.
func (c *TuningConfig) GetAlignmentAngle() s1.Angle {
	if c.AlignmentDegrees == nil {
		return detection.DefaultAlignmentAngle
	}
	return s1.Angle(*c.AlignmentDegrees) * s1.Degree
}

// GetSortByArea returns the sort_by_area value or the default.
func (c *TuningConfig) GetSortByArea() bool {
	if c.SortByArea == nil {
		return true // default
	}
	return *c.SortByArea
}

// GetUseHemiCube returns the use_hemicube value or the default.
func (c *TuningConfig) GetUseHemiCube() bool {
	if c.UseHemiCube == nil {
		return false // default
	}
	return *c.UseHemiCube
}

// GetSampleDistance returns the sample_distance value or the default.
func (c *TuningConfig) GetSampleDistance() int {
	if c.SampleDistance == nil {
		return detection.DefaultPerpendicularSampleDistance
	}
	return *c.SampleDistance
}

// GetOverlayColor returns the overlay_color value or the default.
func (c *TuningConfig) GetOverlayColor() string {
	if c.OverlayColor == nil || *c.OverlayColor == "" {
		return imaging.DefaultLineColor
	}
	return *c.OverlayColor
}

// LineDetector returns the Hough line extractor configured by c. Unset
// fields stay zero so the detector applies its own defaults.
func (c *TuningConfig) LineDetector() detection.HoughLineDetector {
	var d detection.HoughLineDetector
	if c.EdgeThreshold != nil {
		d.Threshold = *c.EdgeThreshold
	}
	if c.MinLineLength != nil {
		d.MinLength = *c.MinLineLength
	}
	if c.MaxLineGap != nil {
		d.MaxGap = *c.MaxLineGap
	}
	if c.BlurRadius != nil {
		d.BlurRadius = *c.BlurRadius
	}
	return d
}

// ApplyTo copies the rectangle filter values of c into params.
func (c *TuningConfig) ApplyTo(params *detection.AlignedParams) {
	params.AspectRatioTolerance = c.GetAspectRatioTolerance()
	params.AlignmentAngle = c.GetAlignmentAngle()
	params.SortByArea = c.GetSortByArea()
	params.UseHemiCube = c.GetUseHemiCube()
}
