package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/s1"

	"github.com/ironsheep/quad-detect-mcp/internal/detection"
	"github.com/ironsheep/quad-detect-mcp/internal/imaging"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.AspectRatioTolerance == nil || *cfg.AspectRatioTolerance != 0.1 {
		t.Errorf("Expected AspectRatioTolerance 0.1, got %v", cfg.AspectRatioTolerance)
	}
	if cfg.SortByArea == nil || *cfg.SortByArea != true {
		t.Errorf("Expected SortByArea true, got %v", cfg.SortByArea)
	}
	if cfg.SampleDistance == nil || *cfg.SampleDistance != 5 {
		t.Errorf("Expected SampleDistance 5, got %v", cfg.SampleDistance)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	if math.Abs(cfg.GetAlignmentAngle().Degrees()-35) > 1e-9 {
		t.Errorf("GetAlignmentAngle() = %v, want 35 degrees", cfg.GetAlignmentAngle())
	}
	if cfg.GetOverlayColor() != imaging.DefaultLineColor {
		t.Errorf("GetOverlayColor() = %s, want %s", cfg.GetOverlayColor(), imaging.DefaultLineColor)
	}
}

func TestEmptyTuningConfig_Getters(t *testing.T) {
	cfg := EmptyTuningConfig()

	if cfg.GetAspectRatioTolerance() != detection.DefaultPipelineAspectTolerance {
		t.Errorf("GetAspectRatioTolerance() = %f", cfg.GetAspectRatioTolerance())
	}
	if cfg.GetAlignmentAngle() != detection.DefaultAlignmentAngle {
		t.Errorf("GetAlignmentAngle() = %v", cfg.GetAlignmentAngle())
	}
	if cfg.GetSortByArea() != true {
		t.Error("GetSortByArea() should default to true")
	}
	if cfg.GetUseHemiCube() != false {
		t.Error("GetUseHemiCube() should default to false")
	}
	if cfg.GetSampleDistance() != detection.DefaultPerpendicularSampleDistance {
		t.Errorf("GetSampleDistance() = %d", cfg.GetSampleDistance())
	}
	if cfg.GetOverlayColor() != imaging.DefaultLineColor {
		t.Errorf("GetOverlayColor() = %s", cfg.GetOverlayColor())
	}
	if cfg.LineDetector() != (detection.HoughLineDetector{}) {
		t.Errorf("LineDetector() = %+v, want zero value", cfg.LineDetector())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	configPath := writeConfig(t, "tuning.json", `{
  "aspect_ratio_tolerance": 0.2,
  "alignment_degrees": 20,
  "sort_by_area": false,
  "use_hemicube": true,
  "edge_threshold": 30,
  "min_line_length": 12,
  "max_line_gap": 4.5,
  "blur_radius": 1,
  "sample_distance": 7,
  "overlay_color": "#00FF00"
}`)

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetAspectRatioTolerance() != 0.2 {
		t.Errorf("GetAspectRatioTolerance() = %f, want 0.2", cfg.GetAspectRatioTolerance())
	}
	if cfg.GetSampleDistance() != 7 {
		t.Errorf("GetSampleDistance() = %d, want 7", cfg.GetSampleDistance())
	}
	if cfg.GetOverlayColor() != "#00FF00" {
		t.Errorf("GetOverlayColor() = %s, want #00FF00", cfg.GetOverlayColor())
	}

	want := detection.HoughLineDetector{Threshold: 30, MinLength: 12, MaxGap: 4.5, BlurRadius: 1}
	if got := cfg.LineDetector(); got != want {
		t.Errorf("LineDetector() = %+v, want %+v", got, want)
	}

	params := detection.DefaultAlignedParams(100, 1.5)
	cfg.ApplyTo(&params)
	if params.AspectRatioTolerance != 0.2 || params.SortByArea || !params.UseHemiCube {
		t.Errorf("ApplyTo did not copy values: %+v", params)
	}
	if math.Abs(params.AlignmentAngle.Degrees()-20) > 1e-9 {
		t.Errorf("AlignmentAngle = %v, want 20 degrees", params.AlignmentAngle)
	}
	if params.RectangleWidth != 100 || params.AspectRatio != 1.5 {
		t.Errorf("ApplyTo changed the rectangle size: %+v", params)
	}
}

func TestLoadTuningConfig_Partial(t *testing.T) {
	configPath := writeConfig(t, "partial.json", `{"use_hemicube": true}`)

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	params := detection.DefaultAlignedParams(100, 1.5)
	cfg.ApplyTo(&params)

	if !params.UseHemiCube {
		t.Error("UseHemiCube should be set")
	}
	if params.AlignmentAngle != detection.DefaultAlignmentAngle {
		t.Errorf("AlignmentAngle = %v, want default", params.AlignmentAngle)
	}
	if params.AspectRatioTolerance != detection.DefaultPipelineAspectTolerance {
		t.Errorf("AspectRatioTolerance = %f, want default", params.AspectRatioTolerance)
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "tuning.yaml", `{}`, ".json extension"},
		{"invalid json", "broken.json", `{"sort_by_area": `, "failed to parse"},
		{"tolerance too large", "tol.json", `{"aspect_ratio_tolerance": 1.5}`, "aspect_ratio_tolerance"},
		{"alignment too large", "align.json", `{"alignment_degrees": 120}`, "alignment_degrees"},
		{"negative threshold", "thr.json", `{"edge_threshold": -1}`, "edge_threshold"},
		{"negative line length", "len.json", `{"min_line_length": -5}`, "min_line_length"},
		{"negative gap", "gap.json", `{"max_line_gap": -1}`, "max_line_gap"},
		{"negative blur", "blur.json", `{"blur_radius": -1}`, "blur_radius"},
		{"zero sample distance", "psd.json", `{"sample_distance": 0}`, "sample_distance"},
		{"bad color", "color.json", `{"overlay_color": "yellow"}`, "overlay_color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuningConfig(writeConfig(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadTuningConfig_Missing(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestLoadTuningConfig_TooLarge(t *testing.T) {
	padding := strings.Repeat(" ", maxFileSize)
	configPath := writeConfig(t, "large.json", "{"+padding+"}")

	_, err := LoadTuningConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestGetAlignmentAngle(t *testing.T) {
	cfg := &TuningConfig{AlignmentDegrees: ptrFloat64(90)}
	if got := cfg.GetAlignmentAngle(); math.Abs(got.Radians()-(90*s1.Degree).Radians()) > 1e-12 {
		t.Errorf("GetAlignmentAngle() = %v, want 90 degrees", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("90 degrees should validate: %v", err)
	}
}
