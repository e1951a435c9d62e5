package server

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func toolsByName() map[string]Tool {
	tools := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		tools[tool.Name] = tool
	}
	return tools
}

func properties(t *testing.T, tool Tool) map[string]interface{} {
	t.Helper()
	props, ok := tool.InputSchema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("%s: properties should be a map", tool.Name)
	}
	return props
}

func required(t *testing.T, tool Tool) []string {
	t.Helper()
	req, ok := tool.InputSchema["required"].([]string)
	if !ok {
		t.Fatalf("%s: required should be a string slice", tool.Name)
	}
	return req
}

func TestGetToolDefinitions(t *testing.T) {
	var names []string
	for _, tool := range GetToolDefinitions() {
		names = append(names, tool.Name)
	}

	want := []string{
		"quad_crop",
		"quad_detect_corners",
		"quad_detect_lines",
		"quad_detect_rectangles",
		"quad_guess_rectangles",
		"quad_load",
		"quad_overlay",
		"quad_refine_rectangle",
	}
	if diff := cmp.Diff(want, names, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Errorf("tool names mismatch (-want +got):\n%s", diff)
	}
}

func TestToolDefinitions_Schema(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("schema type: got %v, want object", tool.InputSchema["type"])
			}

			props := properties(t, tool)
			for _, name := range required(t, tool) {
				if _, ok := props[name]; !ok {
					t.Errorf("required parameter %s has no property", name)
				}
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	tools := toolsByName()

	tests := map[string][]string{
		"quad_load":              {"path"},
		"quad_detect_lines":      {"path"},
		"quad_detect_corners":    {"path"},
		"quad_detect_rectangles": {"aspect_ratio", "path", "rectangle_width"},
		"quad_guess_rectangles":  {"aspect_ratio", "path", "rectangle_width"},
		"quad_refine_rectangle":  {"corners", "path"},
		"quad_overlay":           {"aspect_ratio", "path", "rectangle_width"},
		"quad_crop":              {"corners", "path"},
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got := append([]string(nil), required(t, tools[name])...)
			sort.Strings(got)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("required mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToolDefinitions_MergeModes(t *testing.T) {
	merge, ok := properties(t, toolsByName()["quad_detect_lines"])["merge"].(map[string]interface{})
	if !ok {
		t.Fatal("merge property should be a map")
	}

	if diff := cmp.Diff([]string{"none", "greedy", "hemicube"}, merge["enum"]); diff != "" {
		t.Errorf("merge enum mismatch (-want +got):\n%s", diff)
	}
}

func TestToolDefinitions_CornersProperty(t *testing.T) {
	for _, name := range []string{"quad_refine_rectangle", "quad_crop"} {
		corners, ok := properties(t, toolsByName()[name])["corners"].(map[string]interface{})
		if !ok {
			t.Fatalf("%s: corners property should be a map", name)
		}
		if corners["minItems"] != 4 || corners["maxItems"] != 4 {
			t.Errorf("%s: corners should hold exactly 4 items, got %v..%v", name, corners["minItems"], corners["maxItems"])
		}
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	tools := toolsByName()

	tests := map[string]map[string]interface{}{
		"quad_detect_lines":      {"min_length": 20, "threshold": 20.0, "merge": "none", "merge_gap": 10.0},
		"quad_detect_corners":    {"distance": 2.0, "angle_degrees": 20.0},
		"quad_detect_rectangles": {"aspect_ratio_tolerance": 0.1, "alignment_degrees": 35.0, "sort": true, "use_hemicube": false},
		"quad_guess_rectangles":  {"max_candidates": 20},
		"quad_refine_rectangle":  {"sample_distance": 5},
		"quad_overlay":           {"line_color": "#FFD700"},
		"quad_crop":              {"scale": 1.0, "margin": 4},
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got := make(map[string]interface{})
			for param, prop := range properties(t, tools[name]) {
				if value, ok := prop.(map[string]interface{})["default"]; ok {
					got[param] = value
				}
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("defaults mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleToolsList(t *testing.T) {
	resp := New(nil).handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1})

	if resp == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ID != 1 {
		t.Errorf("ID: got %v, want 1", resp.ID)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("result should be a map")
	}
	tools, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}
	if len(tools) != len(GetToolDefinitions()) {
		t.Errorf("tool count: got %d, want %d", len(tools), len(GetToolDefinitions()))
	}
}
