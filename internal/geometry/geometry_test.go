package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestFiniteLine2_Basics(t *testing.T) {
	line := NewFiniteLine2(10, 20, 40, 60)

	if got := line.Length(); math.Abs(got-50) > 1e-9 {
		t.Errorf("Length: got %f, want 50", got)
	}
	if diff := cmp.Diff(Vector2{X: 0.6, Y: 0.8}, line.Direction(), approx); diff != "" {
		t.Errorf("Direction mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Vector2{X: -0.8, Y: 0.6}, line.Normal(), approx); diff != "" {
		t.Errorf("Normal mismatch (-want +got):\n%s", diff)
	}
	if !line.IsValid() {
		t.Error("expected valid line")
	}
	if NewFiniteLine2(3, 3, 3, 3).IsValid() {
		t.Error("degenerate segment reported as valid")
	}
}

func TestFiniteLine2_Distance(t *testing.T) {
	line := NewFiniteLine2(0, 0, 10, 0)

	tests := []struct {
		name string
		p    Vector2
		want float64
	}{
		{"above middle", Vector2{X: 5, Y: 3}, 3},
		{"on segment", Vector2{X: 7, Y: 0}, 0},
		{"beyond end", Vector2{X: 14, Y: 3}, 5},
		{"before start", Vector2{X: -3, Y: -4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := line.Distance(tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance(%v): got %f, want %f", tt.p, got, tt.want)
			}
		})
	}
}

func TestLine2_Intersection(t *testing.T) {
	horizontal := NewLine2(Vector2{X: 0, Y: 5}, Vector2{X: 1, Y: 0})
	vertical := NewLine2(Vector2{X: 3, Y: -10}, Vector2{X: 0, Y: 2})

	p, ok := horizontal.Intersection(vertical)
	if !ok {
		t.Fatal("expected an intersection")
	}
	if diff := cmp.Diff(Vector2{X: 3, Y: 5}, p, approx); diff != "" {
		t.Errorf("intersection mismatch (-want +got):\n%s", diff)
	}

	parallel := NewLine2(Vector2{X: 0, Y: 9}, Vector2{X: -1, Y: 0})
	if _, ok := horizontal.Intersection(parallel); ok {
		t.Error("parallel lines must not intersect")
	}
}

func TestLine2_Distance(t *testing.T) {
	line := NewLine2(Vector2{X: 0, Y: 0}, Vector2{X: 1, Y: 1})
	got := line.Distance(Vector2{X: 0, Y: 2})
	if math.Abs(got-math.Sqrt2) > 1e-9 {
		t.Errorf("Distance: got %f, want %f", got, math.Sqrt2)
	}
	if sqr := line.SqrDistance(Vector2{X: 0, Y: 2}); math.Abs(sqr-2) > 1e-9 {
		t.Errorf("SqrDistance: got %f, want 2", sqr)
	}
}

func TestTriangleSquaredArea(t *testing.T) {
	// right triangle with legs 3 and 4 has area 6
	got := TriangleSquaredArea(Vector2{X: 0, Y: 0}, Vector2{X: 3, Y: 0}, Vector2{X: 0, Y: 4})
	if math.Abs(got-36) > 1e-9 {
		t.Errorf("TriangleSquaredArea: got %f, want 36", got)
	}
}

func TestFitLineLeastSquares(t *testing.T) {
	points := []Vector2{}
	for i := 0; i < 10; i++ {
		points = append(points, Vector2{X: float64(i), Y: 2*float64(i) + 1})
	}

	line, ok := FitLineLeastSquares(points)
	if !ok {
		t.Fatal("fit failed")
	}

	for _, p := range points {
		if d := line.Distance(p); d > 1e-6 {
			t.Errorf("point %v is %f away from fitted line", p, d)
		}
	}

	want := Vector2{X: 1, Y: 2}.Normalize()
	if c := math.Abs(line.Direction.Dot(want)); c < 1-1e-9 {
		t.Errorf("direction %v not parallel to %v", line.Direction, want)
	}
}

func TestFitLineLeastSquares_Degenerate(t *testing.T) {
	if _, ok := FitLineLeastSquares([]Vector2{{X: 1, Y: 1}}); ok {
		t.Error("single point must fail")
	}
	if _, ok := FitLineLeastSquares([]Vector2{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}); ok {
		t.Error("identical points must fail")
	}
}

func TestRANSACLine_RejectsOutliers(t *testing.T) {
	points := []Vector2{}
	for i := 0; i < 20; i++ {
		points = append(points, Vector2{X: 50, Y: float64(10 + 3*i)})
	}
	outliers := []Vector2{{X: 10, Y: 10}, {X: 90, Y: 40}, {X: 70, Y: 5}}
	points = append(points, outliers...)

	rng := rand.New(rand.NewSource(1))
	line, used, ok := RANSACLine(points, rng, true, 30, 1.5*1.5)
	if !ok {
		t.Fatal("RANSAC failed")
	}

	if len(used) != 20 {
		t.Errorf("used indices: got %d, want 20", len(used))
	}
	for _, index := range used {
		if index >= 20 {
			t.Errorf("outlier %d used", index)
		}
	}
	if d := line.Distance(Vector2{X: 50, Y: 0}); d > 1e-6 {
		t.Errorf("line misses x=50 by %f", d)
	}
}

func TestRANSACLine_TooFewPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, _, ok := RANSACLine([]Vector2{{X: 1, Y: 2}}, rng, true, 30, 1); ok {
		t.Error("expected failure with one point")
	}
}

func TestIdealBinsNeighborhood9(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		distance      float64
		wantH, wantV  int
	}{
		{"regular", 200, 200, 50, 4, 4},
		{"clamped low", 100, 100, 200, 2, 2},
		{"clamped high", 1000, 500, 5, 20, 20},
		{"tiny image", 1, 1, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, v := IdealBinsNeighborhood9(tt.width, tt.height, tt.distance)
			if h != tt.wantH || v != tt.wantV {
				t.Errorf("got %dx%d, want %dx%d", h, v, tt.wantH, tt.wantV)
			}
		})
	}
}

func TestDistributionArray_Neighborhood(t *testing.T) {
	d := NewDistributionArray(0, 0, 100, 100, 4, 4)

	d.AddPoint(Vector2{X: 10, Y: 10}, 0)  // bin (0,0)
	d.AddPoint(Vector2{X: 30, Y: 30}, 1)  // bin (1,1)
	d.AddPoint(Vector2{X: 90, Y: 90}, 2)  // bin (3,3)
	d.AddPoint(Vector2{X: -5, Y: 500}, 3) // clamped to (0,3)

	got := d.IndicesNeighborhood9(0, 0, nil)
	if diff := cmp.Diff([]int{0, 1}, got, cmpopts.SortSlices(func(a, b int) bool { return a < b })); diff != "" {
		t.Errorf("neighborhood (0,0) mismatch (-want +got):\n%s", diff)
	}

	if got := d.Indices(0, 3); len(got) != 1 || got[0] != 3 {
		t.Errorf("clamped bin: got %v, want [3]", got)
	}
}
