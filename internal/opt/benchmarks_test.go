package opt

import (
	"math"
	"testing"
)

func TestBenchmarksAtOptimum(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
	}{
		{"sphere", []float64{0, 0, 0}},
		{"rastrigin", []float64{0, 0, 0}},
		{"rosenbrock", []float64{1, 1, 1}},
		{"ackley", []float64{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := BenchmarkByName(tt.name)
			if err != nil {
				t.Fatalf("BenchmarkByName failed: %v", err)
			}
			if got := b.Eval(tt.x); math.Abs(got) > 1e-9 {
				t.Errorf("Expected 0 at the optimum, got %g", got)
			}
			if b.Eval([]float64{0.5, -0.5, 0.25}) <= 0 {
				t.Error("Expected a positive value away from the optimum")
			}
		})
	}
}

func TestBenchmarkBounds(t *testing.T) {
	b, _ := BenchmarkByName("Rosenbrock")
	lower, upper := b.Bounds(4)
	if len(lower) != 4 || len(upper) != 4 {
		t.Fatalf("Expected 4 bounds, got %d/%d", len(lower), len(upper))
	}
	if lower[3] != -2.048 || upper[0] != 2.048 {
		t.Errorf("Unexpected bounds: %v %v", lower, upper)
	}

	if _, err := BenchmarkByName("nope"); err == nil {
		t.Error("Expected error for unknown benchmark")
	}
	if len(BenchmarkNames()) != 4 {
		t.Errorf("Expected 4 benchmarks, got %v", BenchmarkNames())
	}
}
