package opt

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Benchmark is a box-bounded test function with a known minimum of 0.
type Benchmark struct {
	Name        string
	Description string
	Eval        func([]float64) float64
	Lower       float64
	Upper       float64
}

// Bounds returns per-dimension bounds for dim dimensions.
func (b Benchmark) Bounds(dim int) (lower, upper []float64) {
	return repeat(b.Lower, dim), repeat(b.Upper, dim)
}

var benchmarks = map[string]Benchmark{
	"sphere": {
		Name:        "sphere",
		Description: "Simple unimodal function",
		Eval:        Sphere,
		Lower:       -5.12,
		Upper:       5.12,
	},
	"rastrigin": {
		Name:        "rastrigin",
		Description: "Highly multimodal function",
		Eval:        Rastrigin,
		Lower:       -5.12,
		Upper:       5.12,
	},
	"rosenbrock": {
		Name:        "rosenbrock",
		Description: "Valley-shaped function",
		Eval:        Rosenbrock,
		Lower:       -2.048,
		Upper:       2.048,
	},
	"ackley": {
		Name:        "ackley",
		Description: "Multimodal function with a flat outer region",
		Eval:        Ackley,
		Lower:       -32.768,
		Upper:       32.768,
	},
}

// BenchmarkByName looks up a benchmark function.
func BenchmarkByName(name string) (Benchmark, error) {
	b, ok := benchmarks[strings.ToLower(name)]
	if !ok {
		return Benchmark{}, fmt.Errorf("unknown benchmark %q (available: %s)", name, strings.Join(BenchmarkNames(), ", "))
	}
	return b, nil
}

// BenchmarkNames lists the benchmark names in sorted order.
func BenchmarkNames() []string {
	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sphere is the sum of squares.
func Sphere(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return sum
}

func Rastrigin(x []float64) float64 {
	sum := 10.0 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10.0*math.Cos(2.0*math.Pi*v)
	}
	return sum
}

// Rosenbrock has its minimum at (1, ..., 1).
func Rosenbrock(x []float64) float64 {
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1.0 - x[i]
		sum += 100.0*a*a + b*b
	}
	return sum
}

func Ackley(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	n := float64(len(x))
	var sq, cos float64
	for _, v := range x {
		sq += v * v
		cos += math.Cos(2.0 * math.Pi * v)
	}
	return -20.0*math.Exp(-0.2*math.Sqrt(sq/n)) - math.Exp(cos/n) + 20.0 + math.E
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
