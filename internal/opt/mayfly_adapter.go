package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library.
// The library only takes scalar bounds, so the search runs on the unit cube
// and positions are mapped onto the per-dimension box.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	x := make([]float64, dim)
	objective := func(unit []float64) float64 {
		decode(unit, lower, upper, x)
		return eval(x)
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = objective
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = 0
	config.UpperBound = 1
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		slog.Warn("Mayfly optimization failed, using box center", "error", err)
		center := make([]float64, dim)
		for i := range center {
			center[i] = 0.5
		}
		best := make([]float64, dim)
		decode(center, lower, upper, best)
		return best, eval(best)
	}

	best := make([]float64, dim)
	decode(result.GlobalBest.Position, lower, upper, best)
	return best, result.GlobalBest.Cost
}
