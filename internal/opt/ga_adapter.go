package opt

import (
	"log/slog"
	"time"

	"github.com/cwbudde/superlightga/pkg/ga"
)

// GAAdapter runs the GA engine as a continuous optimizer. Every dimension is
// one chromosome with a single gene, decoded as lower + g*(upper-lower).
type GAAdapter struct {
	Population  int
	Survivors   int
	Generations int
	// Timeout bounds the run; negative means no wall-clock bound
	Timeout time.Duration
	Seed    int64
	Policy  ga.Policy
}

// NewGA creates a GA optimizer with the classic policy and no timeout.
func NewGA(generations, population, survivors int, seed int64) Optimizer {
	return &GAAdapter{
		Population:  population,
		Survivors:   survivors,
		Generations: generations,
		Timeout:     -1,
		Seed:        seed,
		Policy:      ga.ClassicPolicy(),
	}
}

// Run minimizes eval within [lower, upper].
func (a *GAAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	opts := []ga.Option{ga.WithSeed(a.Seed)}
	if a.Policy.Mutation != nil || a.Policy.Schedule != nil {
		opts = append(opts, ga.WithPolicy(a.Policy))
	}

	engine, err := ga.New(a.Population, a.Survivors, dim, 1, opts...)
	if err != nil {
		slog.Warn("GA setup failed, using lower bounds", "error", err)
		best := append([]float64(nil), lower...)
		return best, eval(best)
	}

	x := make([]float64, dim)
	fitness := ga.FitnessFunc(func(_ *ga.Engine, genome []float64) float64 {
		decode(genome, lower, upper, x)
		return eval(x)
	})

	_, err = engine.Run(fitness, ga.RunOptions{
		Maximize:       false,
		MaxGenerations: a.Generations,
		Timeout:        a.Timeout,
	})
	if err != nil {
		slog.Warn("GA run failed", "error", err)
	}

	best := make([]float64, dim)
	decode(engine.BestGenome(), lower, upper, best)
	return best, engine.BestFitness()
}
