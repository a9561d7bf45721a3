package opt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Optimizer defines a box-bounded minimization algorithm
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize
	// lower, upper: parameter bounds
	// dim: dimensionality of parameter space
	// Returns: best parameters and best cost
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}

// Outcome is the result of one optimizer in a comparison.
type Outcome struct {
	Name    string        `json:"name"`
	Best    []float64     `json:"best"`
	Cost    float64       `json:"cost"`
	Elapsed time.Duration `json:"elapsed"`
}

// Compare runs every optimizer on the same problem concurrently and returns
// the outcomes ordered by cost, then name. eval must be safe for concurrent
// use. Optimizers that have not started when ctx is cancelled are skipped and
// ctx's error is returned.
func Compare(ctx context.Context, eval func([]float64) float64, lower, upper []float64, dim int, optimizers map[string]Optimizer) ([]Outcome, error) {
	if err := checkBounds(lower, upper, dim); err != nil {
		return nil, err
	}
	if len(optimizers) == 0 {
		return nil, fmt.Errorf("no optimizers to compare")
	}

	names := make([]string, 0, len(optimizers))
	for name := range optimizers {
		names = append(names, name)
	}
	sort.Strings(names)

	outcomes := make([]Outcome, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			best, cost := optimizers[name].Run(eval, lower, upper, dim)
			outcomes[i] = Outcome{Name: name, Best: best, Cost: cost, Elapsed: time.Since(start)}
			slog.Debug("Optimizer finished", "optimizer", name, "cost", cost, "elapsed", outcomes[i].Elapsed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Cost < outcomes[j].Cost
	})
	return outcomes, nil
}

func checkBounds(lower, upper []float64, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if len(lower) != dim || len(upper) != dim {
		return fmt.Errorf("bounds must have %d entries, got %d and %d", dim, len(lower), len(upper))
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return fmt.Errorf("lower bound %d exceeds upper bound (%f > %f)", i, lower[i], upper[i])
		}
	}
	return nil
}

// decode maps unit-cube coordinates onto the box [lower, upper].
func decode(unit, lower, upper, out []float64) {
	for i, u := range unit {
		if u < 0 {
			u = 0
		} else if u > 1 {
			u = 1
		}
		out[i] = lower[i] + u*(upper[i]-lower[i])
	}
}
