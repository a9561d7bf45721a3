package ga

import (
	"context"
	"sort"
	"time"
)

// RunOptions controls a single call to Run.
type RunOptions struct {
	// Maximize ranks higher scores first. Otherwise lower scores win.
	Maximize bool

	// MaxGenerations bounds the number of generations. Negative means unbounded.
	MaxGenerations int

	// Timeout is the wall-clock budget measured from the start of Run. It is
	// checked before each candidate is evolved, so a call can overrun it by at
	// most one fitness evaluation. Negative means no wall-clock bound.
	Timeout time.Duration

	// ShiftOnReuse drops the first chromosome of every survivor on the second
	// and later calls and appends a default chromosome at the end.
	ShiftOnReuse bool
}

// DefaultRunOptions maximizes for up to 10000 generations within 100ms and
// shifts survivors on reuse.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Maximize:       true,
		MaxGenerations: 10000,
		Timeout:        100 * time.Millisecond,
		ShiftOnReuse:   true,
	}
}

// GenerationStats describes one completed generation.
type GenerationStats struct {
	// Generation is the zero-based index of the generation within its Run.
	Generation           int
	BestFitness          float64
	WorstSurvivorFitness float64
	// Evaluations counts fitness calls made while evolving this generation.
	Evaluations int
	// TimedOut is set when the generation was cut short by the timeout or a
	// cancelled context.
	TimedOut bool
	Elapsed  time.Duration
}

// Run evolves the population until MaxGenerations or Timeout is reached and
// returns the number of generations executed. The survivors are updated in
// place. Panics raised by fitness propagate to the caller.
func (e *Engine) Run(fitness Fitness, opts RunOptions) (int, error) {
	return e.RunContext(context.Background(), fitness, opts)
}

// RunContext is Run with cancellation. ctx is checked at the same point as
// the timeout; when it is done the current generation is finished with its
// placeholder candidates and the context error is returned with the number of
// generations executed.
func (e *Engine) RunContext(ctx context.Context, fitness Fitness, opts RunOptions) (int, error) {
	if !e.initialized {
		return 0, ErrNotInitialized
	}
	if fitness == nil {
		return 0, &ConfigError{Field: "fitness", Reason: "cannot be nil"}
	}

	start := e.now()
	if e.needsSeed {
		e.seed(fitness)
	} else if opts.ShiftOnReuse {
		e.shift(fitness)
	}

	generation := 0
	for opts.MaxGenerations < 0 || generation < opts.MaxGenerations {
		evaluations, interrupted := e.evolve(ctx, fitness, generation, start, opts.Timeout)
		e.selectSurvivors(opts.Maximize)

		stats := GenerationStats{
			Generation:           generation,
			BestFitness:          e.survivorScores[0],
			WorstSurvivorFitness: e.survivorScores[e.survivalCount-1],
			Evaluations:          evaluations,
			TimedOut:             interrupted,
			Elapsed:              e.now().Sub(start),
		}
		e.logger.Debug("Generation complete",
			"generation", generation,
			"best_fitness", stats.BestFitness,
			"evaluations", evaluations,
			"timed_out", interrupted,
		)
		if e.hook != nil {
			e.hook(stats)
		}

		generation++
		if interrupted {
			break
		}
	}

	e.logger.Info("Run complete",
		"generations", generation,
		"best_fitness", e.survivorScores[0],
		"elapsed", e.now().Sub(start),
	)
	return generation, ctx.Err()
}

// seed evaluates one default genome and copies it into every survivor slot.
func (e *Engine) seed(fitness Fitness) {
	genome := e.NewGenome()
	e.GenerateDefaultGenome(genome)
	score := fitness.Evaluate(e, genome)
	for i := range e.survivors {
		copy(e.survivors[i], genome)
		e.survivorScores[i] = score
	}
	e.needsSeed = false
}

// shift moves every survivor's chromosomes down by one slot, fills the last
// slot with a default chromosome and re-scores the survivor.
func (e *Engine) shift(fitness Fitness) {
	tail := (e.chromosomeCount - 1) * e.geneCount
	for i, genome := range e.survivors {
		copy(genome[:tail], genome[e.geneCount:])
		e.GenerateDefaultChromosome(genome, e.chromosomeCount-1)
		e.survivorScores[i] = fitness.Evaluate(e, genome)
	}
}

// evolve fills the population for one generation. Slots below SurvivalCount
// hold the survivors; the rest first receive a copy of a random survivor and
// are then rebuilt one by one until the time budget runs out.
func (e *Engine) evolve(ctx context.Context, fitness Fitness, generation int, start time.Time, timeout time.Duration) (evaluations int, interrupted bool) {
	for p := 0; p < e.survivalCount; p++ {
		copy(e.genomes[p], e.survivors[p])
		e.scores[p] = e.survivorScores[p]
	}
	for p := e.survivalCount; p < e.population; p++ {
		parent := e.rng.Intn(e.survivalCount)
		copy(e.genomes[p], e.survivors[parent])
		e.scores[p] = e.survivorScores[parent]
	}

	crossoverAt, mutateAt := operatorThresholds(e.policy.Schedule.Rates(generation))
	for p := e.survivalCount; p < e.population; p++ {
		if timeout >= 0 && e.now().Sub(start) > timeout {
			return evaluations, true
		}
		if ctx.Err() != nil {
			return evaluations, true
		}

		genome := e.genomes[p]
		e.GenerateDefaultGenome(genome)
		for c := 0; c < e.chromosomeCount; c++ {
			r := e.rng.Float64()
			switch {
			case r < crossoverAt:
				parent := e.survivors[e.rng.Intn(e.survivalCount)]
				copy(e.chromosome("crossover", genome, c), e.chromosome("crossover", parent, c))
			case r < mutateAt:
				e.MutateChromosome(genome, c, e.policy.MutationIntensity)
			}
		}
		e.scores[p] = fitness.Evaluate(e, genome)
		evaluations++
	}
	return evaluations, false
}

// selectSurvivors stable-sorts the population best-first and copies the top
// SurvivalCount candidates into the survivors. Ties keep population order, so
// the previous survivors win against equally scored offspring.
func (e *Engine) selectSurvivors(maximize bool) {
	sort.Stable(rankedPopulation{genomes: e.genomes, scores: e.scores, maximize: maximize})
	for i := 0; i < e.survivalCount; i++ {
		copy(e.survivors[i], e.genomes[i])
		e.survivorScores[i] = e.scores[i]
	}
}

// rankedPopulation co-sorts genomes with their scores. Swapping exchanges the
// preallocated genome rows, so sorting never allocates genome storage.
type rankedPopulation struct {
	genomes  [][]float64
	scores   []float64
	maximize bool
}

func (r rankedPopulation) Len() int { return len(r.scores) }

func (r rankedPopulation) Less(i, j int) bool {
	if r.maximize {
		return r.scores[i] > r.scores[j]
	}
	return r.scores[i] < r.scores[j]
}

func (r rankedPopulation) Swap(i, j int) {
	r.genomes[i], r.genomes[j] = r.genomes[j], r.genomes[i]
	r.scores[i], r.scores[j] = r.scores[j], r.scores[i]
}
