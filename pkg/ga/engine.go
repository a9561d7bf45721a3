// Package ga implements a small generational genetic algorithm over
// fixed-shape genomes of float64 genes.
//
// A genome is a flat slice of ChromosomeCount*GeneCount genes. Chromosome c
// occupies genes [c*GeneCount, (c+1)*GeneCount). The engine keeps a set of
// survivors between calls to Run so the same engine can be re-invoked as the
// caller's problem advances (see RunOptions.ShiftOnReuse).
//
// An Engine is not safe for concurrent use. Separate engines share no state.
package ga

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Fitness scores a genome. The genome is borrowed for the duration of the call
// and is overwritten by the engine afterwards, so implementations must not
// retain it.
type Fitness interface {
	Evaluate(e *Engine, genome []float64) float64
}

// FitnessFunc adapts a plain function to the Fitness interface.
type FitnessFunc func(e *Engine, genome []float64) float64

// Evaluate calls f(e, genome).
func (f FitnessFunc) Evaluate(e *Engine, genome []float64) float64 {
	return f(e, genome)
}

// Engine owns the population buffers, the survivors and the random source.
type Engine struct {
	population      int
	survivalCount   int
	chromosomeCount int
	geneCount       int

	rng    *rand.Rand
	policy Policy
	logger *slog.Logger
	now    func() time.Time
	hook   func(GenerationStats)

	defaultChromosome []float64

	survivors      [][]float64
	survivorScores []float64
	genomes        [][]float64
	scores         []float64

	initialized bool
	needsSeed   bool
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithSeed seeds the engine's random source.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand injects the engine's random source. Every stochastic decision of
// the engine draws from it.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithPolicy selects the fill, mutation and rate-schedule strategies.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets the logger used for per-generation debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces the wall clock used for the Run timeout.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithGenerationHook registers a callback invoked after every generation's
// selection step.
func WithGenerationHook(hook func(GenerationStats)) Option {
	return func(e *Engine) {
		e.hook = hook
	}
}

// New creates an engine and initializes it with the given shape.
func New(population, survivalCount, chromosomeCount, geneCount int, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Initialize(population, survivalCount, chromosomeCount, geneCount); err != nil {
		return nil, err
	}
	return e, nil
}

// Initialize validates the configuration and allocates all buffers. Calling it
// again resets the engine: survivors and the default chromosome are dropped
// and the next Run seeds from scratch. The random source and policy are kept.
func (e *Engine) Initialize(population, survivalCount, chromosomeCount, geneCount int) error {
	switch {
	case population <= 0:
		return &ConfigError{Field: "population", Reason: "must be positive"}
	case survivalCount <= 0:
		return &ConfigError{Field: "survivalCount", Reason: "must be positive"}
	case survivalCount >= population:
		return &ConfigError{Field: "survivalCount", Reason: fmt.Sprintf("must be less than population (%d >= %d)", survivalCount, population)}
	case chromosomeCount <= 0:
		return &ConfigError{Field: "chromosomeCount", Reason: "must be positive"}
	case geneCount <= 0:
		return &ConfigError{Field: "geneCount", Reason: "must be positive"}
	}

	if e.policy.Mutation == nil && e.policy.Schedule == nil {
		e.policy = ClassicPolicy()
	}
	if err := e.policy.Validate(); err != nil {
		return err
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(0))
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}

	e.population = population
	e.survivalCount = survivalCount
	e.chromosomeCount = chromosomeCount
	e.geneCount = geneCount

	length := chromosomeCount * geneCount
	e.survivors = makeGenomes(survivalCount, length)
	e.survivorScores = make([]float64, survivalCount)
	e.genomes = makeGenomes(population, length)
	e.scores = make([]float64, population)
	e.defaultChromosome = nil

	e.initialized = true
	e.needsSeed = true
	return nil
}

func makeGenomes(count, length int) [][]float64 {
	backing := make([]float64, count*length)
	genomes := make([][]float64, count)
	for i := range genomes {
		genomes[i] = backing[i*length : (i+1)*length : (i+1)*length]
	}
	return genomes
}

// ResetPopulation forgets the current survivors. It does not regenerate the
// survivors in place from default chromosomes: the survivor buffers are left
// untouched until the next Run, which performs the initial seeding again (one
// default genome, evaluated once and copied into every survivor slot) instead
// of shifting.
func (e *Engine) ResetPopulation() {
	e.needsSeed = true
}

// Population returns the number of candidates per generation.
func (e *Engine) Population() int { return e.population }

// SurvivalCount returns the number of survivors carried between generations.
func (e *Engine) SurvivalCount() int { return e.survivalCount }

// ChromosomeCount returns the number of chromosomes per genome.
func (e *Engine) ChromosomeCount() int { return e.chromosomeCount }

// GeneCount returns the number of genes per chromosome.
func (e *Engine) GeneCount() int { return e.geneCount }

// GenomeLength returns ChromosomeCount*GeneCount.
func (e *Engine) GenomeLength() int { return e.chromosomeCount * e.geneCount }

// Policy returns the engine's strategy set.
func (e *Engine) Policy() Policy { return e.policy }

// Seeded reports whether the survivors hold results of a previous Run.
func (e *Engine) Seeded() bool { return e.initialized && !e.needsSeed }

// BestGenome returns a copy of the rank-0 survivor.
func (e *Engine) BestGenome() []float64 {
	if len(e.survivors) == 0 {
		return nil
	}
	return append([]float64(nil), e.survivors[0]...)
}

// BestFitness returns the score of the rank-0 survivor.
func (e *Engine) BestFitness() float64 {
	if len(e.survivorScores) == 0 {
		return 0
	}
	return e.survivorScores[0]
}

// Survivors returns copies of all survivors in rank order.
func (e *Engine) Survivors() [][]float64 {
	out := make([][]float64, len(e.survivors))
	for i, genome := range e.survivors {
		out[i] = append([]float64(nil), genome...)
	}
	return out
}

// SurvivorFitness returns the survivors' scores in rank order.
func (e *Engine) SurvivorFitness() []float64 {
	return append([]float64(nil), e.survivorScores...)
}

// SetDefaultChromosome sets the template copied into newly introduced
// chromosomes. A nil template restores the policy fill.
func (e *Engine) SetDefaultChromosome(chromosome []float64) error {
	if chromosome == nil {
		e.defaultChromosome = nil
		return nil
	}
	if len(chromosome) != e.geneCount {
		return &ShapeError{
			Op:     "set default chromosome",
			Reason: fmt.Sprintf("template has %d genes, want %d", len(chromosome), e.geneCount),
		}
	}
	e.defaultChromosome = append([]float64(nil), chromosome...)
	return nil
}

// DefaultChromosome returns a copy of the template, or nil when none is set.
func (e *Engine) DefaultChromosome() []float64 {
	if e.defaultChromosome == nil {
		return nil
	}
	return append([]float64(nil), e.defaultChromosome...)
}
