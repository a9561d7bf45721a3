package problem

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/cwbudde/superlightga/pkg/ga"
)

// Problem is a fitness functional with a fixed genome shape.
type Problem interface {
	ga.Fitness

	// Name identifies the problem in logs, reports and the registry
	Name() string

	// Shape returns the chromosome and gene counts the problem reads
	Shape() (chromosomes, genes int)

	// Maximize reports whether higher scores are better
	Maximize() bool

	// Describe renders a genome in problem terms
	Describe(e *ga.Engine, genome []float64) string
}

// Stepper is a problem whose state advances by committing the first
// chromosome of a genome. Planning sessions re-run the engine after every
// commit with survivors shifted by one chromosome.
type Stepper interface {
	Problem

	// Commit applies chromosome 0 of genome and reports whether the problem
	// is solved
	Commit(e *ga.Engine, genome []float64) (done bool)
}

// Params holds the tunables accepted by New. Zero values select defaults.
type Params struct {
	Target      int       `json:"target,omitempty" yaml:"target"`
	Chromosomes int       `json:"chromosomes,omitempty" yaml:"chromosomes"`
	Genes       int       `json:"genes,omitempty" yaml:"genes"`
	Sequence    []float64 `json:"sequence,omitempty" yaml:"sequence"`
}

type constructor func(params Params, rng *rand.Rand) (Problem, error)

var registry = map[string]constructor{
	"jump": func(params Params, rng *rand.Rand) (Problem, error) {
		target := params.Target
		if target == 0 {
			target = 1234
		}
		j := NewJumpFinder(target, rng)
		if params.Chromosomes > 0 {
			j.Steps = params.Chromosomes
		}
		return j, nil
	},
	"genesum": func(params Params, _ *rand.Rand) (Problem, error) {
		g := &GeneSum{Chromosomes: params.Chromosomes, Genes: params.Genes}
		if g.Chromosomes == 0 {
			g.Chromosomes = 3
		}
		if g.Genes == 0 {
			g.Genes = 1
		}
		return g, nil
	},
	"tracking": func(params Params, _ *rand.Rand) (Problem, error) {
		window := params.Chromosomes
		if window == 0 {
			window = 4
		}
		seq := params.Sequence
		if len(seq) == 0 {
			seq = SineSequence(32)
		}
		return NewTracking(seq, window)
	},
}

// New builds a registered problem by name.
func New(name string, params Params, rng *rand.Rand) (Problem, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown problem %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	return ctor(params, rng)
}

// Names lists the registered problem names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SineSequence returns n samples of one sine period mapped into [0,1].
func SineSequence(n int) []float64 {
	seq := make([]float64, n)
	for i := range seq {
		seq[i] = 0.5 + 0.5*math.Sin(2*math.Pi*float64(i)/float64(n))
	}
	return seq
}
