package problem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/superlightga/pkg/ga"
)

// GeneSum scores a genome by the sum of all its genes. Minimizing it drives
// every gene towards 0.
type GeneSum struct {
	Chromosomes int
	Genes       int
}

func (g *GeneSum) Name() string { return "genesum" }

func (g *GeneSum) Shape() (int, int) { return g.Chromosomes, g.Genes }

func (g *GeneSum) Maximize() bool { return false }

func (g *GeneSum) Evaluate(_ *ga.Engine, genome []float64) float64 {
	var sum float64
	for _, v := range genome {
		sum += v
	}
	return sum
}

func (g *GeneSum) Describe(e *ga.Engine, genome []float64) string {
	return fmt.Sprintf("%s sum=%s", e.FormatGenome(genome), strconv.FormatFloat(g.Evaluate(e, genome), 'f', 4, 64))
}

// Tracking follows a sequence of values one step at a time. Chromosome c
// (a single gene) predicts Sequence[Offset+c]; the score is the squared error
// over the window. Committing advances Offset by one.
type Tracking struct {
	Sequence []float64
	Window   int
	Offset   int
}

// NewTracking validates that the sequence covers at least one window.
func NewTracking(sequence []float64, window int) (*Tracking, error) {
	if window <= 0 {
		return nil, fmt.Errorf("tracking window must be positive, got %d", window)
	}
	if len(sequence) < window {
		return nil, fmt.Errorf("tracking sequence has %d values, window needs %d", len(sequence), window)
	}
	return &Tracking{Sequence: append([]float64(nil), sequence...), Window: window}, nil
}

func (t *Tracking) Name() string { return "tracking" }

func (t *Tracking) Shape() (int, int) { return t.Window, 1 }

func (t *Tracking) Maximize() bool { return false }

func (t *Tracking) Evaluate(e *ga.Engine, genome []float64) float64 {
	var sum float64
	for c := 0; c < e.ChromosomeCount(); c++ {
		d := e.ReadGene(genome, c, 0) - t.target(c)
		sum += d * d
	}
	return sum
}

// target returns the value chromosome c should match. Past the end of the
// sequence the last value is held.
func (t *Tracking) target(c int) float64 {
	i := t.Offset + c
	if i >= len(t.Sequence) {
		i = len(t.Sequence) - 1
	}
	return t.Sequence[i]
}

func (t *Tracking) Describe(e *ga.Engine, genome []float64) string {
	parts := make([]string, 0, e.ChromosomeCount())
	for c := 0; c < e.ChromosomeCount(); c++ {
		parts = append(parts, fmt.Sprintf("%.3f/%.3f", e.ReadGene(genome, c, 0), t.target(c)))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Commit moves the window forward; the problem is done once the window has
// covered the last value.
func (t *Tracking) Commit(_ *ga.Engine, _ []float64) bool {
	t.Offset++
	return t.Offset+t.Window > len(t.Sequence)
}
