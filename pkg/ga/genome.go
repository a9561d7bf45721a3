package ga

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// NewGenome allocates a zeroed genome of the configured length.
func (e *Engine) NewGenome() []float64 {
	return make([]float64, e.GenomeLength())
}

// chromosome returns the genes of chromosome c inside genome. It panics with a
// *ShapeError when c is outside the configured shape or the genome is too short.
func (e *Engine) chromosome(op string, genome []float64, c int) []float64 {
	if c < 0 || c >= e.chromosomeCount {
		panic(&ShapeError{
			Op:     op,
			Reason: fmt.Sprintf("chromosome index %d out of range [0,%d)", c, e.chromosomeCount),
		})
	}
	start := c * e.geneCount
	end := start + e.geneCount
	if len(genome) < end {
		panic(&ShapeError{
			Op:     op,
			Reason: fmt.Sprintf("genome has %d genes, chromosome %d needs %d", len(genome), c, end),
		})
	}
	return genome[start:end:end]
}

// GenerateRandomChromosome fills chromosome c with uniform draws in [0,1).
func (e *Engine) GenerateRandomChromosome(genome []float64, c int) {
	genes := e.chromosome("generate random chromosome", genome, c)
	for i := range genes {
		genes[i] = e.rng.Float64()
	}
}

// GenerateDefaultChromosome copies the default chromosome template into
// chromosome c, or applies the policy fill when no template is set.
func (e *Engine) GenerateDefaultChromosome(genome []float64, c int) {
	genes := e.chromosome("generate default chromosome", genome, c)
	if e.defaultChromosome != nil {
		copy(genes, e.defaultChromosome)
		return
	}
	switch e.policy.Fill {
	case FillOnes:
		for i := range genes {
			genes[i] = 1
		}
	default:
		for i := range genes {
			genes[i] = e.rng.Float64()
		}
	}
}

// GenerateDefaultGenome applies GenerateDefaultChromosome to every chromosome.
func (e *Engine) GenerateDefaultGenome(genome []float64) {
	for c := 0; c < e.chromosomeCount; c++ {
		e.GenerateDefaultChromosome(genome, c)
	}
}

// GenerateRandomGenome applies GenerateRandomChromosome to every chromosome.
func (e *Engine) GenerateRandomGenome(genome []float64) {
	for c := 0; c < e.chromosomeCount; c++ {
		e.GenerateRandomChromosome(genome, c)
	}
}

// MutateChromosome perturbs every gene of chromosome c using the policy's
// mutation law.
func (e *Engine) MutateChromosome(genome []float64, c int, intensity float64) {
	genes := e.chromosome("mutate chromosome", genome, c)
	e.policy.Mutation.Mutate(e.rng, genes, intensity)
}

// ReadGene returns gene g of chromosome c.
func (e *Engine) ReadGene(genome []float64, c, g int) float64 {
	if g < 0 || g >= e.geneCount {
		panic(&ShapeError{
			Op:     "read gene",
			Reason: fmt.Sprintf("gene index %d out of range [0,%d)", g, e.geneCount),
		})
	}
	return e.chromosome("read gene", genome, c)[g]
}

// FormatGenome renders a genome as chromosome groups, e.g. "(0.5 1)(0 0.25)".
func (e *Engine) FormatGenome(genome []float64) string {
	var b strings.Builder
	for c := 0; c < e.chromosomeCount; c++ {
		genes := e.chromosome("format genome", genome, c)
		b.WriteByte('(')
		for i, v := range genes {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// PrintGenome writes FormatGenome(genome) followed by a newline.
func (e *Engine) PrintGenome(w io.Writer, genome []float64) error {
	_, err := fmt.Fprintln(w, e.FormatGenome(genome))
	return err
}
