package ga

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name                                  string
		population, survivors, chroms, genes int
		field                                 string
	}{
		{"zero population", 0, 1, 1, 1, "population"},
		{"zero survivors", 10, 0, 1, 1, "survivalCount"},
		{"survivors equal population", 4, 4, 1, 1, "survivalCount"},
		{"survivors above population", 4, 5, 1, 1, "survivalCount"},
		{"negative chromosomes", 10, 2, -1, 1, "chromosomeCount"},
		{"zero genes", 10, 2, 3, 0, "geneCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := New(tt.population, tt.survivors, tt.chroms, tt.genes)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNew_IncompletePolicy(t *testing.T) {
	_, err := New(10, 2, 3, 1, WithPolicy(Policy{Mutation: BiasedReduction{}}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestInitialize_AllocatesBuffers(t *testing.T) {
	configs := [][4]int{{10, 2, 3, 1}, {50, 2, 5, 2}, {3, 1, 1, 7}}
	for _, cfg := range configs {
		e, err := New(cfg[0], cfg[1], cfg[2], cfg[3])
		require.NoError(t, err)

		length := cfg[2] * cfg[3]
		assert.Equal(t, length, e.GenomeLength())
		require.Len(t, e.survivors, cfg[1])
		require.Len(t, e.survivorScores, cfg[1])
		require.Len(t, e.genomes, cfg[0])
		require.Len(t, e.scores, cfg[0])
		for _, g := range e.survivors {
			assert.Len(t, g, length)
		}
		for _, g := range e.genomes {
			assert.Len(t, g, length)
		}
		assert.False(t, e.Seeded())
	}
}

func TestInitialize_ResetsState(t *testing.T) {
	e, err := New(10, 2, 3, 1, WithSeed(1))
	require.NoError(t, err)
	require.NoError(t, e.SetDefaultChromosome([]float64{0.3}))

	_, err = e.Run(geneSum(), RunOptions{MaxGenerations: 2, Timeout: -1})
	require.NoError(t, err)
	require.True(t, e.Seeded())

	require.NoError(t, e.Initialize(6, 1, 2, 2))
	assert.False(t, e.Seeded())
	assert.Nil(t, e.DefaultChromosome())
	assert.Equal(t, 4, e.GenomeLength())
	assert.Len(t, e.Survivors(), 1)
}

func TestZeroEngine_Initialize(t *testing.T) {
	var e Engine
	require.NoError(t, e.Initialize(5, 1, 2, 1))
	assert.Equal(t, "classic", e.Policy().Name)

	n, err := e.Run(geneSum(), RunOptions{MaxGenerations: 1, Timeout: -1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSetDefaultChromosome(t *testing.T) {
	e, err := New(10, 2, 3, 2)
	require.NoError(t, err)

	err = e.SetDefaultChromosome([]float64{0.1})
	require.Error(t, err)
	var shapeErr *ShapeError
	assert.True(t, errors.As(err, &shapeErr))

	template := []float64{0.25, 0.75}
	require.NoError(t, e.SetDefaultChromosome(template))
	template[0] = 0.9 // the engine keeps its own copy

	genome := e.NewGenome()
	e.GenerateDefaultGenome(genome)
	assert.Equal(t, []float64{0.25, 0.75, 0.25, 0.75, 0.25, 0.75}, genome)

	require.NoError(t, e.SetDefaultChromosome(nil))
	assert.Nil(t, e.DefaultChromosome())
}

func TestGenerateDefaultChromosome_FillOnes(t *testing.T) {
	e, err := New(10, 2, 3, 2, WithPolicy(ResetPolicy()))
	require.NoError(t, err)

	genome := e.NewGenome()
	e.GenerateDefaultChromosome(genome, 1)
	assert.Equal(t, []float64{0, 0, 1, 1, 0, 0}, genome)
}

func TestGenerateRandomGenome_InUnitRange(t *testing.T) {
	e, err := New(10, 2, 4, 3, WithSeed(9))
	require.NoError(t, err)

	genome := e.NewGenome()
	e.GenerateRandomGenome(genome)
	for i, v := range genome {
		assert.GreaterOrEqual(t, v, 0.0, "gene %d", i)
		assert.Less(t, v, 1.0, "gene %d", i)
	}
}

func TestReadGene(t *testing.T) {
	e, err := New(10, 2, 3, 2)
	require.NoError(t, err)

	genome := []float64{0, 1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, e.ReadGene(genome, 1, 1))
	assert.Equal(t, 4.0, e.ReadGene(genome, 2, 0))
}

func TestShapeViolationsPanic(t *testing.T) {
	e, err := New(10, 2, 3, 2)
	require.NoError(t, err)

	genome := e.NewGenome()
	assert.Panics(t, func() { e.ReadGene(genome, 3, 0) })
	assert.Panics(t, func() { e.ReadGene(genome, 0, 2) })
	assert.Panics(t, func() { e.ReadGene(genome, -1, 0) })
	assert.Panics(t, func() { e.MutateChromosome(genome[:4], 2, 1) })
	assert.Panics(t, func() { e.GenerateDefaultGenome(genome[:5]) })

	defer func() {
		r := recover()
		require.NotNil(t, r)
		perr, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(perr, &ShapeError{}))
	}()
	e.GenerateRandomChromosome(genome[:2], 1)
}

func TestMutateChromosome_OnlyTouchesAddressedChromosome(t *testing.T) {
	e, err := New(10, 2, 3, 2, WithSeed(3), WithPolicy(Policy{
		Name:              "always",
		Mutation:          ProbabilisticReset{},
		MutationIntensity: 1,
		Schedule:          ClassicPolicy().Schedule,
	}))
	require.NoError(t, err)

	genome := []float64{5, 5, 5, 5, 5, 5}
	e.MutateChromosome(genome, 1, 1)
	assert.Equal(t, []float64{5, 5}, genome[:2])
	assert.Equal(t, []float64{5, 5}, genome[4:])
	assert.Less(t, genome[2], 1.0)
	assert.Less(t, genome[3], 1.0)
}

func TestFormatGenome(t *testing.T) {
	e, err := New(10, 2, 2, 2)
	require.NoError(t, err)

	genome := []float64{0.5, 1, 0, 0.25}
	assert.Equal(t, "(0.5 1)(0 0.25)", e.FormatGenome(genome))

	var buf bytes.Buffer
	require.NoError(t, e.PrintGenome(&buf, genome))
	assert.Equal(t, "(0.5 1)(0 0.25)\n", buf.String())
}

func TestAccessorsReturnCopies(t *testing.T) {
	e, err := New(10, 2, 3, 1, WithRand(rand.New(rand.NewSource(5))))
	require.NoError(t, err)
	_, err = e.Run(geneSum(), RunOptions{MaxGenerations: 3, Timeout: -1})
	require.NoError(t, err)

	best := e.BestGenome()
	best[0] = 42
	assert.NotEqual(t, 42.0, e.BestGenome()[0])

	survivors := e.Survivors()
	survivors[1][0] = 42
	assert.NotEqual(t, 42.0, e.Survivors()[1][0])

	scores := e.SurvivorFitness()
	scores[0] = 42
	assert.Equal(t, e.BestFitness(), e.SurvivorFitness()[0])
}
