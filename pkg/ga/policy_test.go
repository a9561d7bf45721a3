package ga

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearSchedule_Classic(t *testing.T) {
	schedule := ClassicPolicy().Schedule

	c, m := schedule.Rates(0)
	assert.InDelta(t, 0.5, c, 1e-12)
	assert.InDelta(t, 0.5, m, 1e-12)

	c, m = schedule.Rates(3)
	assert.InDelta(t, 0.65, c, 1e-12)
	assert.InDelta(t, 0.44, m, 1e-12)

	c, m = schedule.Rates(1000)
	assert.InDelta(t, 0.75, c, 1e-12)
	assert.InDelta(t, 0.01, m, 1e-12)
}

func TestLinearSchedule_Reset(t *testing.T) {
	c, m := ResetPolicy().Schedule.Rates(1000)
	assert.InDelta(t, 0.8, c, 1e-12)
	assert.InDelta(t, 0.05, m, 1e-12)
}

func TestOperatorThresholds(t *testing.T) {
	crossAt, mutateAt := operatorThresholds(0.5, 0.5)
	assert.InDelta(t, 0.5, crossAt, 1e-12)
	assert.InDelta(t, 0.75, mutateAt, 1e-12)

	crossAt, mutateAt = operatorThresholds(1.5, -1)
	assert.Equal(t, 1.0, crossAt)
	assert.Equal(t, 1.0, mutateAt)

	crossAt, mutateAt = operatorThresholds(0, 1)
	assert.Equal(t, 0.0, crossAt)
	assert.Equal(t, 1.0, mutateAt)
}

func TestBiasedReduction(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	genes := []float64{0, 0.25, 0.5, 0.75, 1}

	unchanged := append([]float64(nil), genes...)
	BiasedReduction{}.Mutate(rng, unchanged, 0)
	assert.Equal(t, genes, unchanged)

	var below, above int
	for i := 0; i < 2000; i++ {
		g := []float64{0.5}
		BiasedReduction{}.Mutate(rng, g, 1)
		require.GreaterOrEqual(t, g[0], 0.0)
		require.LessOrEqual(t, g[0], 1.0)
		if g[0] < 0.5 {
			below++
		} else {
			above++
		}
	}
	// 0.5 - r² < 0 has probability 1 - sqrt(0.5) ≈ 0.29 per draw
	assert.Less(t, below, above)
	assert.Positive(t, below)
}

func TestProbabilisticReset(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	genes := []float64{2, 2, 2}
	ProbabilisticReset{}.Mutate(rng, genes, 0)
	assert.Equal(t, []float64{2, 2, 2}, genes)

	ProbabilisticReset{}.Mutate(rng, genes, 1)
	for _, g := range genes {
		assert.GreaterOrEqual(t, g, 0.0)
		assert.Less(t, g, 1.0)
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("Classic")
	require.NoError(t, err)
	assert.Equal(t, "classic", p.Name)
	assert.Equal(t, FillRandom, p.Fill)

	p, err = PolicyByName("reset")
	require.NoError(t, err)
	assert.Equal(t, FillOnes, p.Fill)
	assert.Equal(t, "probabilistic_reset", p.Mutation.Name())

	_, err = PolicyByName("annealing")
	assert.Error(t, err)

	assert.Equal(t, []string{"classic", "reset"}, PolicyNames())
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, ClassicPolicy().Validate())

	p := ClassicPolicy()
	p.MutationIntensity = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidConfig)

	p = ClassicPolicy()
	p.Fill = FillMode(9)
	assert.ErrorIs(t, p.Validate(), ErrInvalidConfig)

	p = ClassicPolicy()
	p.Schedule = nil
	assert.ErrorIs(t, p.Validate(), ErrInvalidConfig)
}

func TestParseFillMode(t *testing.T) {
	f, err := ParseFillMode(" Ones ")
	require.NoError(t, err)
	assert.Equal(t, FillOnes, f)
	assert.Equal(t, "random", FillRandom.String())

	_, err = ParseFillMode("zeros")
	assert.Error(t, err)
}
