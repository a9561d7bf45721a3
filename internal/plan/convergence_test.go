package plan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvergenceTracker_Disabled(t *testing.T) {
	c := NewConvergenceTracker(DisabledConvergenceConfig(), false)
	for i := 0; i < 10; i++ {
		assert.False(t, c.Update(1.0))
	}
	assert.Empty(t, c.History())
}

func TestConvergenceTracker_Minimize(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.01}, false)

	assert.False(t, c.Update(100))
	assert.False(t, c.Update(50)) // 50% better
	assert.Equal(t, 0, c.StaleCount())
	assert.False(t, c.Update(49.9)) // 0.2%, below threshold
	assert.Equal(t, 1, c.StaleCount())
	assert.True(t, c.Update(49.8))

	assert.Equal(t, 49.8, c.Best())
	assert.Equal(t, []float64{100, 50, 49.9, 49.8}, c.History())
}

func TestConvergenceTracker_Maximize(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.1}, true)

	assert.False(t, c.Update(10))
	assert.False(t, c.Update(20))
	assert.Equal(t, 20.0, c.Best())

	// A worse value is stale and does not replace the best
	assert.True(t, c.Update(15))
	assert.Equal(t, 20.0, c.Best())
}

func TestConvergenceTracker_ZeroBaseline(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.5}, true)

	assert.False(t, c.Update(0))
	// Absolute improvement of 1 from a zero baseline
	assert.False(t, c.Update(1))
	assert.Equal(t, 0, c.StaleCount())
}

func TestConvergenceTracker_Reset(t *testing.T) {
	c := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.1}, false)
	c.Update(5)
	c.Update(5)

	c.Reset()
	assert.Empty(t, c.History())
	assert.Equal(t, 0, c.StaleCount())
	assert.Equal(t, math.Inf(1), c.Best())
	assert.False(t, c.Update(3))
	assert.Equal(t, 3.0, c.Best())
}

func TestConvergenceTracker_StaleRunReachesPatience(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 3, Threshold: 0.01}, false)
	assert.Equal(t, math.Inf(1), tracker.Best())

	assert.False(t, tracker.Update(1.0))
	assert.False(t, tracker.Update(0.8))
	assert.Equal(t, 0, tracker.StaleCount())

	// Small gains are measured against the last significant value
	assert.False(t, tracker.Update(0.795))
	assert.False(t, tracker.Update(0.796))
	assert.Equal(t, 2, tracker.StaleCount())
	assert.True(t, tracker.Update(0.797))
	assert.Equal(t, 0.795, tracker.Best())
	assert.Equal(t, []float64{1.0, 0.8, 0.795, 0.796, 0.797}, tracker.History())
}

func TestConvergenceTracker_MaximizeSmallGainIsStale(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.1}, true)
	assert.Equal(t, math.Inf(-1), tracker.Best())

	tracker.Update(10)
	tracker.Update(12)
	assert.Equal(t, 0, tracker.StaleCount())
	assert.False(t, tracker.Update(12.5))
	assert.True(t, tracker.Update(11))
	assert.Equal(t, 12.5, tracker.Best())
}

func TestConvergenceTracker_ZeroBaselineMinimize(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.5}, false)
	tracker.Update(0)
	assert.False(t, tracker.Update(-1), "absolute improvement is used from a zero baseline")
	assert.True(t, tracker.Update(-1.2))
}
