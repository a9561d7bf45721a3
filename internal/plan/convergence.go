package plan

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines when a session counts as stalled.
type ConvergenceConfig struct {
	// Enabled controls whether convergence detection is active
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Patience is the number of steps with no significant improvement before
	// the session stops
	Patience int `yaml:"patience" json:"patience"`

	// Threshold is the minimum relative improvement required to count as
	// progress. Example: 0.001 = 0.1% improvement required.
	// Relative improvement = (old - new) / |old| when minimizing. When the old
	// value is 0 the absolute improvement is used.
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// DefaultConvergenceConfig returns sensible defaults for convergence detection
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  5,
		Threshold: 0.001,
	}
}

// DisabledConvergenceConfig returns a config with convergence detection disabled
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled: false,
	}
}

// ConvergenceTracker tracks the best fitness per step and detects when the
// search has stalled.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	maximize        bool
	history         []float64
	best            float64
	lastSignificant float64
	staleCount      int
	logger          *slog.Logger
}

// NewConvergenceTracker creates a tracker for the given optimization direction.
func NewConvergenceTracker(config ConvergenceConfig, maximize bool) *ConvergenceTracker {
	c := &ConvergenceTracker{
		config:   config,
		maximize: maximize,
		logger:   slog.Default(),
	}
	c.Reset()
	return c
}

func (c *ConvergenceTracker) worst() float64 {
	if c.maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// improvement returns how much better next is than prev, relative to |prev|.
func (c *ConvergenceTracker) improvement(prev, next float64) float64 {
	delta := prev - next
	if c.maximize {
		delta = next - prev
	}
	if scale := math.Abs(prev); scale > 0 {
		return delta / scale
	}
	return delta
}

// Update records a new best fitness and returns true if convergence is detected
func (c *ConvergenceTracker) Update(fitness float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, fitness)

	if c.improvement(c.best, fitness) > 0 || math.IsInf(c.best, 0) {
		c.best = fitness
	}

	if len(c.history) == 1 {
		c.lastSignificant = fitness
		return false
	}

	relative := c.improvement(c.lastSignificant, fitness)
	if relative >= c.config.Threshold {
		c.lastSignificant = fitness
		c.staleCount = 0
		c.logger.Debug("Fitness improvement detected",
			"fitness", fitness,
			"relative_improvement", relative,
		)
		return false
	}

	c.staleCount++
	c.logger.Debug("No significant fitness improvement",
		"fitness", fitness,
		"last_significant", c.lastSignificant,
		"relative_improvement", relative,
		"stale_count", c.staleCount,
		"patience", c.config.Patience,
	)

	if c.staleCount >= c.config.Patience {
		c.logger.Info("Convergence detected - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_fitness", c.best,
		)
		return true
	}
	return false
}

// Best returns the best fitness seen so far
func (c *ConvergenceTracker) Best() float64 {
	return c.best
}

// History returns a copy of the recorded fitness values
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of steps without improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state
func (c *ConvergenceTracker) Reset() {
	c.history = []float64{}
	c.best = c.worst()
	c.lastSignificant = c.worst()
	c.staleCount = 0
}
