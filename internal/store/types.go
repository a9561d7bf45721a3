package store

import (
	"fmt"
	"time"
)

// EngineConfig is the engine shape and run settings a report was produced
// with. It is a plain copy so the store does not depend on the engine.
type EngineConfig struct {
	Population     int    `json:"population"`
	Survivors      int    `json:"survivors"`
	Chromosomes    int    `json:"chromosomes"`
	Genes          int    `json:"genes"`
	Seed           int64  `json:"seed"`
	Maximize       bool   `json:"maximize"`
	MaxGenerations int    `json:"maxGenerations"`
	Timeout        string `json:"timeout"`
	Shift          bool   `json:"shift"`
}

// Report records the outcome of one finished run.
type Report struct {
	// RunID is the unique identifier of the run
	RunID string `json:"runId"`

	// Problem is the registry name of the fitness functional
	Problem string `json:"problem"`

	// Description renders the best genome in problem terms
	Description string `json:"description,omitempty"`

	// Policy is the name of the GA policy preset
	Policy string `json:"policy"`

	Engine EngineConfig `json:"engine"`

	// BestGenome is survivor 0 after the last generation
	BestGenome  []float64 `json:"bestGenome"`
	BestFitness float64   `json:"bestFitness"`

	// SurvivorFitness holds the scores of all survivors, best first
	SurvivorFitness []float64 `json:"survivorFitness"`

	// Generations is the total across all steps
	Generations int `json:"generations"`

	// Steps is the number of planning steps (1 for a single run)
	Steps int `json:"steps"`

	// Converged is set when the run stopped on stalled fitness
	Converged bool `json:"converged,omitempty"`

	// Solved is set when a stepping problem reported completion
	Solved bool `json:"solved,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// ReportInfo contains report metadata without genome data.
type ReportInfo struct {
	RunID       string    `json:"runId"`
	Problem     string    `json:"problem"`
	Policy      string    `json:"policy"`
	BestFitness float64   `json:"bestFitness"`
	Generations int       `json:"generations"`
	Steps       int       `json:"steps"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToInfo converts a full Report to ReportInfo (metadata only).
func (r *Report) ToInfo() ReportInfo {
	return ReportInfo{
		RunID:       r.RunID,
		Problem:     r.Problem,
		Policy:      r.Policy,
		BestFitness: r.BestFitness,
		Generations: r.Generations,
		Steps:       r.Steps,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks if the report has valid data.
func (r *Report) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.Problem == "" {
		return &ValidationError{Field: "Problem", Reason: "cannot be empty"}
	}
	if len(r.BestGenome) == 0 {
		return &ValidationError{Field: "BestGenome", Reason: "cannot be empty"}
	}
	if r.Engine.Chromosomes <= 0 || r.Engine.Genes <= 0 {
		return &ValidationError{Field: "Engine", Reason: "chromosomes and genes must be positive"}
	}
	if expected := r.Engine.Chromosomes * r.Engine.Genes; len(r.BestGenome) != expected {
		return &ValidationError{
			Field:  "BestGenome",
			Reason: fmt.Sprintf("length mismatch: expected %d genes for %dx%d", expected, r.Engine.Chromosomes, r.Engine.Genes),
		}
	}
	if r.Engine.Survivors <= 0 || r.Engine.Survivors >= r.Engine.Population {
		return &ValidationError{Field: "Engine.Survivors", Reason: "must be in [1, population)"}
	}
	if len(r.SurvivorFitness) != r.Engine.Survivors {
		return &ValidationError{
			Field:  "SurvivorFitness",
			Reason: fmt.Sprintf("expected %d scores, got %d", r.Engine.Survivors, len(r.SurvivorFitness)),
		}
	}
	if r.Generations < 0 {
		return &ValidationError{Field: "Generations", Reason: "cannot be negative"}
	}
	if r.Steps < 0 {
		return &ValidationError{Field: "Steps", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a report validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
