package store

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func createTestReport(runID string) *Report {
	return &Report{
		RunID:       runID,
		Problem:     "genesum",
		Description: "(0 0)(0.1 0) sum=0.1000",
		Policy:      "classic",
		Engine: EngineConfig{
			Population:     10,
			Survivors:      2,
			Chromosomes:    2,
			Genes:          2,
			Seed:           42,
			MaxGenerations: 50,
			Timeout:        "100ms",
			Shift:          true,
		},
		BestGenome:      []float64{0, 0, 0.1, 0},
		BestFitness:     0.1,
		SurvivorFitness: []float64{0.1, 0.3},
		Generations:     50,
		Steps:           1,
		Timestamp:       time.Now(),
	}
}

func TestReport_JSONSerialization(t *testing.T) {
	original := createTestReport("test-run")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal report: %v", err)
	}

	for _, key := range []string{`"runId"`, `"bestGenome"`, `"survivorFitness"`, `"maxGenerations"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Expected JSON to contain %s", key)
		}
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal report: %v", err)
	}
	if err := decoded.Validate(); err != nil {
		t.Errorf("Decoded report should validate: %v", err)
	}
	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp mismatch: %v vs %v", decoded.Timestamp, original.Timestamp)
	}
}

func TestReport_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *Report)
		field  string
	}{
		{"valid", func(r *Report) {}, ""},
		{"empty run id", func(r *Report) { r.RunID = "" }, "RunID"},
		{"empty problem", func(r *Report) { r.Problem = "" }, "Problem"},
		{"nil genome", func(r *Report) { r.BestGenome = nil }, "BestGenome"},
		{"genome length", func(r *Report) { r.BestGenome = []float64{0, 1, 2} }, "BestGenome"},
		{"zero genes", func(r *Report) { r.Engine.Genes = 0 }, "Engine"},
		{"survivors too many", func(r *Report) { r.Engine.Survivors = 10 }, "Engine.Survivors"},
		{"survivor scores", func(r *Report) { r.SurvivorFitness = []float64{0.1} }, "SurvivorFitness"},
		{"negative generations", func(r *Report) { r.Generations = -1 }, "Generations"},
		{"negative steps", func(r *Report) { r.Steps = -1 }, "Steps"},
		{"zero timestamp", func(r *Report) { r.Timestamp = time.Time{} }, "Timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := createTestReport("test-run")
			tt.modify(r)
			err := r.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Expected valid report, got %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestReport_ToInfo(t *testing.T) {
	r := createTestReport("info-run")
	info := r.ToInfo()

	if info.RunID != r.RunID || info.Problem != r.Problem || info.Policy != r.Policy {
		t.Errorf("Identity fields not copied: %+v", info)
	}
	if info.BestFitness != r.BestFitness {
		t.Errorf("Expected best fitness %f, got %f", r.BestFitness, info.BestFitness)
	}
	if info.Generations != r.Generations || info.Steps != r.Steps {
		t.Errorf("Counters not copied: %+v", info)
	}
	if !info.Timestamp.Equal(r.Timestamp) {
		t.Error("Timestamp not copied")
	}
}
