package problem

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/cwbudde/superlightga/pkg/ga"
)

func newEngine(t *testing.T, p Problem) *ga.Engine {
	t.Helper()
	chromosomes, genes := p.Shape()
	e, err := ga.New(20, 2, chromosomes, genes, ga.WithSeed(42))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestPerform(t *testing.T) {
	if got := Perform(100, 0.25, 0.9); got != 350 {
		t.Errorf("Expected 350, got %d", got)
	}
	if got := Perform(100, 0.25, 0.1); got != -150 {
		t.Errorf("Expected -150, got %d", got)
	}
	if got := Perform(100, 0.0004, 0.5); got != 100 {
		t.Errorf("Expected rounding to 0 jump, got %d", got)
	}
}

func TestNewJumpFinder_StartWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		j := NewJumpFinder(1234, rng)
		if j.Start < 1234-5000 || j.Start >= 1234+5000 {
			t.Fatalf("Start %d outside target range", j.Start)
		}
		if j.Position != j.Start {
			t.Fatalf("Position should start at Start")
		}
	}
}

func TestJumpFinder_Evaluate(t *testing.T) {
	j := &JumpFinder{Start: 0, Target: 1000, Position: 0, Steps: 2}
	e := newEngine(t, j)

	// First jump lands on the target: nothing is added to the score.
	if score := j.Evaluate(e, []float64{1, 1, 0, 0}); score != 0 {
		t.Errorf("Expected score 0, got %f", score)
	}

	// +500 then +250: 1*500 + 2*250
	if score := j.Evaluate(e, []float64{0.5, 1, 0.25, 1}); score != 1000 {
		t.Errorf("Expected score 1000, got %f", score)
	}

	desc := j.Describe(e, []float64{0.5, 1, 0.25, 0})
	if desc != "+ 500 - 250 = 250" {
		t.Errorf("Unexpected description %q", desc)
	}
}

func TestJumpFinder_Commit(t *testing.T) {
	j := &JumpFinder{Start: 0, Target: 700, Position: 0, Steps: 2}
	e := newEngine(t, j)

	if done := j.Commit(e, []float64{0.5, 1, 0, 0}); done {
		t.Error("Should not be done after first jump")
	}
	if j.Position != 500 {
		t.Errorf("Expected position 500, got %d", j.Position)
	}
	if done := j.Commit(e, []float64{0.2, 1, 0, 0}); !done {
		t.Error("Should be done when reaching target")
	}
}

func TestJumpFinder_Optimizes(t *testing.T) {
	j := NewJumpFinder(1234, rand.New(rand.NewSource(3)))
	e := newEngine(t, j)

	seedScore := -1.0
	fitness := ga.FitnessFunc(func(e *ga.Engine, genome []float64) float64 {
		s := j.Evaluate(e, genome)
		if seedScore < 0 {
			seedScore = s
		}
		return s
	})

	if _, err := e.Run(fitness, ga.RunOptions{MaxGenerations: 200, Timeout: -1}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if e.BestFitness() > seedScore {
		t.Errorf("Best %f worse than seed %f", e.BestFitness(), seedScore)
	}
}

func TestGeneSum(t *testing.T) {
	g := &GeneSum{Chromosomes: 2, Genes: 2}
	e := newEngine(t, g)

	if got := g.Evaluate(e, []float64{0.25, 0.25, 0.5, 1}); got != 2 {
		t.Errorf("Expected 2, got %f", got)
	}
	if desc := g.Describe(e, []float64{0.25, 0.25, 0.5, 1}); !strings.HasSuffix(desc, "sum=2.0000") {
		t.Errorf("Unexpected description %q", desc)
	}
}

func TestTracking(t *testing.T) {
	if _, err := NewTracking([]float64{1, 2}, 3); err == nil {
		t.Error("Expected error for sequence shorter than window")
	}
	if _, err := NewTracking([]float64{1, 2}, 0); err == nil {
		t.Error("Expected error for non-positive window")
	}

	tr, err := NewTracking([]float64{0.1, 0.2, 0.3, 0.4}, 2)
	if err != nil {
		t.Fatalf("NewTracking failed: %v", err)
	}
	e := newEngine(t, tr)

	if got := tr.Evaluate(e, []float64{0.1, 0.2}); got != 0 {
		t.Errorf("Expected exact match to score 0, got %f", got)
	}

	if done := tr.Commit(e, nil); done {
		t.Error("Should not be done at offset 1")
	}
	if got := tr.Evaluate(e, []float64{0.2, 0.3}); got > 1e-12 {
		t.Errorf("Expected window to advance, got score %f", got)
	}
	tr.Commit(e, nil)
	if done := tr.Commit(e, nil); !done {
		t.Error("Should be done once the window passed the end")
	}
	// held at the last value
	if got := tr.target(5); got != 0.4 {
		t.Errorf("Expected held value 0.4, got %f", got)
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		p, err := New(name, Params{}, nil)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Expected name %q, got %q", name, p.Name())
		}
		c, g := p.Shape()
		if c <= 0 || g <= 0 {
			t.Errorf("%s: invalid shape %dx%d", name, c, g)
		}
	}

	if _, err := New("nope", Params{}, nil); err == nil {
		t.Error("Expected error for unknown problem")
	}

	p, err := New("jump", Params{Target: 50, Chromosomes: 3}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c, _ := p.Shape(); c != 3 {
		t.Errorf("Expected 3 chromosomes, got %d", c)
	}
}
