package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/cwbudde/superlightga/internal/config"
	"github.com/cwbudde/superlightga/internal/store"
)

// testFlags binds a subset of the run flags to a fresh flag set
func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.StringVar(&problemName, "problem", "jump", "")
	fs.IntVar(&population, "pop", 50, "")
	fs.IntVar(&survivors, "survivors", 5, "")
	fs.IntVar(&generations, "generations", 10000, "")
	fs.DurationVar(&timeout, "timeout", 100*time.Millisecond, "")
	fs.BoolVar(&noShift, "no-shift", false, "")
	fs.IntVar(&patience, "patience", 0, "")
	fs.Int64Var(&seed, "seed", 0, "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	return fs
}

func TestLoadProfile_FlagsOnly(t *testing.T) {
	cfg, err := loadProfile("", testFlags(t, "--problem", "genesum", "--pop", "20", "--survivors", "4", "--no-shift", "--patience", "3"))
	if err != nil {
		t.Fatalf("loadProfile failed: %v", err)
	}

	if cfg.Problem.Name != "genesum" || cfg.Engine.Population != 20 || cfg.Engine.Survivors != 4 {
		t.Errorf("Flags not applied: %+v", cfg)
	}
	if cfg.Run.Shift == nil || *cfg.Run.Shift {
		t.Error("Expected shift disabled")
	}
	if !cfg.Convergence.Enabled || cfg.Convergence.Patience != 3 || cfg.Convergence.Threshold == 0 {
		t.Errorf("Expected convergence with defaults, got %+v", cfg.Convergence)
	}
	if cfg.Run.Generations() != 10000 {
		t.Errorf("Expected default generations, got %d", cfg.Run.Generations())
	}
}

func TestLoadProfile_FlagsOverrideProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	profile := "seed: 7\nproblem:\n  name: tracking\nengine:\n  population: 30\n  survivors: 3\n"
	if err := os.WriteFile(path, []byte(profile), 0644); err != nil {
		t.Fatalf("Failed to write profile: %v", err)
	}

	cfg, err := loadProfile(path, testFlags(t, "--pop", "60"))
	if err != nil {
		t.Fatalf("loadProfile failed: %v", err)
	}

	if cfg.Engine.Population != 60 {
		t.Errorf("Flag should override profile population, got %d", cfg.Engine.Population)
	}
	// Unset flags keep the profile values, not the flag defaults
	if cfg.Problem.Name != "tracking" || cfg.Engine.Survivors != 3 || cfg.Seed != 7 {
		t.Errorf("Profile values lost: %+v", cfg)
	}
}

func TestLoadProfile_ZeroGenerationsAndTimeout(t *testing.T) {
	cfg, err := loadProfile("", testFlags(t, "--problem", "genesum", "--generations", "0", "--timeout", "0s"))
	if err != nil {
		t.Fatalf("loadProfile failed: %v", err)
	}
	if cfg.Run.Generations() != 0 || cfg.Run.RunTimeout() != 0 {
		t.Errorf("Explicit zero flags should be kept, got %d generations, %v timeout", cfg.Run.Generations(), cfg.Run.RunTimeout())
	}

	report, err := executeRun(context.Background(), &bytes.Buffer{}, cfg)
	if err != nil {
		t.Fatalf("executeRun failed: %v", err)
	}
	if report.Generations != 0 {
		t.Errorf("Expected a seed-only run, got %d generations", report.Generations)
	}
}

func TestLoadProfile_Invalid(t *testing.T) {
	if _, err := loadProfile("", testFlags(t, "--pop", "4", "--survivors", "4")); err == nil {
		t.Error("Expected error when survivors equal population")
	}
	if _, err := loadProfile(filepath.Join(t.TempDir(), "missing.yaml"), testFlags(t)); err == nil {
		t.Error("Expected error for missing profile")
	}
}

func TestExecuteRun(t *testing.T) {
	cfg := config.Default()
	cfg.Problem.Name = "genesum"
	cfg.Engine.Population = 12
	cfg.Engine.Survivors = 3
	cfg.Run.SetGenerations(20)
	cfg.Run.SetTimeout(-1)
	cfg.Output.DataDir = t.TempDir()
	cfg.Output.Save = true
	cfg.Output.Trace = true

	var out bytes.Buffer
	report, err := executeRun(context.Background(), &out, cfg)
	if err != nil {
		t.Fatalf("executeRun failed: %v", err)
	}

	if report.Generations != 20 || report.Steps != 1 || report.Problem != "genesum" {
		t.Errorf("Unexpected report: %+v", report)
	}
	if !strings.Contains(out.String(), "Best:") || !strings.Contains(out.String(), "Saved run "+report.RunID) {
		t.Errorf("Unexpected output: %s", out.String())
	}

	st, err := store.NewFSStore(cfg.Output.DataDir)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if _, err := st.LoadReport(report.RunID); err != nil {
		t.Errorf("Report should be archived: %v", err)
	}

	reader, err := store.NewTraceReader(cfg.Output.DataDir, report.RunID)
	if err != nil {
		t.Fatalf("Trace should exist: %v", err)
	}
	defer reader.Close()
	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read trace: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("Expected 20 trace entries, got %d", len(entries))
	}
}

func TestExecuteRun_Steps(t *testing.T) {
	cfg := config.Default()
	cfg.Problem.Name = "tracking"
	cfg.Problem.Params.Chromosomes = 2
	cfg.Problem.Params.Sequence = []float64{0.2, 0.4, 0.6}
	cfg.Engine.Population = 10
	cfg.Engine.Survivors = 2
	cfg.Run.SetGenerations(10)
	cfg.Run.SetTimeout(-1)
	cfg.Run.Steps = 5

	var out bytes.Buffer
	report, err := executeRun(context.Background(), &out, cfg)
	if err != nil {
		t.Fatalf("executeRun failed: %v", err)
	}

	if !report.Solved || report.Steps != 2 {
		t.Errorf("Expected solved after 2 steps, got solved=%v steps=%d", report.Solved, report.Steps)
	}
	if strings.Count(out.String(), "step ") != 2 {
		t.Errorf("Expected one line per step: %s", out.String())
	}
}

func TestExecuteRun_Cancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Run.SetGenerations(-1)
	cfg.Run.SetTimeout(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if _, err := executeRun(ctx, &out, cfg); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
