package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cwbudde/superlightga/internal/config"
	"github.com/cwbudde/superlightga/internal/plan"
	"github.com/cwbudde/superlightga/internal/store"
)

var (
	configPath        string
	problemName       string
	target            int
	chromosomes       int
	genes             int
	policyName        string
	fillMode          string
	mutationIntensity float64
	population        int
	survivors         int
	generations       int
	timeout           time.Duration
	steps             int
	noShift           bool
	patience          int
	seed              int64
	save              bool
	trace             bool
	traceGenomes      bool
	runDataDir        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a built-in problem",
	Long: `Runs the engine on a built-in problem, optionally for several planning steps,
and prints the best genome. Settings come from an optional YAML profile;
flags given on the command line override it.`,
	RunE: runOptimization,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML profile path")
	f.StringVar(&problemName, "problem", "jump", "Problem: genesum, jump, tracking")
	f.IntVar(&target, "target", 0, "Jump target (0 = default)")
	f.IntVar(&chromosomes, "chromosomes", 0, "Chromosome count or tracking window (0 = problem default)")
	f.IntVar(&genes, "genes", 0, "Genes per chromosome for genesum (0 = default)")
	f.StringVar(&policyName, "policy", "classic", "Policy preset: classic, reset")
	f.StringVar(&fillMode, "fill", "", "Override the preset fill: random, ones")
	f.Float64Var(&mutationIntensity, "mutation-intensity", 0, "Override the preset mutation intensity")
	f.IntVar(&population, "pop", 50, "Population size")
	f.IntVar(&survivors, "survivors", 5, "Survivors kept per generation")
	f.IntVar(&generations, "generations", 10000, "Max generations per run (0 = seed only, negative = unbounded)")
	f.DurationVar(&timeout, "timeout", 100*time.Millisecond, "Wall-clock budget per run (0 = one generation, negative = unbounded)")
	f.IntVar(&steps, "steps", 1, "Planning steps")
	f.BoolVar(&noShift, "no-shift", false, "Keep survivors aligned between steps")
	f.IntVar(&patience, "patience", 0, "Stop after N steps without improvement (0 = off)")
	f.Int64Var(&seed, "seed", 0, "Random seed")
	f.BoolVar(&save, "save", false, "Archive the report")
	f.BoolVar(&trace, "trace", false, "Write a per-generation trace")
	f.BoolVar(&traceGenomes, "trace-genomes", false, "Include the best genome in trace entries")
	f.StringVar(&runDataDir, "data-dir", "./data", "Base directory for reports and traces")

	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := loadProfile(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = executeRun(ctx, cmd.OutOrStdout(), cfg)
	return err
}

// loadProfile reads the profile at path (or the defaults) and applies the
// flags that were set explicitly.
func loadProfile(path string, flags *pflag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		// Flag defaults apply when there is no profile.
		cfg = config.Default()
		cfg.Output.DataDir = runDataDir
	}

	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "problem":
			cfg.Problem.Name = problemName
		case "target":
			cfg.Problem.Params.Target = target
		case "chromosomes":
			cfg.Problem.Params.Chromosomes = chromosomes
		case "genes":
			cfg.Problem.Params.Genes = genes
		case "policy":
			cfg.Policy.Name = policyName
		case "fill":
			cfg.Policy.Fill = fillMode
		case "mutation-intensity":
			cfg.Policy.MutationIntensity = mutationIntensity
		case "pop":
			cfg.Engine.Population = population
		case "survivors":
			cfg.Engine.Survivors = survivors
		case "generations":
			cfg.Run.SetGenerations(generations)
		case "timeout":
			cfg.Run.SetTimeout(timeout)
		case "steps":
			cfg.Run.Steps = steps
		case "no-shift":
			shift := !noShift
			cfg.Run.Shift = &shift
		case "patience":
			cfg.Convergence.Enabled = patience > 0
			cfg.Convergence.Patience = patience
		case "seed":
			cfg.Seed = seed
		case "save":
			cfg.Output.Save = save
		case "trace":
			cfg.Output.Trace = trace
		case "trace-genomes":
			cfg.Output.TraceGenomes = traceGenomes
		case "data-dir":
			cfg.Output.DataDir = runDataDir
		}
	})

	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// executeRun solves the configured problem and writes a summary to out. The
// report is returned even when it was not archived.
func executeRun(ctx context.Context, out io.Writer, cfg *config.Config) (*store.Report, error) {
	p, err := cfg.NewProblem()
	if err != nil {
		return nil, err
	}
	sc, err := cfg.SessionConfig()
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()

	var st *store.FSStore
	if cfg.Output.Save || cfg.Output.Trace {
		st, err = store.NewFSStore(cfg.Output.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create store: %w", err)
		}
	}

	var opts []plan.Option
	if cfg.Output.Trace {
		tw, err := store.NewTraceWriter(st.BaseDir(), runID, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace: %w", err)
		}
		defer tw.Close()
		opts = append(opts, plan.WithTrace(tw))
	}

	session, err := plan.NewSession(p, sc, opts...)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting run",
		"run_id", runID,
		"problem", p.Name(),
		"policy", sc.Policy.Name,
		"population", sc.Population,
		"survivors", sc.Survivors,
		"steps", sc.Steps,
	)

	start := time.Now()
	res, err := session.Solve(ctx, sc.Steps, func(sr plan.StepResult) {
		if sc.Steps > 1 {
			fmt.Fprintf(out, "step %3d  gens %6d  best %-12.6g %s\n", sr.Step, sr.Generations, sr.BestFitness, sr.Description)
		}
	})
	if err != nil {
		fmt.Fprintf(out, "Interrupted after %d step(s): %s\n", res.Steps, res.Description)
		return nil, err
	}
	elapsed := time.Since(start)

	report := session.Report(runID, res)
	if cfg.Output.Save {
		if err := st.SaveReport(runID, report); err != nil {
			return nil, fmt.Errorf("failed to save report: %w", err)
		}
	}

	fmt.Fprintf(out, "Best: %s\n", res.Description)
	fmt.Fprintf(out, "Fitness %.6g after %d generation(s) in %d step(s), %s\n",
		res.BestFitness, res.Generations, res.Steps, elapsed.Round(time.Millisecond))
	if res.Solved {
		fmt.Fprintln(out, "Solved.")
	}
	if res.Converged {
		fmt.Fprintln(out, "Stopped: converged.")
	}
	if cfg.Output.Save {
		fmt.Fprintf(out, "Saved run %s\n", runID)
	}

	return report, nil
}
