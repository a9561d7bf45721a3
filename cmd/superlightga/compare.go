package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/superlightga/internal/opt"
	"github.com/cwbudde/superlightga/pkg/ga"
)

var (
	benchmarkName    string
	compareDim       int
	compareIters     int
	comparePop       int
	compareSurvivors int
	compareSeed      int64
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the GA with the mayfly baseline",
	Long: `Runs both GA presets and the mayfly optimizer concurrently on a benchmark
function and prints their best costs.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&benchmarkName, "benchmark", "sphere", "Benchmark: ackley, rastrigin, rosenbrock, sphere")
	compareCmd.Flags().IntVar(&compareDim, "dim", 5, "Dimensions")
	compareCmd.Flags().IntVar(&compareIters, "iters", 200, "Generations (GA) and iterations (mayfly)")
	compareCmd.Flags().IntVar(&comparePop, "pop", 40, "Population size")
	compareCmd.Flags().IntVar(&compareSurvivors, "survivors", 4, "GA survivors")
	compareCmd.Flags().Int64Var(&compareSeed, "seed", 42, "Random seed")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return executeCompare(ctx, cmd.OutOrStdout(), benchmarkName, compareDim)
}

func compareOptimizers() map[string]opt.Optimizer {
	reset := &opt.GAAdapter{
		Population:  comparePop,
		Survivors:   compareSurvivors,
		Generations: compareIters,
		Timeout:     -1,
		Seed:        compareSeed,
		Policy:      ga.ResetPolicy(),
	}
	return map[string]opt.Optimizer{
		"ga-classic": opt.NewGA(compareIters, comparePop, compareSurvivors, compareSeed),
		"ga-reset":   reset,
		"mayfly":     opt.NewMayfly(compareIters, comparePop, compareSeed),
	}
}

func executeCompare(ctx context.Context, out io.Writer, name string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("dim must be positive, got %d", dim)
	}
	b, err := opt.BenchmarkByName(name)
	if err != nil {
		return err
	}
	lower, upper := b.Bounds(dim)

	outcomes, err := opt.Compare(ctx, b.Eval, lower, upper, dim, compareOptimizers())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s), %d dimensions\n\n", b.Name, b.Description, dim)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPTIMIZER\tBEST COST\tELAPSED")
	fmt.Fprintln(w, "---------\t---------\t-------")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%s\t%.6g\t%s\n", o.Name, o.Cost, o.Elapsed.Round(time.Microsecond))
	}
	return w.Flush()
}
