// Package plan drives an engine over repeated runs. Each step runs the engine
// once, reports the best genome and, for stepping problems, commits its first
// chromosome before the survivors are shifted for the next step.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/superlightga/internal/problem"
	"github.com/cwbudde/superlightga/internal/store"
	"github.com/cwbudde/superlightga/pkg/ga"
)

// ErrFinished is returned by Step once the problem is solved or the session
// has converged.
var ErrFinished = errors.New("plan: session finished")

// Config holds the engine shape and stopping rules of a session. The genome
// shape and direction come from the problem.
type Config struct {
	Population  int
	Survivors   int
	Policy      ga.Policy
	Seed        int64
	Run         ga.RunOptions
	Steps       int
	Convergence ConvergenceConfig

	// TraceGenomes stores the best genome with every trace entry
	TraceGenomes bool
}

// DefaultConfig returns a config for a single 100ms run of 50 genomes.
func DefaultConfig() Config {
	run := ga.DefaultRunOptions()
	return Config{
		Population:  50,
		Survivors:   5,
		Policy:      ga.ClassicPolicy(),
		Run:         run,
		Steps:       1,
		Convergence: DisabledConvergenceConfig(),
	}
}

// TraceSink receives one entry per generation. *store.TraceWriter implements it.
type TraceSink interface {
	Write(entry store.TraceEntry) error
}

// StepResult describes one planning step.
type StepResult struct {
	Step        int           `json:"step"`
	Generations int           `json:"generations"`
	BestFitness float64       `json:"bestFitness"`
	Decision    []float64     `json:"decision"`
	Description string        `json:"description"`
	Done        bool          `json:"done"`
	Converged   bool          `json:"converged"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Result summarizes a finished Solve.
type Result struct {
	Steps           int
	Generations     int
	BestGenome      []float64
	BestFitness     float64
	SurvivorFitness []float64
	Description     string
	Solved          bool
	Converged       bool
	History         []StepResult
}

// Option configures a Session.
type Option func(*Session)

// WithTrace sends one entry per generation to sink.
func WithTrace(sink TraceSink) Option {
	return func(s *Session) {
		s.trace = sink
	}
}

// WithLogger sets the logger of the session and its engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithGenerationObserver is called after every generation with the current step.
func WithGenerationObserver(fn func(step int, stats ga.GenerationStats)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithEngineOptions passes extra options to the engine, e.g. a test clock.
func WithEngineOptions(opts ...ga.Option) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// Session owns an engine bound to one problem.
type Session struct {
	engine     *ga.Engine
	problem    problem.Problem
	stepper    problem.Stepper
	cfg        Config
	tracker    *ConvergenceTracker
	trace      TraceSink
	traceErr   error
	observer   func(step int, stats ga.GenerationStats)
	engineOpts []ga.Option
	logger     *slog.Logger

	step        int
	generations int
	finished    bool
	solved      bool
	converged   bool
}

// NewSession builds the engine for p. cfg.Run.Maximize is taken from the
// problem.
func NewSession(p problem.Problem, cfg Config, opts ...Option) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("problem cannot be nil")
	}

	s := &Session{
		problem: p,
		cfg:     cfg,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.Run.Maximize = p.Maximize()
	s.stepper, _ = p.(problem.Stepper)
	if s.stepper == nil {
		// Without commits the survivors stay aligned with the problem.
		s.cfg.Run.ShiftOnReuse = false
	}

	engineOpts := []ga.Option{
		ga.WithSeed(cfg.Seed),
		ga.WithLogger(s.logger),
		ga.WithGenerationHook(s.onGeneration),
	}
	if cfg.Policy.Mutation != nil || cfg.Policy.Schedule != nil {
		engineOpts = append(engineOpts, ga.WithPolicy(cfg.Policy))
	}
	engineOpts = append(engineOpts, s.engineOpts...)

	chromosomes, genes := p.Shape()
	engine, err := ga.New(cfg.Population, cfg.Survivors, chromosomes, genes, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	s.engine = engine
	s.tracker = NewConvergenceTracker(cfg.Convergence, p.Maximize())
	s.tracker.logger = s.logger
	return s, nil
}

// Engine returns the underlying engine.
func (s *Session) Engine() *ga.Engine { return s.engine }

// Problem returns the problem being optimized.
func (s *Session) Problem() problem.Problem { return s.problem }

// Config returns the effective session config.
func (s *Session) Config() Config { return s.cfg }

// Finished reports whether further steps are rejected.
func (s *Session) Finished() bool { return s.finished }

func (s *Session) onGeneration(stats ga.GenerationStats) {
	if s.observer != nil {
		s.observer(s.step, stats)
	}
	if s.trace == nil || s.traceErr != nil {
		return
	}

	entry := store.TraceEntry{
		Step:        s.step,
		Generation:  stats.Generation,
		Fitness:     stats.BestFitness,
		Evaluations: stats.Evaluations,
		Timestamp:   time.Now(),
	}
	if s.cfg.TraceGenomes {
		entry.Genome = s.engine.BestGenome()
	}
	if err := s.trace.Write(entry); err != nil {
		s.logger.Warn("Failed to write trace entry", "step", s.step, "error", err)
		s.traceErr = err
	}
}

// Step runs the engine once and commits the decision for stepping problems.
// When ctx is cancelled the partial result is returned with ctx's error and
// nothing is committed.
func (s *Session) Step(ctx context.Context) (StepResult, error) {
	if s.finished {
		return StepResult{}, ErrFinished
	}

	start := time.Now()
	generations, err := s.engine.RunContext(ctx, s.problem, s.cfg.Run)
	s.generations += generations

	best := s.engine.BestGenome()
	result := StepResult{
		Step:        s.step,
		Generations: generations,
		BestFitness: s.engine.BestFitness(),
		Decision:    append([]float64(nil), best[:s.engine.GeneCount()]...),
		Description: s.problem.Describe(s.engine, best),
	}
	if err != nil {
		result.Elapsed = time.Since(start)
		return result, err
	}
	if s.traceErr != nil {
		result.Elapsed = time.Since(start)
		return result, fmt.Errorf("failed to write trace: %w", s.traceErr)
	}

	if s.stepper != nil && s.stepper.Commit(s.engine, best) {
		result.Done = true
		s.solved = true
		s.finished = true
	}
	if s.tracker.Update(result.BestFitness) {
		result.Converged = true
		s.converged = true
		s.finished = true
	}

	result.Elapsed = time.Since(start)
	s.logger.Debug("Step complete",
		"step", s.step,
		"generations", generations,
		"best_fitness", result.BestFitness,
		"done", result.Done,
		"converged", result.Converged,
	)
	s.step++
	return result, nil
}

// Solve runs up to steps steps (cfg.Steps when steps <= 0) and stops early
// when the problem is solved or the session converges. progress, if set, is
// called after each step.
func (s *Session) Solve(ctx context.Context, steps int, progress func(StepResult)) (*Result, error) {
	if steps <= 0 {
		steps = s.cfg.Steps
	}
	if steps <= 0 {
		steps = 1
	}

	var history []StepResult
	for i := 0; i < steps && !s.finished; i++ {
		res, err := s.Step(ctx)
		history = append(history, res)
		if progress != nil {
			progress(res)
		}
		if err != nil {
			return s.result(history), err
		}
	}

	res := s.result(history)
	s.logger.Info("Session complete",
		"problem", s.problem.Name(),
		"steps", res.Steps,
		"generations", res.Generations,
		"best_fitness", res.BestFitness,
		"solved", res.Solved,
		"converged", res.Converged,
	)
	return res, nil
}

func (s *Session) result(history []StepResult) *Result {
	best := s.engine.BestGenome()
	return &Result{
		Steps:           s.step,
		Generations:     s.generations,
		BestGenome:      best,
		BestFitness:     s.engine.BestFitness(),
		SurvivorFitness: s.engine.SurvivorFitness(),
		Description:     s.problem.Describe(s.engine, best),
		Solved:          s.solved,
		Converged:       s.converged,
		History:         history,
	}
}

// Report converts a result into an archive record.
func (s *Session) Report(runID string, res *Result) *store.Report {
	return &store.Report{
		RunID:       runID,
		Problem:     s.problem.Name(),
		Description: res.Description,
		Policy:      s.engine.Policy().Name,
		Engine: store.EngineConfig{
			Population:     s.engine.Population(),
			Survivors:      s.engine.SurvivalCount(),
			Chromosomes:    s.engine.ChromosomeCount(),
			Genes:          s.engine.GeneCount(),
			Seed:           s.cfg.Seed,
			Maximize:       s.cfg.Run.Maximize,
			MaxGenerations: s.cfg.Run.MaxGenerations,
			Timeout:        s.cfg.Run.Timeout.String(),
			Shift:          s.cfg.Run.ShiftOnReuse,
		},
		BestGenome:      res.BestGenome,
		BestFitness:     res.BestFitness,
		SurvivorFitness: res.SurvivorFitness,
		Generations:     res.Generations,
		Steps:           res.Steps,
		Converged:       res.Converged,
		Solved:          res.Solved,
		Timestamp:       time.Now(),
	}
}
