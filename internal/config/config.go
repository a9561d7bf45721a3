// Package config loads YAML run profiles.
package config

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/superlightga/internal/plan"
	"github.com/cwbudde/superlightga/internal/problem"
	"github.com/cwbudde/superlightga/pkg/ga"
)

// Config is the root configuration structure
type Config struct {
	Seed        int64                  `yaml:"seed" json:"seed"`
	Problem     ProblemConfig          `yaml:"problem" json:"problem"`
	Engine      EngineConfig           `yaml:"engine" json:"engine"`
	Policy      PolicyConfig           `yaml:"policy" json:"policy"`
	Run         RunConfig              `yaml:"run" json:"run"`
	Convergence plan.ConvergenceConfig `yaml:"convergence" json:"convergence"`
	Output      OutputConfig           `yaml:"output" json:"output"`
}

// ProblemConfig selects a built-in problem
type ProblemConfig struct {
	Name   string         `yaml:"name" json:"name"`
	Params problem.Params `yaml:"params" json:"params"`
}

// EngineConfig sizes the population. The genome shape comes from the problem.
type EngineConfig struct {
	Population int `yaml:"population" json:"population"`
	Survivors  int `yaml:"survivors" json:"survivors"`
}

// PolicyConfig picks a preset and optionally overrides parts of it
type PolicyConfig struct {
	// Name is classic|reset
	Name string `yaml:"name" json:"name"`
	// Fill is random|ones; empty keeps the preset
	Fill string `yaml:"fill" json:"fill,omitempty"`
	// MutationIntensity overrides the preset when positive
	MutationIntensity float64 `yaml:"mutation_intensity" json:"mutationIntensity,omitempty"`
}

// RunConfig controls each engine run and the number of planning steps
type RunConfig struct {
	// MaxGenerations per run; unset selects the default, 0 only seeds,
	// negative is unbounded
	MaxGenerations *int `yaml:"max_generations" json:"maxGenerations,omitempty"`
	// Timeout per run; unset selects the default, 0 allows a single
	// generation, negative disables it
	Timeout *time.Duration `yaml:"timeout" json:"timeout,omitempty"`
	// Shift survivors between steps of stepping problems (default true)
	Shift *bool `yaml:"shift" json:"shift,omitempty"`
	Steps int   `yaml:"steps" json:"steps"`
}

const (
	defaultMaxGenerations = 10000
	defaultTimeout        = 100 * time.Millisecond
)

// Generations returns the generation bound, or the default when unset.
func (r RunConfig) Generations() int {
	if r.MaxGenerations == nil {
		return defaultMaxGenerations
	}
	return *r.MaxGenerations
}

// RunTimeout returns the wall-clock budget, or the default when unset.
func (r RunConfig) RunTimeout() time.Duration {
	if r.Timeout == nil {
		return defaultTimeout
	}
	return *r.Timeout
}

// SetGenerations sets the generation bound explicitly, including 0.
func (r *RunConfig) SetGenerations(n int) {
	r.MaxGenerations = &n
}

// SetTimeout sets the wall-clock budget explicitly, including 0.
func (r *RunConfig) SetTimeout(d time.Duration) {
	r.Timeout = &d
}

// OutputConfig defines where results go
type OutputConfig struct {
	DataDir      string `yaml:"data_dir" json:"dataDir"`
	Save         bool   `yaml:"save" json:"save"`
	Trace        bool   `yaml:"trace" json:"trace"`
	TraceGenomes bool   `yaml:"trace_genomes" json:"traceGenomes"`
}

// Default returns a profile with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a YAML config file and returns a Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Complete fills unset fields with defaults and validates the result.
func (c *Config) Complete() error {
	applyDefaults(c)
	return c.Validate()
}

func applyDefaults(cfg *Config) {
	if cfg.Problem.Name == "" {
		cfg.Problem.Name = "jump"
	}
	if cfg.Engine.Population == 0 {
		cfg.Engine.Population = 50
	}
	if cfg.Engine.Survivors == 0 {
		cfg.Engine.Survivors = 5
	}
	if cfg.Policy.Name == "" {
		cfg.Policy.Name = "classic"
	}
	if cfg.Run.MaxGenerations == nil {
		cfg.Run.SetGenerations(defaultMaxGenerations)
	}
	if cfg.Run.Timeout == nil {
		cfg.Run.SetTimeout(defaultTimeout)
	}
	if cfg.Run.Shift == nil {
		shift := true
		cfg.Run.Shift = &shift
	}
	if cfg.Run.Steps == 0 {
		cfg.Run.Steps = 1
	}
	if cfg.Convergence.Enabled {
		if cfg.Convergence.Patience == 0 {
			cfg.Convergence.Patience = plan.DefaultConvergenceConfig().Patience
		}
		if cfg.Convergence.Threshold == 0 {
			cfg.Convergence.Threshold = plan.DefaultConvergenceConfig().Threshold
		}
	}
	if cfg.Output.DataDir == "" {
		cfg.Output.DataDir = "./data"
	}
}

// Validate checks value ranges that the engine would reject later.
func (c *Config) Validate() error {
	if c.Engine.Population <= 0 {
		return &FieldError{Field: "engine.population", Reason: "must be positive"}
	}
	if c.Engine.Survivors <= 0 || c.Engine.Survivors >= c.Engine.Population {
		return &FieldError{Field: "engine.survivors", Reason: fmt.Sprintf("must be in [1, %d)", c.Engine.Population)}
	}
	if c.Run.Generations() < 0 && c.Run.RunTimeout() < 0 {
		return &FieldError{Field: "run", Reason: "max_generations and timeout cannot both be unbounded"}
	}
	if c.Run.Steps < 0 {
		return &FieldError{Field: "run.steps", Reason: "cannot be negative"}
	}
	if c.Convergence.Enabled && c.Convergence.Patience <= 0 {
		return &FieldError{Field: "convergence.patience", Reason: "must be positive"}
	}
	if _, err := c.ResolvePolicy(); err != nil {
		return &FieldError{Field: "policy", Reason: err.Error()}
	}
	return nil
}

// ResolvePolicy returns the preset with the profile's overrides applied.
func (c *Config) ResolvePolicy() (ga.Policy, error) {
	p, err := ga.PolicyByName(c.Policy.Name)
	if err != nil {
		return ga.Policy{}, err
	}
	if c.Policy.Fill != "" {
		fill, err := ga.ParseFillMode(c.Policy.Fill)
		if err != nil {
			return ga.Policy{}, err
		}
		p.Fill = fill
	}
	if c.Policy.MutationIntensity > 0 {
		p.MutationIntensity = c.Policy.MutationIntensity
	}
	return p, p.Validate()
}

// NewProblem builds the configured problem. Its random choices use Seed.
func (c *Config) NewProblem() (problem.Problem, error) {
	return problem.New(c.Problem.Name, c.Problem.Params, rand.New(rand.NewSource(c.Seed)))
}

// SessionConfig translates the profile into a planning session config.
func (c *Config) SessionConfig() (plan.Config, error) {
	policy, err := c.ResolvePolicy()
	if err != nil {
		return plan.Config{}, err
	}

	shift := true
	if c.Run.Shift != nil {
		shift = *c.Run.Shift
	}

	return plan.Config{
		Population: c.Engine.Population,
		Survivors:  c.Engine.Survivors,
		Policy:     policy,
		Seed:       c.Seed,
		Run: ga.RunOptions{
			MaxGenerations: c.Run.Generations(),
			Timeout:        c.Run.RunTimeout(),
			ShiftOnReuse:   shift,
		},
		Steps:        c.Run.Steps,
		Convergence:  c.Convergence,
		TraceGenomes: c.Output.TraceGenomes,
	}, nil
}

// FieldError reports an invalid profile value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return "config: " + e.Field + " " + e.Reason
}
