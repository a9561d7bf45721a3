package ga

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// FillMode decides how a new chromosome is filled when no default chromosome
// template is set.
type FillMode int

const (
	// FillRandom draws every gene uniformly from [0,1).
	FillRandom FillMode = iota
	// FillOnes sets every gene to 1.
	FillOnes
)

func (f FillMode) String() string {
	switch f {
	case FillRandom:
		return "random"
	case FillOnes:
		return "ones"
	default:
		return fmt.Sprintf("FillMode(%d)", int(f))
	}
}

// ParseFillMode converts "random" or "ones" into a FillMode.
func ParseFillMode(s string) (FillMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "random":
		return FillRandom, nil
	case "ones":
		return FillOnes, nil
	default:
		return 0, fmt.Errorf("unknown fill mode: %q", s)
	}
}

// Mutator perturbs the genes of one chromosome in place.
type Mutator interface {
	Name() string
	Mutate(rng *rand.Rand, genes []float64, intensity float64)
}

// BiasedReduction sets every gene to clamp(g - intensity/2 + intensity*(1-r²), 0, 1)
// for a uniform r. The step is bounded by intensity/2 in either direction.
type BiasedReduction struct{}

func (BiasedReduction) Name() string { return "biased_reduction" }

func (BiasedReduction) Mutate(rng *rand.Rand, genes []float64, intensity float64) {
	for i := range genes {
		r := rng.Float64()
		r = 1 - r*r
		genes[i] = clamp(genes[i]-intensity*0.5+intensity*r, 0, 1)
	}
}

// ProbabilisticReset replaces each gene with a fresh uniform draw with
// probability intensity.
type ProbabilisticReset struct{}

func (ProbabilisticReset) Name() string { return "probabilistic_reset" }

func (ProbabilisticReset) Mutate(rng *rand.Rand, genes []float64, intensity float64) {
	for i := range genes {
		if rng.Float64() < intensity {
			genes[i] = rng.Float64()
		}
	}
}

// RateSchedule yields the crossover and mutation probabilities for a
// generation index (0 for the first generation of every Run).
type RateSchedule interface {
	Rates(generation int) (crossover, mutation float64)
}

// LinearSchedule raises crossover and lowers mutation linearly per generation
// until they reach their caps.
type LinearSchedule struct {
	CrossoverStart float64
	CrossoverStep  float64
	CrossoverMax   float64
	MutationStart  float64
	MutationStep   float64
	MutationMin    float64
}

// Rates implements RateSchedule.
func (s LinearSchedule) Rates(generation int) (crossover, mutation float64) {
	g := float64(generation)
	crossover = math.Min(s.CrossoverStart+g*s.CrossoverStep, s.CrossoverMax)
	mutation = math.Max(s.MutationStart-g*s.MutationStep, s.MutationMin)
	return crossover, mutation
}

// Policy bundles the strategy choices that differ between GA variants.
type Policy struct {
	Name              string
	Fill              FillMode
	Mutation          Mutator
	MutationIntensity float64
	Schedule          RateSchedule
}

// Validate checks that every strategy is set.
func (p Policy) Validate() error {
	if p.Mutation == nil {
		return &ConfigError{Field: "policy.Mutation", Reason: "cannot be nil"}
	}
	if p.Schedule == nil {
		return &ConfigError{Field: "policy.Schedule", Reason: "cannot be nil"}
	}
	if p.Fill != FillRandom && p.Fill != FillOnes {
		return &ConfigError{Field: "policy.Fill", Reason: "unknown fill mode " + p.Fill.String()}
	}
	if math.IsNaN(p.MutationIntensity) || p.MutationIntensity < 0 {
		return &ConfigError{Field: "policy.MutationIntensity", Reason: "must be non-negative"}
	}
	return nil
}

// ClassicPolicy fills new chromosomes randomly, mutates with BiasedReduction
// at full intensity and uses crossover min(0.5+0.05g, 0.75) and mutation
// max(0.5-0.02g, 0.01).
func ClassicPolicy() Policy {
	return Policy{
		Name:              "classic",
		Fill:              FillRandom,
		Mutation:          BiasedReduction{},
		MutationIntensity: 1.0,
		Schedule: LinearSchedule{
			CrossoverStart: 0.5,
			CrossoverStep:  0.05,
			CrossoverMax:   0.75,
			MutationStart:  0.5,
			MutationStep:   0.02,
			MutationMin:    0.01,
		},
	}
}

// ResetPolicy fills new chromosomes with ones, mutates with
// ProbabilisticReset at intensity 0.25 and uses crossover min(0.3+0.02g, 0.8)
// and mutation max(0.4-0.01g, 0.05).
func ResetPolicy() Policy {
	return Policy{
		Name:              "reset",
		Fill:              FillOnes,
		Mutation:          ProbabilisticReset{},
		MutationIntensity: 0.25,
		Schedule: LinearSchedule{
			CrossoverStart: 0.3,
			CrossoverStep:  0.02,
			CrossoverMax:   0.8,
			MutationStart:  0.4,
			MutationStep:   0.01,
			MutationMin:    0.05,
		},
	}
}

var policies = map[string]func() Policy{
	"classic": ClassicPolicy,
	"reset":   ResetPolicy,
}

// PolicyByName returns a named preset.
func PolicyByName(name string) (Policy, error) {
	ctor, ok := policies[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Policy{}, fmt.Errorf("unknown policy %q (available: %s)", name, strings.Join(PolicyNames(), ", "))
	}
	return ctor(), nil
}

// PolicyNames lists the preset names in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// operatorThresholds turns the generation's rates into cumulative thresholds
// for a single uniform draw r: r < crossoverAt selects crossover,
// r < mutateAt selects mutation, anything else keeps the fresh chromosome.
// Mutation is conditional on crossover not firing.
func operatorThresholds(crossover, mutation float64) (crossoverAt, mutateAt float64) {
	crossover = clamp(crossover, 0, 1)
	mutation = clamp(mutation, 0, 1)
	return crossover, crossover + (1-crossover)*mutation
}

func clamp(val, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, val))
}
