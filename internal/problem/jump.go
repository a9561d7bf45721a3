package problem

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/cwbudde/superlightga/pkg/ga"
)

const (
	// MaxJumpDistance is the jump length encoded by a gene value of 1.
	MaxJumpDistance = 1000
	// DefaultJumpSteps is the number of planned jumps (one per chromosome).
	DefaultJumpSteps = 5
)

// JumpFinder searches for the shortest series of jumps from Position to
// Target. Each chromosome is one jump: gene 0 scales the distance, gene 1
// chooses the direction (below 0.5 subtracts).
type JumpFinder struct {
	Start    int
	Target   int
	Position int
	Steps    int
}

// NewJumpFinder places the start uniformly within Steps*MaxJumpDistance of
// the target.
func NewJumpFinder(target int, rng *rand.Rand) *JumpFinder {
	span := MaxJumpDistance * DefaultJumpSteps
	start := target - span + rng.Intn(2*span)
	return &JumpFinder{
		Start:    start,
		Target:   target,
		Position: start,
		Steps:    DefaultJumpSteps,
	}
}

func (j *JumpFinder) Name() string { return "jump" }

func (j *JumpFinder) Shape() (int, int) { return j.Steps, 2 }

func (j *JumpFinder) Maximize() bool { return false }

// Perform applies one jump to number.
func Perform(number int, distance, direction float64) int {
	factor := int(math.Round(distance * MaxJumpDistance))
	if direction < 0.5 {
		return number - factor
	}
	return number + factor
}

// Evaluate sums (step+1)*|Target-position| over the jumps until the target is
// reached, so early arrival and small remaining distances score lowest.
func (j *JumpFinder) Evaluate(e *ga.Engine, genome []float64) float64 {
	pos := j.Position
	score := 0
	for step := 0; step < e.ChromosomeCount(); step++ {
		pos = Perform(pos, e.ReadGene(genome, step, 0), e.ReadGene(genome, step, 1))
		if pos == j.Target {
			break
		}
		score += (step + 1) * abs(j.Target-pos)
	}
	return float64(score)
}

// Describe renders the jumps, e.g. "+ 250 - 40 = 1234".
func (j *JumpFinder) Describe(e *ga.Engine, genome []float64) string {
	var b strings.Builder
	pos := j.Position
	for step := 0; step < e.ChromosomeCount(); step++ {
		distance := e.ReadGene(genome, step, 0)
		direction := e.ReadGene(genome, step, 1)
		sign := "+"
		if direction < 0.5 {
			sign = "-"
		}
		fmt.Fprintf(&b, "%s %d ", sign, int(math.Round(distance*MaxJumpDistance)))
		pos = Perform(pos, distance, direction)
		if pos == j.Target {
			break
		}
	}
	fmt.Fprintf(&b, "= %d", pos)
	return b.String()
}

// Commit performs the first planned jump.
func (j *JumpFinder) Commit(e *ga.Engine, genome []float64) bool {
	j.Position = Perform(j.Position, e.ReadGene(genome, 0, 0), e.ReadGene(genome, 0, 1))
	return j.Position == j.Target
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
