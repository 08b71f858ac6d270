package quiz

import (
	"math/rand"
	"time"

	"mathsprint-quiz-service/internal/domain"
)

const (
	minFactor   = 1
	maxFactor   = 9
	optionCount = 4
	maxOffset   = 5
	// optionRetryCap bounds the distractor rejection loop. The bounded factor
	// domain makes exhaustion unreachable in practice, but the cap turns a
	// pathological draw sequence into a deterministic fill instead of a spin.
	optionRetryCap = 100
)

// Generator produces non-repeating multiplication problems and
// plausible wrong options for multiple-choice turns.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed is a test hook for deterministic draws.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate picks factors uniformly from [1,9], redrawing while the pair
// matches prev so consecutive questions never repeat.
func (g *Generator) Generate(prev domain.Problem) domain.Problem {
	var a, b int
	for {
		a = g.rnd.Intn(maxFactor) + minFactor
		b = g.rnd.Intn(maxFactor) + minFactor
		if a != prev.A || b != prev.B {
			break
		}
	}
	return domain.Problem{A: a, B: b, Answer: a * b}
}

// BuildOptions returns four distinct positive values including the true
// answer, shuffled. Distractors come from three strategies: perturb a
// factor by one, or shift the answer by a small random offset. Candidates
// that are non-positive or already present are discarded and redrawn.
func (g *Generator) BuildOptions(p domain.Problem) []int {
	options := []int{p.Answer}

	for attempt := 0; len(options) < optionCount && attempt < optionRetryCap; attempt++ {
		var candidate int
		switch g.rnd.Intn(3) {
		case 0:
			candidate = (p.A + g.offsetSign()) * p.B
		case 1:
			candidate = p.A * (p.B + g.offsetSign())
		default:
			candidate = p.Answer + (g.rnd.Intn(maxOffset)+1)*g.offsetSign()
		}
		if candidate > 0 && !contains(options, candidate) {
			options = append(options, candidate)
		}
	}

	// Retry cap hit: fill with increasing offsets to keep the contract.
	for next := p.Answer + 1; len(options) < optionCount; next++ {
		if !contains(options, next) {
			options = append(options, next)
		}
	}

	g.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

func (g *Generator) offsetSign() int {
	if g.rnd.Intn(2) == 0 {
		return 1
	}
	return -1
}

func contains(values []int, v int) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
