package promptctx

import (
	"math"
	"strings"
)

// Estimator approximates how many model tokens a text consumes. Estimates
// only need to be consistent, not exact: the assembler uses them to stay
// under a budget, and the budget already carries headroom.
type Estimator interface {
	Estimate(text string) int
}

// HeuristicEstimator approximates tokens as words times a constant factor.
// English prose averages roughly 1.3 BPE tokens per word.
type HeuristicEstimator struct {
	tokensPerWord float64
}

// NewHeuristicEstimator returns the default word-count estimator.
func NewHeuristicEstimator() *HeuristicEstimator {
	return &HeuristicEstimator{tokensPerWord: 1.3}
}

// Estimate returns the approximate token count for text.
func (e *HeuristicEstimator) Estimate(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * e.tokensPerWord))
}
