package promptctx

import (
	"github.com/pkoukk/tiktoken-go"
)

// TiktokenEstimator counts exact BPE tokens with the cl100k_base encoding.
// Construction fetches the encoding tables, so it can fail on air-gapped
// deployments; those fall back to the heuristic estimator.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the cl100k_base encoding.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{enc: enc}, nil
}

// Estimate returns the exact token count for text.
func (e *TiktokenEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}
