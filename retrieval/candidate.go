package retrieval

import "github.com/epihelix/epihelix/types"

// Source tags which retriever(s) produced a candidate.
type Source string

const (
	SourceKeyword  Source = "keyword"
	SourceSemantic Source = "semantic"
	SourceBoth     Source = "both"
)

// Candidate is one scored entity in a result list. Lexical and semantic
// scores are nil when the corresponding retriever did not see the entity;
// FusedScore is the total order key used for ranking.
type Candidate struct {
	Entity        types.Entity `json:"entity"`
	LexicalScore  *float64     `json:"lexical_score,omitempty"`
	SemanticScore *float64     `json:"semantic_score,omitempty"`
	FusedScore    float64      `json:"fused_score"`
	Source        Source       `json:"source"`
}

// Float returns a pointer to v, for the nullable score fields.
func Float(v float64) *float64 { return &v }
