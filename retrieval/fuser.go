package retrieval

import (
	"sort"

	"go.uber.org/zap"
)

// FusionConfig sets the weights for combining lexical and semantic scores.
type FusionConfig struct {
	KeywordWeight  float64 `json:"keyword_weight" yaml:"keyword_weight"`
	SemanticWeight float64 `json:"semantic_weight" yaml:"semantic_weight"`
}

// DefaultFusionConfig weights both signals equally.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{KeywordWeight: 0.5, SemanticWeight: 0.5}
}

// Fuser merges keyword and semantic candidate lists into one ranked,
// deduplicated list. A candidate present in both lists gets the weighted sum
// of its scores; a single-source candidate keeps its score scaled by that
// source's weight, so an exact keyword hit is never silently dropped just
// because it carried no semantic signal.
type Fuser struct {
	config FusionConfig
	logger *zap.Logger
}

// NewFuser creates a fuser with the given weights.
func NewFuser(config FusionConfig, logger *zap.Logger) *Fuser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.KeywordWeight == 0 && config.SemanticWeight == 0 {
		config = DefaultFusionConfig()
	}
	return &Fuser{
		config: config,
		logger: logger.With(zap.String("component", "fuser")),
	}
}

// Fuse merges the two lists. Output order: FusedScore descending, then
// both-source candidates before single-source, then entity id ascending:
// a total order, so pagination over the result is stable.
func (f *Fuser) Fuse(keyword, semantic []Candidate) []Candidate {
	byID := make(map[string]*Candidate, len(keyword)+len(semantic))
	order := make([]string, 0, len(keyword)+len(semantic))

	for _, c := range keyword {
		c := c
		c.Source = SourceKeyword
		if c.LexicalScore != nil {
			c.FusedScore = f.config.KeywordWeight * (*c.LexicalScore)
		}
		byID[c.Entity.ID] = &c
		order = append(order, c.Entity.ID)
	}

	for _, c := range semantic {
		if c.SemanticScore == nil {
			continue
		}
		if existing, ok := byID[c.Entity.ID]; ok {
			existing.Source = SourceBoth
			existing.SemanticScore = c.SemanticScore
			existing.FusedScore += f.config.SemanticWeight * (*c.SemanticScore)
			continue
		}
		c := c
		c.Source = SourceSemantic
		c.FusedScore = f.config.SemanticWeight * (*c.SemanticScore)
		byID[c.Entity.ID] = &c
		order = append(order, c.Entity.ID)
	}

	fused := make([]Candidate, 0, len(order))
	for _, id := range order {
		fused = append(fused, *byID[id])
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].FusedScore != fused[j].FusedScore {
			return fused[i].FusedScore > fused[j].FusedScore
		}
		iBoth, jBoth := fused[i].Source == SourceBoth, fused[j].Source == SourceBoth
		if iBoth != jBoth {
			return iBoth
		}
		return fused[i].Entity.ID < fused[j].Entity.ID
	})

	f.logger.Debug("fusion done",
		zap.Int("keyword", len(keyword)),
		zap.Int("semantic", len(semantic)),
		zap.Int("fused", len(fused)))
	return fused
}
