package promptctx

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

// AssemblerConfig bounds what the assembler packs into a prompt.
type AssemblerConfig struct {
	// TokenBudget is the default budget when the caller passes none.
	TokenBudget int `json:"token_budget" yaml:"token_budget"`

	// HistoryShare is the fraction of the budget reserved for chat history
	// when history is present.
	HistoryShare float64 `json:"history_share" yaml:"history_share"`

	// MaxRelations caps how many graph edges are rendered per entity.
	MaxRelations int `json:"max_relations" yaml:"max_relations"`
}

// DefaultAssemblerConfig returns the production defaults.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{TokenBudget: 3000, HistoryShare: 0.25, MaxRelations: 5}
}

// EntityBlock is one rendered entity inside a prompt context.
type EntityBlock struct {
	Ref       types.EntityRef
	Text      string
	Tokens    int
	Truncated bool
}

// PromptContext is the bounded context for one generation call. It is built
// fresh per call and never persisted.
type PromptContext struct {
	Query       string
	Blocks      []EntityBlock
	History     []types.ChatMessage
	TokenBudget int
	TokensUsed  int
}

// ContextText joins the rendered entity blocks for the prompt.
func (pc *PromptContext) ContextText() string {
	parts := make([]string, len(pc.Blocks))
	for i, b := range pc.Blocks {
		parts[i] = b.Text
	}
	return strings.Join(parts, "\n\n")
}

// Sources returns the refs of every entity included in the context.
func (pc *PromptContext) Sources() []types.EntityRef {
	refs := make([]types.EntityRef, len(pc.Blocks))
	for i, b := range pc.Blocks {
		refs[i] = b.Ref
	}
	return refs
}

// propOrder fixes which properties are rendered per entity type and in what
// order, mirroring the graph schema. Unknown types fall back to property
// insertion order.
var propOrder = map[types.EntityType][]string{
	types.EntityDisease:           {types.PropDescription, types.PropPathogen, types.PropSymptoms, types.PropTransmission, types.PropTreatments, types.PropCategory},
	types.EntityCountry:           {types.PropDescription, types.PropContinent, types.PropCapital, types.PropPopulation},
	types.EntityOutbreak:          {types.PropDescription, types.PropYear, types.PropLocation, types.PropCases, types.PropDeaths},
	types.EntityVaccinationRecord: {types.PropVaccineName, types.PropYear, types.PropCoverage},
	types.EntityOrganization:      {types.PropDescription, types.PropRole, types.PropHeadquarters},
	types.EntityVaccine:           {types.PropDescription, types.PropManufacturer},
	types.EntityPandemicEvent:     {types.PropDescription, types.PropAbstract, types.PropStartDate, types.PropDeathToll},
}

const fallbackPropLimit = 6

// Assembler packs ranked entities and chat history into a PromptContext
// under a token budget.
type Assembler struct {
	estimator Estimator
	config    AssemblerConfig
	logger    *zap.Logger
}

// NewAssembler creates an assembler. A nil estimator falls back to the
// word-count heuristic.
func NewAssembler(estimator Estimator, config AssemblerConfig, logger *zap.Logger) *Assembler {
	if estimator == nil {
		estimator = NewHeuristicEstimator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultAssemblerConfig()
	if config.TokenBudget <= 0 {
		config.TokenBudget = def.TokenBudget
	}
	if config.HistoryShare <= 0 || config.HistoryShare >= 1 {
		config.HistoryShare = def.HistoryShare
	}
	if config.MaxRelations <= 0 {
		config.MaxRelations = def.MaxRelations
	}
	return &Assembler{
		estimator: estimator,
		config:    config,
		logger:    logger.With(zap.String("component", "context_assembler")),
	}
}

// Assemble packs entities in rank order under the budget. History is kept
// most-recent-first under its own sub-budget, then restored to chronological
// order. If even the highest-ranked entity block exceeds the remaining
// budget it is truncated at a word boundary rather than omitted, so a
// generation call always has at least one grounded source when retrieval
// found anything.
func (a *Assembler) Assemble(query string, entities []types.Entity, history []types.ChatMessage, tokenBudget int) PromptContext {
	if tokenBudget <= 0 {
		tokenBudget = a.config.TokenBudget
	}

	pc := PromptContext{Query: query, TokenBudget: tokenBudget}

	entityBudget := tokenBudget
	if len(history) > 0 {
		historyBudget := int(float64(tokenBudget) * a.config.HistoryShare)
		kept, used := a.packHistory(history, historyBudget)
		pc.History = kept
		pc.TokensUsed += used
		entityBudget = tokenBudget - used
	}

	for i := range entities {
		block := a.renderEntity(&entities[i])
		tokens := a.estimator.Estimate(block)
		remaining := entityBudget - entityTokens(pc.Blocks)
		if tokens > remaining {
			if len(pc.Blocks) > 0 {
				break
			}
			block, tokens = a.truncateToFit(block, remaining)
			if block == "" {
				break
			}
			pc.Blocks = append(pc.Blocks, EntityBlock{
				Ref:       entities[i].Ref(),
				Text:      block,
				Tokens:    tokens,
				Truncated: true,
			})
			pc.TokensUsed += tokens
			break
		}
		pc.Blocks = append(pc.Blocks, EntityBlock{
			Ref:    entities[i].Ref(),
			Text:   block,
			Tokens: tokens,
		})
		pc.TokensUsed += tokens
	}

	a.logger.Debug("context assembled",
		zap.Int("entities_in", len(entities)),
		zap.Int("blocks", len(pc.Blocks)),
		zap.Int("history", len(pc.History)),
		zap.Int("tokens_used", pc.TokensUsed),
		zap.Int("token_budget", tokenBudget))
	return pc
}

func entityTokens(blocks []EntityBlock) int {
	total := 0
	for _, b := range blocks {
		total += b.Tokens
	}
	return total
}

// packHistory walks history newest-first until the sub-budget is spent, then
// returns the kept tail in chronological order.
func (a *Assembler) packHistory(history []types.ChatMessage, budget int) ([]types.ChatMessage, int) {
	var kept []types.ChatMessage
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		tokens := a.estimator.Estimate(history[i].Content)
		if used+tokens > budget {
			break
		}
		kept = append(kept, history[i])
		used += tokens
	}
	// reverse back to chronological order
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept, used
}

// renderEntity formats one entity as a compact prompt block.
func (a *Assembler) renderEntity(e *types.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Label)

	keys, ok := propOrder[e.Type]
	if ok {
		for _, key := range keys {
			if v, present := e.Property(key); present && v != nil {
				fmt.Fprintf(&b, "\n%s: %v", key, v)
			}
		}
	} else {
		for i, p := range e.Properties {
			if i >= fallbackPropLimit {
				break
			}
			if p.Value == nil {
				continue
			}
			fmt.Fprintf(&b, "\n%s: %v", p.Key, p.Value)
		}
	}

	if len(e.Relations) > 0 {
		rels := e.Relations
		if len(rels) > a.config.MaxRelations {
			rels = rels[:a.config.MaxRelations]
		}
		parts := make([]string, len(rels))
		for i, r := range rels {
			target := r.TargetLabel
			if target == "" {
				target = r.TargetID
			}
			arrow := "->"
			if r.Direction == types.DirectionIn {
				arrow = "<-"
			}
			parts[i] = fmt.Sprintf("%s %s %s", r.Predicate, arrow, target)
		}
		fmt.Fprintf(&b, "\nRelated: %s", strings.Join(parts, "; "))
	}

	return b.String()
}

// truncateToFit cuts text at a word boundary so its estimate fits budget.
// Returns empty when not even one word fits.
func (a *Assembler) truncateToFit(text string, budget int) (string, int) {
	if budget <= 0 {
		return "", 0
	}
	words := strings.Fields(text)
	// estimates grow monotonically with the word count, so binary search
	// for the longest prefix that still fits
	n := sort.Search(len(words), func(k int) bool {
		return a.estimator.Estimate(strings.Join(words[:k+1], " ")) > budget
	})
	if n == 0 {
		return "", 0
	}
	cut := strings.Join(words[:n], " ")
	return cut, a.estimator.Estimate(cut)
}
