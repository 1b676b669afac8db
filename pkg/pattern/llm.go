package pattern

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// llmTemperature is a middle setting: the analysis needs some latitude
// but must stay anchored to the dealt cards.
const llmTemperature = 0.5

const llmPromptTemplate = `You are an experienced Tarot reader. Please analyze the patterns and relationships in the following spread.

## Spread Type: %s
## Question Domain: %s

## Spread:
%s

## Analysis Requirements:
1. **Position relationships**: timeline, causal links, support/conflict across positions
2. **Number patterns**: same numbers, sequences, jumps
3. **Suit distribution**: counts and elemental balance
4. **Major Arcana patterns**: count, positions, and meaning
5. **Reversed patterns**: count, positions, and meaning
6. **Special combinations**: court-card clusters, duplicates, dominant suits

## Output Format (JSON):
{
    "position_relationships": {"time_flow": "", "causal_relationships": [], "support_conflict": ""},
    "number_patterns": {"same_numbers": [], "sequences": [], "jumps": []},
    "suit_distribution": {"wands_count": 0, "cups_count": 0, "swords_count": 0, "pentacles_count": 0, "major_count": 0, "interpretation": ""},
    "major_arcana_patterns": {"count": 0, "positions": [], "interpretation": ""},
    "reversed_patterns": {"count": 0, "positions": [], "interpretation": ""},
    "special_combinations": []
}

Please ensure you return valid JSON format without any other text.`

// LLMAnalyzer is the model-backed Analyzer. It asks the model for the
// same structure the deterministic analyzer computes and validates the
// response. An empty suit distribution, major-arcana or reversed section
// is backfilled from the deterministic result; position relationships,
// number patterns and special combinations are kept as the model
// returned them.
type LLMAnalyzer struct {
	client llmclient.ModelClient
	model  string
	log    *slog.Logger
}

// NewLLMAnalyzer builds an LLMAnalyzer calling the given chat model.
func NewLLMAnalyzer(client llmclient.ModelClient, model string) *LLMAnalyzer {
	return &LLMAnalyzer{client: client, model: model, log: slog.Default().With("component", "pattern_analyzer")}
}

var _ Analyzer = (*LLMAnalyzer)(nil)

// Analyze implements Analyzer.
func (a *LLMAnalyzer) Analyze(ctx context.Context, cards []models.DealtCard, spread models.SpreadType, domain models.QuestionDomain) (models.SpreadPatternAnalysis, error) {
	prompt := fmt.Sprintf(llmPromptTemplate, spread, domain, FormatSpread(cards))

	text, err := a.client.Chat(ctx, a.model, []llmclient.Message{{Role: llmclient.RoleUser, Content: prompt}}, llmTemperature, llmclient.ChatOptions{JSONMode: true})
	if err != nil {
		return models.SpreadPatternAnalysis{}, fmt.Errorf("llm pattern analysis: %w", err)
	}

	var analysis models.SpreadPatternAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return models.SpreadPatternAnalysis{}, fmt.Errorf("parse llm pattern analysis: %w", err)
	}

	// A sparse model response still gets the structural counts right.
	fallback := Analyze(cards, spread)
	if analysis.SuitDistribution == (models.SuitDistribution{}) {
		a.log.Warn("llm pattern analysis missing suit_distribution, using deterministic result")
		analysis.SuitDistribution = fallback.SuitDistribution
	}
	if analysis.MajorArcanaPatterns.Interpretation == "" {
		analysis.MajorArcanaPatterns = fallback.MajorArcanaPatterns
	}
	if analysis.ReversedPatterns.Interpretation == "" {
		analysis.ReversedPatterns = fallback.ReversedPatterns
	}
	return analysis, nil
}

// New returns the Analyzer for a method: MethodLLMEnhanced gets the
// model-backed analyzer, everything else the deterministic default.
func New(method AnalysisMethod, client llmclient.ModelClient, model string) Analyzer {
	if method == MethodLLMEnhanced {
		return NewLLMAnalyzer(client, model)
	}
	return Deterministic{}
}

// FormatSpread renders the dealt cards one per line for prompts: order,
// position, name, suit/arcana, and reversal marker.
func FormatSpread(cards []models.DealtCard) string {
	lines := make([]string, 0, len(cards))
	for _, dc := range cards {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s", dc.PositionOrder, dc.Position)
		if dc.PositionDescription != "" {
			fmt.Fprintf(&b, " (%s)", dc.PositionDescription)
		}
		fmt.Fprintf(&b, ": %s", dc.Card.NameEn)
		if dc.Card.NameCn != "" {
			fmt.Fprintf(&b, " (%s)", dc.Card.NameCn)
		}
		fmt.Fprintf(&b, " - %s", dc.Card.Suit)
		if dc.Card.Arcana == models.ArcanaMajor {
			fmt.Fprintf(&b, " (%s)", dc.Card.Arcana)
		} else {
			fmt.Fprintf(&b, " %d", dc.Card.CardNumber)
		}
		if dc.IsReversed {
			b.WriteString(" [Reversed]")
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
