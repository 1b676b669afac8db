package retriever

import (
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// query is one RAG search to run, with its tuning parameters.
type query struct {
	Text   string
	Type   string
	TopK   int
	MinSim float64
}

// Per-card searches use the higher similarity floor; spread-method and
// relationship searches cast a wider net.
const (
	cardMinSimilarity    = 0.5
	contextMinSimilarity = 0.25
)

// suitKeywords fuses the minor suits' elemental vocabulary into the
// basic-meaning query.
var suitKeywords = map[models.Suit]string{
	models.SuitWands:     "fire element action",
	models.SuitCups:      "water element emotion",
	models.SuitSwords:    "air element thought",
	models.SuitPentacles: "earth element material",
}

// cardQueries builds the three per-card searches: the fused semantic
// query, the visual-description query, and the fused position and
// psychological query.
func cardQueries(dc models.DealtCard) []query {
	orientation := "upright"
	if dc.IsReversed {
		orientation = "reversed"
	}

	var fused query
	if dc.Card.Arcana == models.ArcanaMajor {
		fused = query{
			Text: fmt.Sprintf("%s tarot card %s meaning divinatory %s symbolic meaning symbolism archetype",
				dc.Card.NameEn, orientation, orientation),
			Type:   "basic_upright_reversed_symbolic_meaning",
			TopK:   10,
			MinSim: cardMinSimilarity,
		}
	} else {
		text := fmt.Sprintf("%s tarot card %s meaning divinatory %s", dc.Card.NameEn, orientation, orientation)
		if kw, ok := suitKeywords[dc.Card.Suit]; ok {
			text = fmt.Sprintf("%s %s suit meaning", text, kw)
		}
		fused = query{
			Text:   text,
			Type:   "basic_upright_reversed_suit_meaning",
			TopK:   10,
			MinSim: cardMinSimilarity,
		}
	}

	visual := query{
		Text:   fmt.Sprintf("%s tarot card description image visual appearance", dc.Card.NameEn),
		Type:   "visual_description",
		TopK:   5,
		MinSim: cardMinSimilarity,
	}

	positionPart := ""
	if dc.Position != "" {
		positionPart = fmt.Sprintf(" %s position", dc.Position)
	}
	positional := query{
		Text:   fmt.Sprintf("%s tarot card%s meaning psychological meaning psychological interpretation", dc.Card.NameEn, positionPart),
		Type:   "position_and_psychological_meaning",
		TopK:   10,
		MinSim: cardMinSimilarity,
	}

	return []query{fused, visual, positional}
}

// spreadMethodQueries builds the four spread-method searches: steps,
// position interpretation, psychological background, traditional method.
func spreadMethodQueries(spread models.SpreadType) []query {
	return []query{
		{Text: fmt.Sprintf("%s spread tarot divination method how to use steps", spread), Type: "method_steps", TopK: 5, MinSim: contextMinSimilarity},
		{Text: fmt.Sprintf("%s spread tarot card positions meaning interpretation", spread), Type: "position_interpretation", TopK: 5, MinSim: contextMinSimilarity},
		{Text: fmt.Sprintf("%s spread tarot psychological approach interpretation", spread), Type: "psychological_background", TopK: 5, MinSim: contextMinSimilarity},
		{Text: fmt.Sprintf("%s spread tarot traditional divination method ancient celtic", spread), Type: "traditional_method", TopK: 5, MinSim: contextMinSimilarity},
	}
}

// relationshipQueries builds the variable cross-card searches: number
// patterns always; suit distribution iff a minor is present; major-arcana
// pattern iff a major is present; reversed pattern iff any reversal;
// court-card combination iff at least two court cards; and a general
// sequence query when there are at least two cards and at least one of
// them carries a position.
func relationshipQueries(cards []models.DealtCard) []query {
	names := make([]string, len(cards))
	for i, dc := range cards {
		names[i] = dc.Card.NameEn
	}

	var queries []query
	queries = append(queries, query{
		Text:   fmt.Sprintf("tarot card number patterns same numbers sequences in spread %s", strings.Join(names, ", ")),
		Type:   "number_patterns",
		TopK:   5,
		MinSim: contextMinSimilarity,
	})

	suitSet := make(map[models.Suit]bool)
	var suits []string
	var reversedCount, majorCount int
	var courtNames []string
	for _, dc := range cards {
		if dc.Card.Arcana == models.ArcanaMinor && !suitSet[dc.Card.Suit] {
			suitSet[dc.Card.Suit] = true
			suits = append(suits, string(dc.Card.Suit))
		}
		if dc.IsReversed {
			reversedCount++
		}
		if dc.Card.Arcana == models.ArcanaMajor {
			majorCount++
		}
		if dc.Card.IsCourtCard() {
			courtNames = append(courtNames, dc.Card.NameEn)
		}
	}

	if len(suits) > 0 {
		queries = append(queries, query{
			Text:   fmt.Sprintf("tarot card suit distribution element balance %s in spread", strings.Join(suits, ", ")),
			Type:   "suit_distribution",
			TopK:   5,
			MinSim: contextMinSimilarity,
		})
	}
	if majorCount > 0 {
		queries = append(queries, query{
			Text:   fmt.Sprintf("tarot major arcana pattern meaning %d major arcana cards in spread interpretation", majorCount),
			Type:   "major_arcana_pattern",
			TopK:   5,
			MinSim: contextMinSimilarity,
		})
	}
	if reversedCount > 0 {
		queries = append(queries, query{
			Text:   fmt.Sprintf("tarot reversed cards pattern meaning %d reversed cards in spread interpretation", reversedCount),
			Type:   "reversed_pattern",
			TopK:   5,
			MinSim: contextMinSimilarity,
		})
	}
	if len(courtNames) >= 2 {
		queries = append(queries, query{
			Text:   fmt.Sprintf("tarot court cards combination meaning %s in spread", strings.Join(courtNames, ", ")),
			Type:   "court_card_combination",
			TopK:   5,
			MinSim: contextMinSimilarity,
		})
	}

	if len(cards) >= 2 {
		var withPositions []string
		for _, dc := range cards {
			if dc.Position != "" {
				withPositions = append(withPositions, fmt.Sprintf("%s (%s)", dc.Card.NameEn, dc.Position))
			}
		}
		if len(withPositions) > 0 {
			queries = append(queries, query{
				Text:   fmt.Sprintf("tarot card relationships sequence meaning %s", strings.Join(withPositions, ", ")),
				Type:   "card_relationships",
				TopK:   5,
				MinSim: contextMinSimilarity,
			})
		}
	}

	return queries
}
