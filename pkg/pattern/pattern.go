// Package pattern implements C8: structural analysis of a dealt spread.
// The default analyzer is pure code over the ordered card list; an
// LLM-enhanced analyzer sits behind the same interface for callers that
// want a model's read of the same structure. Output strings are English
// regardless of the reading's output language: they are scaffolding for
// downstream prompts, not user-facing text.
package pattern

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// AnalysisMethod selects the analyzer behind the Analyzer interface.
type AnalysisMethod string

const (
	// MethodDeterministic is the default pure-code analysis.
	MethodDeterministic AnalysisMethod = "deterministic"
	// MethodLLMEnhanced asks a model to produce the same structure.
	MethodLLMEnhanced AnalysisMethod = "llm_enhanced"
)

// Analyzer produces a SpreadPatternAnalysis for a dealt spread.
type Analyzer interface {
	Analyze(ctx context.Context, cards []models.DealtCard, spread models.SpreadType, domain models.QuestionDomain) (models.SpreadPatternAnalysis, error)
}

// Deterministic is the code-based Analyzer. It is a pure function of the
// ordered card list and the spread type; the question domain is accepted
// for interface parity but does not affect the output.
type Deterministic struct{}

var _ Analyzer = Deterministic{}

// Analyze implements Analyzer.
func (Deterministic) Analyze(_ context.Context, cards []models.DealtCard, spread models.SpreadType, _ models.QuestionDomain) (models.SpreadPatternAnalysis, error) {
	return Analyze(cards, spread), nil
}

// Analyze is the deterministic analysis as a plain function, for callers
// that don't need the interface.
func Analyze(cards []models.DealtCard, spread models.SpreadType) models.SpreadPatternAnalysis {
	return models.SpreadPatternAnalysis{
		PositionRelationships: analyzePositionRelationships(cards, spread),
		NumberPatterns:        analyzeNumberPatterns(cards),
		SuitDistribution:      analyzeSuitDistribution(cards),
		MajorArcanaPatterns:   analyzeMajorArcana(cards),
		ReversedPatterns:      analyzeReversed(cards),
		SpecialCombinations:   analyzeSpecialCombinations(cards),
	}
}

var suitTitles = map[models.Suit]string{
	models.SuitWands:     "Wands",
	models.SuitCups:      "Cups",
	models.SuitSwords:    "Swords",
	models.SuitPentacles: "Pentacles",
}

func suitTitle(s models.Suit) string {
	if t, ok := suitTitles[s]; ok {
		return t
	}
	return string(s)
}

func analyzePositionRelationships(cards []models.DealtCard, spread models.SpreadType) models.PositionRelationships {
	var timeFlow string
	switch spread {
	case models.SpreadThreeCard:
		name := func(i int) string {
			if i < len(cards) {
				return cards[i].Card.NameEn
			}
			return "N/A"
		}
		timeFlow = fmt.Sprintf("Past → Present → Future: %s → %s → %s", name(0), name(1), name(2))
	case models.SpreadCelticCross:
		timeFlow = "Celtic Cross: Current Situation → Challenge → Past → Future → Goal → Near Future → Attitude → Environment → Hopes & Fears → Outcome"
	}

	var causal []string
	for i := 0; i+1 < len(cards); i++ {
		if cards[i].Position != "" && cards[i+1].Position != "" {
			causal = append(causal, fmt.Sprintf("%s → %s", cards[i].Position, cards[i+1].Position))
		}
	}

	var supportConflict string
	if len(cards) >= 2 {
		seen := make(map[models.Suit]bool)
		var unique []models.Suit
		for _, dc := range cards {
			if !seen[dc.Card.Suit] {
				seen[dc.Card.Suit] = true
				unique = append(unique, dc.Card.Suit)
			}
		}
		switch {
		case len(unique) == 1:
			supportConflict = fmt.Sprintf("All cards are %s suit, indicating unified element and mutual support", suitTitle(unique[0]))
		case len(unique) == len(cards):
			supportConflict = "All cards are different suits, indicating diverse elements, possible conflicts or balance"
		default:
			titles := make([]string, len(unique))
			for i, s := range unique {
				titles[i] = suitTitle(s)
			}
			supportConflict = fmt.Sprintf("Suit distribution: %s, indicating mixed elements requiring balance", strings.Join(titles, ", "))
		}
	}

	return models.PositionRelationships{
		TimeFlow:            timeFlow,
		CausalRelationships: causal,
		SupportConflict:     supportConflict,
	}
}

func analyzeNumberPatterns(cards []models.DealtCard) models.NumberPatterns {
	var numbers []int
	for _, dc := range cards {
		if dc.Card.Arcana == models.ArcanaMinor {
			numbers = append(numbers, dc.Card.CardNumber)
		}
	}

	counts := make(map[int]int)
	for _, n := range numbers {
		counts[n]++
	}

	var same []string
	for _, n := range sortedKeys(counts) {
		if counts[n] > 1 {
			same = append(same, fmt.Sprintf("Number %d appears %d times", n, counts[n]))
		}
	}

	distinct := sortedKeys(counts)
	var sequences, jumps []string
	for i := 0; i+1 < len(distinct); i++ {
		gap := distinct[i+1] - distinct[i]
		if gap == 1 {
			sequences = append(sequences, fmt.Sprintf("Number sequence: %d → %d", distinct[i], distinct[i+1]))
		}
		if gap > 3 {
			jumps = append(jumps, fmt.Sprintf("Number jump: %d → %d (gap: %d)", distinct[i], distinct[i+1], gap))
		}
	}

	return models.NumberPatterns{SameNumbers: same, Sequences: sequences, Jumps: jumps}
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func analyzeSuitDistribution(cards []models.DealtCard) models.SuitDistribution {
	dist := models.SuitDistribution{}
	for _, dc := range cards {
		if dc.Card.Arcana == models.ArcanaMajor {
			dist.MajorCount++
			continue
		}
		switch dc.Card.Suit {
		case models.SuitWands:
			dist.WandsCount++
		case models.SuitCups:
			dist.CupsCount++
		case models.SuitSwords:
			dist.SwordsCount++
		case models.SuitPentacles:
			dist.PentaclesCount++
		}
	}

	totalMinor := dist.WandsCount + dist.CupsCount + dist.SwordsCount + dist.PentaclesCount
	switch {
	case dist.MajorCount > totalMinor:
		dist.Interpretation = fmt.Sprintf("Major Arcana dominant (%d cards), indicating major themes and spiritual influences", dist.MajorCount)
	case totalMinor > 0:
		top := models.SuitWands
		topCount := dist.WandsCount
		for _, pair := range []struct {
			suit  models.Suit
			count int
		}{
			{models.SuitCups, dist.CupsCount},
			{models.SuitSwords, dist.SwordsCount},
			{models.SuitPentacles, dist.PentaclesCount},
		} {
			if pair.count > topCount {
				top, topCount = pair.suit, pair.count
			}
		}
		dist.Interpretation = fmt.Sprintf(
			"Element distribution: Wands %d, Cups %d, Swords %d, Pentacles %d. %s element is more prominent",
			dist.WandsCount, dist.CupsCount, dist.SwordsCount, dist.PentaclesCount, suitTitle(top))
	default:
		dist.Interpretation = "All cards are Major Arcana, indicating complete spiritual influence"
	}
	return dist
}

func analyzeMajorArcana(cards []models.DealtCard) models.MajorArcanaPattern {
	var majors []models.DealtCard
	var positions []string
	for _, dc := range cards {
		if dc.Card.Arcana == models.ArcanaMajor {
			majors = append(majors, dc)
			if dc.Position != "" {
				positions = append(positions, dc.Position)
			}
		}
	}

	var meaning string
	switch {
	case len(majors) == 0:
		meaning = "No Major Arcana, indicating daily affairs and specific events"
	case len(majors) == 1:
		meaning = fmt.Sprintf("Only 1 Major Arcana (%s), indicating a single major theme", majors[0].Card.NameEn)
	case len(majors) >= len(cards)/2:
		meaning = fmt.Sprintf("Major Arcana in majority (%d cards), indicating major transitions and spiritual growth", len(majors))
	default:
		meaning = fmt.Sprintf("Moderate number of Major Arcana (%d cards), indicating balance between spiritual and mundane matters", len(majors))
	}

	return models.MajorArcanaPattern{Count: len(majors), Positions: positions, Interpretation: meaning}
}

func analyzeReversed(cards []models.DealtCard) models.ReversedPattern {
	var count int
	var positions []string
	for _, dc := range cards {
		if dc.IsReversed {
			count++
			if dc.Position != "" {
				positions = append(positions, dc.Position)
			}
		}
	}

	var rate float64
	if len(cards) > 0 {
		rate = float64(count) / float64(len(cards))
	}

	var interpretation string
	switch {
	case rate == 0:
		interpretation = "All cards are upright, indicating smooth energy flow and normal development"
	case rate < 0.3:
		interpretation = fmt.Sprintf("Few reversed cards (%d cards), indicating mostly smooth energy flow with a few areas needing attention", count)
	case rate < 0.7:
		interpretation = fmt.Sprintf("Moderate number of reversed cards (%d cards), indicating mixed energy requiring balance between upright and reversed influences", count)
	default:
		interpretation = fmt.Sprintf("Many reversed cards (%d cards), indicating blocked energy requiring special attention to reversed meanings", count)
	}

	return models.ReversedPattern{Count: count, Positions: positions, Interpretation: interpretation}
}

func analyzeSpecialCombinations(cards []models.DealtCard) []string {
	var combos []string

	var courtNames []string
	for _, dc := range cards {
		if dc.Card.IsCourtCard() {
			courtNames = append(courtNames, dc.Card.NameEn)
		}
	}
	if len(courtNames) >= 2 {
		combos = append(combos, fmt.Sprintf("Court card combination: %s, may represent people or personality traits", strings.Join(courtNames, ", ")))
	}

	nameCounts := make(map[string]int)
	var nameOrder []string
	for _, dc := range cards {
		if nameCounts[dc.Card.NameEn] == 0 {
			nameOrder = append(nameOrder, dc.Card.NameEn)
		}
		nameCounts[dc.Card.NameEn]++
	}
	var duplicates []string
	for _, name := range nameOrder {
		if nameCounts[name] > 1 {
			duplicates = append(duplicates, name)
		}
	}
	if len(duplicates) > 0 {
		combos = append(combos, fmt.Sprintf("Duplicate cards: %s, indicating the importance of this theme", strings.Join(duplicates, ", ")))
	}

	suitCounts := make(map[models.Suit]int)
	minorTotal := 0
	for _, dc := range cards {
		if dc.Card.Arcana == models.ArcanaMinor {
			suitCounts[dc.Card.Suit]++
			minorTotal++
		}
	}
	if minorTotal >= 2 {
		var dominant models.Suit
		dominantCount := 0
		for _, s := range []models.Suit{models.SuitWands, models.SuitCups, models.SuitSwords, models.SuitPentacles} {
			if suitCounts[s] > dominantCount {
				dominant, dominantCount = s, suitCounts[s]
			}
		}
		if dominantCount >= 2 {
			combos = append(combos, fmt.Sprintf("%s suit dominant (%d cards), indicating strong influence of this element", suitTitle(dominant), dominantCount))
		}
	}

	return combos
}
