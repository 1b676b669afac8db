package retriever

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// scriptedSearcher returns canned chunks keyed by substring match on the
// query text; unmatched queries return nothing.
type scriptedSearcher struct {
	mu      sync.Mutex
	byMatch map[string][]models.ScoredChunk
	err     error
	calls   int
}

func (s *scriptedSearcher) Search(_ context.Context, queryText string, k int, minSim float64) ([]models.ScoredChunk, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for match, chunks := range s.byMatch {
		if match != "" && strings.Contains(queryText, match) {
			var out []models.ScoredChunk
			for _, c := range chunks {
				if c.Similarity >= minSim {
					out = append(out, c)
				}
			}
			if len(out) > k {
				out = out[:k]
			}
			return out, nil
		}
	}
	return nil, nil
}

func (s *scriptedSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func chunk(id string, sim float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk:      models.Chunk{ID: id, Source: "pkt", Text: "text for " + id},
		Similarity: sim,
	}
}

func dealtMinor(name string, suit models.Suit, number int, position string, order int, reversed bool) models.DealtCard {
	return models.DealtCard{
		Card: models.Card{
			ID: name, NameEn: name, Suit: suit, CardNumber: number, Arcana: models.ArcanaMinor,
		},
		Position:      position,
		PositionOrder: order,
		IsReversed:    reversed,
	}
}

func dealtMajor(name string, number int, position string, order int) models.DealtCard {
	return models.DealtCard{
		Card: models.Card{
			ID: name, NameEn: name, Suit: models.SuitMajor, CardNumber: number, Arcana: models.ArcanaMajor,
		},
		Position:      position,
		PositionOrder: order,
	}
}

func TestDedupeKeepsHighestSimilarity(t *testing.T) {
	deduped := dedupeChunks([]models.ScoredChunk{
		chunk("shared", 0.82),
		chunk("only-a", 0.60),
		chunk("shared", 0.91),
	})

	require.Len(t, deduped, 2)
	assert.Equal(t, "shared", deduped[0].ID)
	assert.Equal(t, 0.91, deduped[0].Similarity)
	assert.Equal(t, "only-a", deduped[1].ID)

	// Sorted descending with unique ids.
	seen := make(map[string]bool)
	last := 1.0
	for _, c := range deduped {
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
		assert.LessOrEqual(t, c.Similarity, last)
		last = c.Similarity
	}
}

func TestRetrieveCardRunsThreeQueries(t *testing.T) {
	searcher := &scriptedSearcher{byMatch: map[string][]models.ScoredChunk{
		"Ace of Wands": {chunk("c1", 0.8), chunk("c2", 0.7)},
	}}
	r := New(searcher)

	cr := r.RetrieveCard(context.Background(), dealtMinor("Ace of Wands", models.SuitWands, 1, "past", 1, false), nil)

	assert.Equal(t, 3, searcher.callCount())
	assert.Equal(t, 3, cr.QueryCount)
	assert.Equal(t, []string{"basic_upright_reversed_suit_meaning", "visual_description", "position_and_psychological_meaning"}, cr.QueryTypes)
	assert.Len(t, cr.Chunks, 2)
	assert.Len(t, cr.Citations, 2)
}

func TestCardQueriesMajorVersusMinor(t *testing.T) {
	major := cardQueries(dealtMajor("The Fool", 0, "past", 1))
	require.Len(t, major, 3)
	assert.Equal(t, "basic_upright_reversed_symbolic_meaning", major[0].Type)
	assert.Contains(t, major[0].Text, "symbolism archetype")
	assert.Contains(t, major[0].Text, "upright")

	minor := cardQueries(dealtMinor("Ace of Cups", models.SuitCups, 1, "present", 2, true))
	require.Len(t, minor, 3)
	assert.Equal(t, "basic_upright_reversed_suit_meaning", minor[0].Type)
	assert.Contains(t, minor[0].Text, "water element emotion")
	assert.Contains(t, minor[0].Text, "reversed")
	assert.Contains(t, minor[2].Text, "present position")
}

func TestRelationshipQueriesConditional(t *testing.T) {
	// Two court cards of the same suit, one reversed, no majors.
	cards := []models.DealtCard{
		dealtMinor("King of Wands", models.SuitWands, 14, "past", 1, true),
		dealtMinor("Queen of Wands", models.SuitWands, 13, "present", 2, false),
		dealtMinor("Two of Cups", models.SuitCups, 2, "future", 3, false),
	}
	queries := relationshipQueries(cards)

	types := make([]string, len(queries))
	for i, q := range queries {
		types[i] = q.Type
	}
	assert.Equal(t, []string{"number_patterns", "suit_distribution", "reversed_pattern", "court_card_combination", "card_relationships"}, types)

	// All majors, all upright, no courts: no suit/reversed/court queries.
	majorsOnly := []models.DealtCard{
		dealtMajor("The Sun", 19, "past", 1),
		dealtMajor("The Moon", 18, "present", 2),
	}
	queries = relationshipQueries(majorsOnly)
	types = types[:0]
	for _, q := range queries {
		types = append(types, q.Type)
	}
	assert.Equal(t, []string{"number_patterns", "major_arcana_pattern", "card_relationships"}, types)
}

func TestSpreadMethodQueries(t *testing.T) {
	queries := spreadMethodQueries(models.SpreadCelticCross)
	require.Len(t, queries, 4)
	for _, q := range queries {
		assert.Equal(t, 5, q.TopK)
		assert.Equal(t, contextMinSimilarity, q.MinSim)
		assert.Contains(t, q.Text, "celtic_cross")
	}
}

func TestRetrieveCardsWithProgress(t *testing.T) {
	searcher := &scriptedSearcher{}
	r := New(searcher)

	cards := []models.DealtCard{
		dealtMinor("Ace of Wands", models.SuitWands, 1, "past", 1, false),
		dealtMinor("Two of Wands", models.SuitWands, 2, "present", 2, false),
		dealtMinor("Three of Wands", models.SuitWands, 3, "future", 3, false),
	}

	var progress []CardProgress
	result := r.RetrieveCardsWithProgress(context.Background(), cards, nil, func(p CardProgress) {
		progress = append(progress, p)
	})

	require.Len(t, result, 3)
	require.Len(t, progress, 3)

	var firstReadyCount int
	for i, p := range progress {
		assert.Equal(t, i+1, p.Completed)
		assert.Equal(t, 3, p.Total)
		assert.InDelta(t, float64(i+1)/3.0, p.Ratio, 1e-9)
		if p.FirstReady {
			firstReadyCount++
		}
	}
	assert.Equal(t, 1, firstReadyCount, "first-card-ready must fire exactly once")
	assert.True(t, progress[0].FirstReady, "three-card threshold is one card")
}

func TestRetrieveAllQueriesFailYieldsZeroChunks(t *testing.T) {
	searcher := &scriptedSearcher{err: errors.New("vector store down")}
	r := New(searcher)
	qlog := NewQueryLog()

	cards := []models.DealtCard{
		dealtMinor("Ace of Wands", models.SuitWands, 1, "past", 1, false),
	}
	result := r.RetrieveCards(context.Background(), cards, qlog)

	require.Len(t, result, 1)
	assert.Empty(t, result["Ace of Wands"].Chunks)

	method := r.RetrieveSpreadMethod(context.Background(), models.SpreadThreeCard, qlog)
	assert.Empty(t, method)

	records := qlog.Records()
	require.NotEmpty(t, records)
	for _, rec := range records {
		assert.NotEmpty(t, rec.Error)
		assert.Zero(t, rec.Hits)
	}
}

func TestQueryLogRecordsHits(t *testing.T) {
	searcher := &scriptedSearcher{byMatch: map[string][]models.ScoredChunk{
		"Ace of Wands": {chunk("c1", 0.9)},
	}}
	r := New(searcher)
	qlog := NewQueryLog()

	r.RetrieveCard(context.Background(), dealtMinor("Ace of Wands", models.SuitWands, 1, "past", 1, false), qlog)

	records := qlog.Records()
	require.Len(t, records, 3)
	var hits int
	for _, rec := range records {
		assert.Equal(t, "Ace of Wands", rec.CardID)
		hits += rec.Hits
	}
	assert.Equal(t, 3, hits)
}
