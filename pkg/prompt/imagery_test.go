package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

func dealtCard(id, name, position string, order int, reversed bool) models.DealtCard {
	return models.DealtCard{
		Card:          models.Card{ID: id, NameEn: name, Suit: models.SuitWands, CardNumber: 1, Arcana: models.ArcanaMinor},
		Position:      position,
		PositionOrder: order,
		IsReversed:    reversed,
	}
}

func visualChunk(id, text string, sim float64) models.ScoredChunk {
	return models.ScoredChunk{Chunk: models.Chunk{ID: id, Source: "pkt", Text: text}, Similarity: sim}
}

func drain(chunks <-chan llmclient.StreamChunk, errs <-chan error) (string, error) {
	var b strings.Builder
	for c := range chunks {
		b.WriteString(c.Content)
	}
	return b.String(), <-errs
}

func TestImageryStreamsFromVisualDescriptions(t *testing.T) {
	client := &llmclient.FakeClient{ChatResponses: []string{"雾中古桥横跨激流。"}}
	gen := NewImageryGenerator(client, "gpt-4o-mini")

	cards := []models.DealtCard{dealtCard("c1", "Ace of Wands", "past", 1, false)}
	info := map[string]models.CardRetrieval{
		"c1": {CardID: "c1", Chunks: []models.ScoredChunk{
			visualChunk("v1", "The image shows a hand emerging from a cloud grasping a wand.", 0.8),
		}},
	}

	chunks, errs, streamInfo := gen.Stream(context.Background(), cards, info, models.DomainCareer)
	text, err := drain(chunks, errs)
	require.NoError(t, err)

	assert.Equal(t, "雾中古桥横跨激流。", text)
	assert.False(t, streamInfo.Fallback)
	assert.Contains(t, streamInfo.Prompt, "Ace of Wands (past position)")
	assert.Contains(t, streamInfo.Prompt, "career")
}

func TestImageryFallbackWithoutVisualChunks(t *testing.T) {
	client := &llmclient.FakeClient{} // must not be called
	gen := NewImageryGenerator(client, "gpt-4o-mini")

	cards := []models.DealtCard{dealtCard("c1", "Ace of Wands", "past", 1, false)}
	info := map[string]models.CardRetrieval{
		"c1": {CardID: "c1", Chunks: []models.ScoredChunk{
			visualChunk("m1", "Success and good fortune in new ventures.", 0.8),
		}},
	}

	chunks, errs, streamInfo := gen.Stream(context.Background(), cards, info, models.DomainCareer)
	text, err := drain(chunks, errs)
	require.NoError(t, err)

	assert.Equal(t, FallbackImagery, text)
	assert.True(t, streamInfo.Fallback)
	assert.Empty(t, streamInfo.Prompt)
}

func TestCollectVisualDescriptionsCapsAndTruncates(t *testing.T) {
	long := strings.Repeat("depicts a long scene ", 30) // > 300 chars
	cards := []models.DealtCard{dealtCard("c1", "The Tower", "present", 2, true)}
	info := map[string]models.CardRetrieval{
		"c1": {CardID: "c1", Chunks: []models.ScoredChunk{
			visualChunk("v1", long, 0.9),
			visualChunk("v2", "shows a tower struck by lightning", 0.8),
			visualChunk("v3", "the picture includes falling figures", 0.7),
			visualChunk("v4", "an illustration of flames at the windows", 0.6),
		}},
	}

	out := collectVisualDescriptions(cards, info)

	assert.Contains(t, out, "The Tower (present position) [Reversed]:")
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, "flames at the windows", "at most three visual chunks per card")
}
