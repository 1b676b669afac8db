package rag

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
	"github.com/codeready-toolchain/tarot-reading/pkg/vectorstore"
)

// countingClient wraps the fake client and counts embed calls, so cache
// behavior is observable.
type countingClient struct {
	llmclient.FakeClient
	mu         sync.Mutex
	embedCalls int
}

func (c *countingClient) EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.embedCalls += len(texts)
	c.mu.Unlock()
	return c.FakeClient.EmbedBatch(ctx, model, texts)
}

func TestUpsertEmbedsMissingAndIsIdempotent(t *testing.T) {
	client := &countingClient{}
	store := vectorstore.NewFake()
	index := NewRagIndex(client, store, "text-embedding-3-small")

	chunks := []models.Chunk{
		{ID: "doc#1", Source: "pkt", Text: "the fool steps off a cliff"},
		{ID: "doc#2", Source: "pkt", Text: "the magician raises a wand"},
	}
	require.NoError(t, index.Upsert(context.Background(), chunks))
	require.NoError(t, index.Upsert(context.Background(), chunks))

	results, err := index.Search(context.Background(), "the fool steps off a cliff", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 2, "double upsert must not duplicate chunks")
}

func TestSearchCachesQueryEmbeddings(t *testing.T) {
	client := &countingClient{}
	index := NewRagIndex(client, vectorstore.NewFake(), "text-embedding-3-small")

	for i := 0; i < 3; i++ {
		_, err := index.Search(context.Background(), "celtic cross positions", 5, 0.5)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, client.embedCalls, "repeated query must hit the embedding cache")

	// The cache key is case-insensitive.
	_, err := index.Search(context.Background(), "CELTIC CROSS positions", 5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, client.embedCalls)
}

func TestSearchRespectsMinSimilarity(t *testing.T) {
	client := &countingClient{}
	store := vectorstore.NewFake()
	index := NewRagIndex(client, store, "text-embedding-3-small")

	require.NoError(t, index.Upsert(context.Background(), []models.Chunk{
		{ID: "doc#1", Source: "pkt", Text: "completely unrelated text about cooking"},
	}))

	// An impossible threshold yields zero chunks without error.
	results, err := index.Search(context.Background(), "tarot card meaning", 10, 1.1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
