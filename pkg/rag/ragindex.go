// Package rag implements C3 (RagIndex) and C4 (Chunker): chunking, the
// process-wide embedding cache, and the search(query, k, minSim)
// primitive consumed by pkg/retriever. No LLM call for synthesis happens
// at this layer, only embedding.
package rag

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
	"github.com/codeready-toolchain/tarot-reading/pkg/vectorstore"
)

// embeddingCacheCap is the process-wide embedding cache's size cap. On
// overflow, new entries are simply not inserted; no eviction. Queries are
// typically stable across a single reading, so this is an acceptable
// simplification rather than an LRU.
const embeddingCacheCap = 1000

// RagIndex is C3: it fronts a VectorStore with an embedding cache and
// handles chunk embedding on upsert.
type RagIndex struct {
	client         llmclient.ModelClient
	store          vectorstore.VectorStore
	embeddingModel string

	cacheMu sync.Mutex
	cache   map[string][]float32
}

// NewRagIndex builds a RagIndex over an existing ModelClient and
// VectorStore, embedding with embeddingModel.
func NewRagIndex(client llmclient.ModelClient, store vectorstore.VectorStore, embeddingModel string) *RagIndex {
	return &RagIndex{
		client:         client,
		store:          store,
		embeddingModel: embeddingModel,
		cache:          make(map[string][]float32),
	}
}

// Upsert embeds every chunk missing an embedding, then upserts the full
// batch into the VectorStore. Idempotent on chunk id.
func (r *RagIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	var toEmbed []string
	var toEmbedIdx []int
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			toEmbed = append(toEmbed, c.Text)
			toEmbedIdx = append(toEmbedIdx, i)
		}
	}
	if len(toEmbed) > 0 {
		vecs, err := r.client.EmbedBatch(ctx, r.embeddingModel, toEmbed)
		if err != nil {
			return fmt.Errorf("embed chunks for upsert: %w", err)
		}
		for j, i := range toEmbedIdx {
			chunks[i].Embedding = vecs[j]
		}
	}
	if err := r.store.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

// Search embeds queryText (via the process-wide cache) and returns up to k
// chunks from the VectorStore with similarity >= minSim, sorted
// descending. A single embedding failure is returned to the caller; a
// downstream vector-store failure is likewise returned; pkg/retriever is
// responsible for treating a failed query as zero hits.
func (r *RagIndex) Search(ctx context.Context, queryText string, k int, minSim float64) ([]models.ScoredChunk, error) {
	vec, err := r.embedCached(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	chunks, err := r.store.Search(ctx, vec, k, minSim)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return chunks, nil
}

func (r *RagIndex) embedCached(ctx context.Context, query string) ([]float32, error) {
	key := embeddingCacheKey(query)

	r.cacheMu.Lock()
	if vec, ok := r.cache[key]; ok {
		r.cacheMu.Unlock()
		return vec, nil
	}
	r.cacheMu.Unlock()

	vecs, err := r.client.EmbedBatch(ctx, r.embeddingModel, []string{query})
	if err != nil {
		return nil, err
	}
	vec := vecs[0]

	r.cacheMu.Lock()
	if len(r.cache) < embeddingCacheCap {
		r.cache[key] = vec
	}
	r.cacheMu.Unlock()

	return vec, nil
}

func embeddingCacheKey(query string) string {
	sum := md5.Sum([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:])
}
