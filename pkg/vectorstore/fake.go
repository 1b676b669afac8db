package vectorstore

import (
	"context"
	"math"
	"sort"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// Fake is an in-memory VectorStore test double. Search computes real
// cosine similarity over whatever was upserted, so dedup/threshold tests
// exercise the same arithmetic the Postgres backend would.
type Fake struct {
	chunks map[string]models.Chunk
}

// NewFake returns an empty in-memory store.
func NewFake() *Fake {
	return &Fake{chunks: make(map[string]models.Chunk)}
}

var _ VectorStore = (*Fake)(nil)

// Upsert implements VectorStore.
func (f *Fake) Upsert(_ context.Context, chunks []models.Chunk) error {
	for _, c := range chunks {
		f.chunks[c.ID] = c
	}
	return nil
}

// Search implements VectorStore with a brute-force cosine-similarity scan.
func (f *Fake) Search(_ context.Context, query []float32, k int, minSim float64) ([]models.ScoredChunk, error) {
	var out []models.ScoredChunk
	for _, c := range f.chunks {
		sim := cosineSimilarity(query, c.Embedding)
		if sim < minSim {
			continue
		}
		out = append(out, models.ScoredChunk{Chunk: c, Similarity: sim})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Health implements VectorStore; the in-memory fake is always healthy.
func (f *Fake) Health(_ context.Context) error { return nil }

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
