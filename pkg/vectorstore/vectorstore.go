// Package vectorstore provides C2: upsert and ANN search over chunk
// records. The core treats it as an external collaborator reached through
// this one interface; pkg/rag is the only caller of Upsert and Search.
package vectorstore

import (
	"context"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// VectorStore upserts chunk records and answers similarity-search queries
// against them.
type VectorStore interface {
	// Upsert writes each chunk keyed on chunk id; a chunk id already
	// present has its text, source, and embedding overwritten.
	Upsert(ctx context.Context, chunks []models.Chunk) error

	// Search returns up to k chunks with similarity >= minSim, sorted by
	// similarity descending.
	Search(ctx context.Context, query []float32, k int, minSim float64) ([]models.ScoredChunk, error)

	// Health runs a trivial connectivity probe.
	Health(ctx context.Context) error
}
