package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// Postgres is the pgvector-backed VectorStore implementation, built on a
// shared pgxpool.Pool (see pkg/database).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an already-migrated connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ VectorStore = (*Postgres)(nil)

// Upsert implements VectorStore. Idempotent on chunk id: last write wins
// on text, source, and embedding.
func (p *Postgres) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		var metadata any
		if len(c.Metadata) > 0 {
			b, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata for chunk %q: %w", c.ID, err)
			}
			metadata = string(b)
		}
		batch.Queue(
			`INSERT INTO rag_chunks (chunk_id, source, text, embedding, metadata)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (chunk_id) DO UPDATE SET
			   source = EXCLUDED.source,
			   text = EXCLUDED.text,
			   embedding = EXCLUDED.embedding,
			   metadata = EXCLUDED.metadata`,
			c.ID, c.Source, c.Text, pgvector.NewVector(c.Embedding), metadata,
		)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert chunk: %w", err)
		}
	}
	return nil
}

// Search implements VectorStore using pgvector's cosine-distance operator.
// Cosine similarity is `1 - cosine_distance`.
func (p *Postgres) Search(ctx context.Context, query []float32, k int, minSim float64) ([]models.ScoredChunk, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT chunk_id, source, text, metadata, 1 - (embedding <=> $1) AS similarity
		 FROM rag_chunks
		 WHERE 1 - (embedding <=> $1) >= $2
		 ORDER BY similarity DESC
		 LIMIT $3`,
		pgvector.NewVector(query), minSim, k,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var out []models.ScoredChunk
	for rows.Next() {
		var (
			sc       models.ScoredChunk
			metadata *string
		)
		if err := rows.Scan(&sc.ID, &sc.Source, &sc.Text, &metadata, &sc.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		if metadata != nil {
			if err := json.Unmarshal([]byte(*metadata), &sc.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for chunk %q: %w", sc.ID, err)
			}
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return out, nil
}

// Health implements VectorStore with a trivial connectivity probe.
func (p *Postgres) Health(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("vector store health check: %w", err)
	}
	return nil
}
