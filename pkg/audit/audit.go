// Package audit implements C14: per-step audit rows written to
// reading_process_data. Writes are best-effort: the orchestrator logs a
// failed write and keeps going; nothing here may block a reading.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// Sink records one audit row per pipeline stage.
type Sink interface {
	Record(ctx context.Context, row models.ProcessRow) error
}

// PostgresSink writes rows to reading_process_data.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink builds a Sink over an existing pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

var _ Sink = (*PostgresSink)(nil)

// Record implements Sink. Input, output, and query payloads are
// serialized to JSON at this boundary; the pipeline itself works on
// typed structs throughout.
func (s *PostgresSink) Record(ctx context.Context, row models.ProcessRow) error {
	inputJSON, err := marshalNullable(row.InputData)
	if err != nil {
		return fmt.Errorf("marshal audit input for step %q: %w", row.StepName, err)
	}
	outputJSON, err := marshalNullable(row.OutputData)
	if err != nil {
		return fmt.Errorf("marshal audit output for step %q: %w", row.StepName, err)
	}
	queriesJSON, err := marshalNullable(row.RAGQueries)
	if err != nil {
		return fmt.Errorf("marshal audit rag queries for step %q: %w", row.StepName, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reading_process_data (
			reading_id, step_name, step_order, input_data, output_data,
			prompt_type, prompt_content, rag_queries, model_used, temperature,
			processing_time_ms, tokens_used, error_message, error_traceback
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (reading_id, step_order) DO UPDATE SET
			step_name = EXCLUDED.step_name,
			input_data = EXCLUDED.input_data,
			output_data = EXCLUDED.output_data,
			prompt_type = EXCLUDED.prompt_type,
			prompt_content = EXCLUDED.prompt_content,
			rag_queries = EXCLUDED.rag_queries,
			model_used = EXCLUDED.model_used,
			temperature = EXCLUDED.temperature,
			processing_time_ms = EXCLUDED.processing_time_ms,
			tokens_used = EXCLUDED.tokens_used,
			error_message = EXCLUDED.error_message,
			error_traceback = EXCLUDED.error_traceback`,
		row.ReadingID, row.StepName, row.StepOrder, inputJSON, outputJSON,
		row.PromptType, row.PromptContent, queriesJSON, row.ModelUsed, row.Temperature,
		row.ProcessingTimeMs, row.TokensUsed, row.ErrorMessage, row.ErrorTraceback)
	if err != nil {
		return fmt.Errorf("insert reading_process_data row for step %q: %w", row.StepName, err)
	}
	return nil
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// FakeSink collects rows in memory for tests.
type FakeSink struct {
	mu   sync.Mutex
	Err  error
	rows []models.ProcessRow
}

var _ Sink = (*FakeSink)(nil)

// Record implements Sink.
func (f *FakeSink) Record(_ context.Context, row models.ProcessRow) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	f.rows = append(f.rows, row)
	f.mu.Unlock()
	return nil
}

// Rows returns a copy of everything recorded so far.
func (f *FakeSink) Rows() []models.ProcessRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ProcessRow, len(f.rows))
	copy(out, f.rows)
	return out
}
