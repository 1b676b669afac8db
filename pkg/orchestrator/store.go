package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// ReadingStore persists the reading aggregate. The orchestrator is the
// sole writer of a reading for its lifetime; implementations need no
// per-reading locking.
type ReadingStore interface {
	CreateReading(ctx context.Context, reading *models.Reading) error
	UpdateReading(ctx context.Context, reading *models.Reading) error
	SaveDealtCards(ctx context.Context, readingID string, cards []models.DealtCard) error
}

// PostgresStore writes readings and reading_cards rows.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a ReadingStore over an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ ReadingStore = (*PostgresStore)(nil)

// CreateReading implements ReadingStore.
func (s *PostgresStore) CreateReading(ctx context.Context, reading *models.Reading) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO readings (id, question, spread_type, user_id, status, source_page, current_step, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reading.ID, reading.Question, reading.SpreadType, reading.UserID,
		reading.Status, reading.SourcePage, reading.CurrentStep, reading.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reading %s: %w", reading.ID, err)
	}
	return nil
}

// UpdateReading implements ReadingStore: a full write of the mutable
// columns, serializing the typed stage outputs to JSON at this boundary.
func (s *PostgresStore) UpdateReading(ctx context.Context, reading *models.Reading) error {
	patternJSON, err := marshalNullable(reading.PatternAnalysis)
	if err != nil {
		return fmt.Errorf("marshal pattern analysis for reading %s: %w", reading.ID, err)
	}
	metadataJSON, err := marshalNullable(reading.InterpretationMetadata)
	if err != nil {
		return fmt.Errorf("marshal interpretation metadata for reading %s: %w", reading.ID, err)
	}

	var domain, complexity, summary *string
	autoSelected := false
	if qa := reading.QuestionAnalysis; qa != nil {
		d := string(qa.QuestionDomain)
		domain = &d
		if qa.Complexity != nil {
			c := string(*qa.Complexity)
			complexity = &c
		}
		summary = &qa.QuestionSummary
		autoSelected = qa.AutoSelectedSpread
	}
	var significatorID *string
	if reading.SignificatorCard != nil {
		significatorID = &reading.SignificatorCard.ID
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE readings SET
			spread_type = $2,
			status = $3,
			current_step = $4,
			question_domain = $5,
			question_complexity = $6,
			question_summary = $7,
			auto_selected_spread = $8,
			spread_reason = $9,
			significator_card_id = $10,
			significator_selection_reason = $11,
			spread_pattern_analysis = $12,
			interpretation = $13,
			interpretation_full_text = $14,
			interpretation_summary = $15,
			interpretation_metadata = $16,
			imagery_description = $17,
			card_selected_at = $18,
			completed_at = $19,
			error_at = $20
		WHERE id = $1`,
		reading.ID, reading.SpreadType, reading.Status, reading.CurrentStep,
		domain, complexity, summary, autoSelected,
		reading.SpreadReason, significatorID, reading.SignificatorReason,
		patternJSON, reading.Interpretation, reading.InterpretationFullText,
		reading.InterpretationSummary, metadataJSON, reading.ImageryDescription,
		reading.CardSelectedAt, reading.CompletedAt, reading.LastErrorAt)
	if err != nil {
		return fmt.Errorf("update reading %s: %w", reading.ID, err)
	}
	return nil
}

// SaveDealtCards implements ReadingStore.
func (s *PostgresStore) SaveDealtCards(ctx context.Context, readingID string, cards []models.DealtCard) error {
	now := time.Now().UTC()
	for _, dc := range cards {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO reading_cards (reading_id, card_id, position, position_order, position_description, is_reversed, card_selected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (reading_id, position_order) DO UPDATE SET
				card_id = EXCLUDED.card_id,
				position = EXCLUDED.position,
				position_description = EXCLUDED.position_description,
				is_reversed = EXCLUDED.is_reversed`,
			readingID, dc.Card.ID, dc.Position, dc.PositionOrder, dc.PositionDescription, dc.IsReversed, now)
		if err != nil {
			return fmt.Errorf("insert reading_cards row %d for reading %s: %w", dc.PositionOrder, readingID, err)
		}
	}
	return nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *models.SpreadPatternAnalysis:
		if val == nil {
			return nil, nil
		}
	case map[string]any:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

// FakeStore keeps readings in memory for tests.
type FakeStore struct {
	mu sync.Mutex

	CreateErr error
	UpdateErr error
	// FailCompletedOnce makes the first update that carries a completed
	// status fail, exercising the final-write retry.
	FailCompletedOnce bool

	Readings map[string]models.Reading
	Cards    map[string][]models.DealtCard
	Updates  int
}

// NewFakeStore returns an empty in-memory store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Readings: make(map[string]models.Reading),
		Cards:    make(map[string][]models.DealtCard),
	}
}

var _ ReadingStore = (*FakeStore)(nil)

// CreateReading implements ReadingStore.
func (f *FakeStore) CreateReading(_ context.Context, reading *models.Reading) error {
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.mu.Lock()
	f.Readings[reading.ID] = *reading
	f.mu.Unlock()
	return nil
}

// UpdateReading implements ReadingStore.
func (f *FakeStore) UpdateReading(_ context.Context, reading *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates++
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if f.FailCompletedOnce && reading.Status == models.StatusCompleted {
		f.FailCompletedOnce = false
		return fmt.Errorf("transient update failure")
	}
	f.Readings[reading.ID] = *reading
	return nil
}

// SaveDealtCards implements ReadingStore.
func (f *FakeStore) SaveDealtCards(_ context.Context, readingID string, cards []models.DealtCard) error {
	f.mu.Lock()
	f.Cards[readingID] = append([]models.DealtCard(nil), cards...)
	f.mu.Unlock()
	return nil
}

// Reading returns the stored copy of a reading.
func (f *FakeStore) Reading(id string) (models.Reading, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.Readings[id]
	return r, ok
}
