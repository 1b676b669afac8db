package deck

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// PostgresRepository reads cards from the tarot_cards table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository builds a Repository over an existing pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ Repository = (*PostgresRepository)(nil)

// Load implements Repository.
func (r *PostgresRepository) Load(ctx context.Context, source string) ([]models.Card, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, source, card_name_en, card_name_cn, card_number, suit, arcana,
		       description, upright_meaning, reversed_meaning, symbolic_meaning,
		       additional_meanings, image_url
		FROM tarot_cards
		WHERE source = $1
		ORDER BY arcana, suit, card_number`, source)
	if err != nil {
		return nil, fmt.Errorf("query tarot_cards for source %q: %w", source, err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		var nameCn, symbolic, imageURL *string
		var additional map[string]string
		if err := rows.Scan(&c.ID, &c.Source, &c.NameEn, &nameCn, &c.CardNumber, &c.Suit,
			&c.Arcana, &c.Description, &c.UprightMeaning, &c.ReversedMeaning,
			&symbolic, &additional, &imageURL); err != nil {
			return nil, fmt.Errorf("scan tarot_cards row: %w", err)
		}
		if nameCn != nil {
			c.NameCn = *nameCn
		}
		if symbolic != nil {
			c.SymbolicMeaning = *symbolic
		}
		if imageURL != nil {
			c.ImageURL = *imageURL
		}
		c.AdditionalMeanings = additional
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tarot_cards rows: %w", err)
	}
	if err := verifyDeckSize(source, cards); err != nil {
		return nil, err
	}
	return cards, nil
}
