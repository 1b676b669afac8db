// Package deck implements C5 (DeckRepository) and C6 (CardSelector): it
// loads the 78-card corpus for a named source and turns it into a dealt
// spread via shuffle, reversal draw, traditional three-fold cut, and
// position assignment.
package deck

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// Repository reads the card corpus for a named source.
type Repository interface {
	// Load returns the 78 cards of the named source. Implementations fail
	// with ErrCorpusIncomplete when the count is not exactly 78.
	Load(ctx context.Context, source string) ([]models.Card, error)
}

// verifyDeckSize enforces the 78-card invariant shared by every
// Repository implementation.
func verifyDeckSize(source string, cards []models.Card) error {
	if len(cards) != 78 {
		return fmt.Errorf("%w: source %q has %d cards", ErrCorpusIncomplete, source, len(cards))
	}
	return nil
}
