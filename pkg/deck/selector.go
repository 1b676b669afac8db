package deck

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// reversalRate is the independent per-card probability of dealing a card
// upside down, per the traditional 40-50% range.
const reversalRate = 0.45

// Selector is C6: it prepares a deck (significator removal, shuffle,
// reversal draw, three-fold cut) and deals it into a spread's positions.
// The PRNG is injected so tests can fix the outcome; nothing here requires
// cryptographic randomness.
type Selector struct {
	repo Repository
	rng  *rand.Rand
}

// NewSelector builds a Selector over a card repository and a PRNG.
func NewSelector(repo Repository, rng *rand.Rand) *Selector {
	return &Selector{repo: repo, rng: rng}
}

// Deal loads the named deck, removes the significator for spreads that use
// one, shuffles, draws reversals, cuts three times, and deals the top of
// the deck into the spread's positions in order.
func (s *Selector) Deal(ctx context.Context, source string, spread models.SpreadType, significator *models.Card) ([]models.DealtCard, error) {
	positions, err := SpreadPositions(spread)
	if err != nil {
		return nil, err
	}

	cards, err := s.repo.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	if UsesSignificator(spread) && significator != nil {
		cards, err = removeSignificator(cards, significator.ID)
		if err != nil {
			return nil, err
		}
	}

	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	reversed := make([]bool, len(cards))
	for i := range cards {
		reversed[i] = s.rng.Float64() < reversalRate
	}

	cards, reversed = s.cutThreeTimes(cards, reversed)

	if len(cards) < len(positions) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrDeckTooSmall, len(positions), len(cards))
	}

	dealt := make([]models.DealtCard, len(positions))
	for i, pos := range positions {
		dealt[i] = models.DealtCard{
			Card:                cards[i],
			Position:            pos.Name,
			PositionOrder:       pos.Order,
			PositionDescription: pos.Description,
			IsReversed:          reversed[i],
		}
	}
	return dealt, nil
}

func removeSignificator(cards []models.Card, significatorID string) ([]models.Card, error) {
	remaining := make([]models.Card, 0, len(cards)-1)
	for _, c := range cards {
		if c.ID != significatorID {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == len(cards) {
		return nil, fmt.Errorf("%w: id %q", ErrSignificatorNotInDeck, significatorID)
	}
	return remaining, nil
}

// cutThreeTimes performs the traditional three-fold cut: three rotations
// at a pivot drawn uniformly from [len/4, 3*len/4]. Reversal flags travel
// with their cards.
func (s *Selector) cutThreeTimes(cards []models.Card, reversed []bool) ([]models.Card, []bool) {
	for i := 0; i < 3; i++ {
		n := len(cards)
		lo, hi := n/4, 3*n/4
		cut := lo + s.rng.Intn(hi-lo+1)

		rotatedCards := make([]models.Card, 0, n)
		rotatedCards = append(rotatedCards, cards[cut:]...)
		rotatedCards = append(rotatedCards, cards[:cut]...)
		rotatedFlags := make([]bool, 0, n)
		rotatedFlags = append(rotatedFlags, reversed[cut:]...)
		rotatedFlags = append(rotatedFlags, reversed[:cut]...)

		cards, reversed = rotatedCards, rotatedFlags
	}
	return cards, reversed
}
