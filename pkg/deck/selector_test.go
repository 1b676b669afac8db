package deck

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

func TestStandardDeckShape(t *testing.T) {
	cards := StandardDeck("pkt")
	require.Len(t, cards, 78)

	var majors, minors int
	for _, c := range cards {
		switch c.Arcana {
		case models.ArcanaMajor:
			majors++
			assert.GreaterOrEqual(t, c.CardNumber, 0)
			assert.LessOrEqual(t, c.CardNumber, 21)
		case models.ArcanaMinor:
			minors++
			assert.GreaterOrEqual(t, c.CardNumber, 1)
			assert.LessOrEqual(t, c.CardNumber, 14)
		}
	}
	assert.Equal(t, 22, majors)
	assert.Equal(t, 56, minors)
}

func TestDealThreeCard(t *testing.T) {
	selector := NewSelector(&FakeRepository{}, rand.New(rand.NewSource(42)))

	dealt, err := selector.Deal(context.Background(), "pkt", models.SpreadThreeCard, nil)
	require.NoError(t, err)
	require.Len(t, dealt, 3)

	assert.Equal(t, "past", dealt[0].Position)
	assert.Equal(t, "present", dealt[1].Position)
	assert.Equal(t, "future", dealt[2].Position)
	for i, dc := range dealt {
		assert.Equal(t, i+1, dc.PositionOrder)
		assert.NotEmpty(t, dc.Card.NameEn)
	}
}

func TestDealIsDeterministicForFixedSeed(t *testing.T) {
	first, err := NewSelector(&FakeRepository{}, rand.New(rand.NewSource(7))).
		Deal(context.Background(), "pkt", models.SpreadThreeCard, nil)
	require.NoError(t, err)
	second, err := NewSelector(&FakeRepository{}, rand.New(rand.NewSource(7))).
		Deal(context.Background(), "pkt", models.SpreadThreeCard, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDealCelticCrossRemovesSignificator(t *testing.T) {
	repo := &FakeRepository{}
	deckCards, err := repo.Load(context.Background(), "pkt")
	require.NoError(t, err)

	var significator models.Card
	for _, c := range deckCards {
		if c.NameEn == "King of Wands" {
			significator = c
			break
		}
	}
	require.NotEmpty(t, significator.ID)

	selector := NewSelector(repo, rand.New(rand.NewSource(1)))
	dealt, err := selector.Deal(context.Background(), "pkt", models.SpreadCelticCross, &significator)
	require.NoError(t, err)
	require.Len(t, dealt, 10)

	orders := make([]int, 0, len(dealt))
	for _, dc := range dealt {
		assert.NotEqual(t, significator.ID, dc.Card.ID, "significator must never be dealt")
		orders = append(orders, dc.PositionOrder)
	}
	sort.Ints(orders)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, orders)
}

func TestDealSignificatorNotInDeck(t *testing.T) {
	selector := NewSelector(&FakeRepository{}, rand.New(rand.NewSource(1)))

	_, err := selector.Deal(context.Background(), "pkt", models.SpreadCelticCross,
		&models.Card{ID: "not-a-real-card"})
	assert.ErrorIs(t, err, ErrSignificatorNotInDeck)
}

func TestDealThreeCardIgnoresSignificator(t *testing.T) {
	repo := &FakeRepository{}
	deckCards, err := repo.Load(context.Background(), "pkt")
	require.NoError(t, err)

	selector := NewSelector(repo, rand.New(rand.NewSource(1)))
	dealt, err := selector.Deal(context.Background(), "pkt", models.SpreadThreeCard, &deckCards[0])
	require.NoError(t, err)
	require.Len(t, dealt, 3)
}

func TestDealUnknownSpread(t *testing.T) {
	selector := NewSelector(&FakeRepository{}, rand.New(rand.NewSource(1)))

	_, err := selector.Deal(context.Background(), "pkt", models.SpreadWorkCycle, nil)
	assert.ErrorIs(t, err, ErrUnknownSpread)
}

func TestLoadIncompleteCorpus(t *testing.T) {
	short := StandardDeck("pkt")[:77]
	repo := &FakeRepository{Decks: map[string][]models.Card{"pkt": short}}

	_, err := repo.Load(context.Background(), "pkt")
	assert.ErrorIs(t, err, ErrCorpusIncomplete)
}

func TestReversalRateIsPlausible(t *testing.T) {
	selector := NewSelector(&FakeRepository{}, rand.New(rand.NewSource(99)))

	var reversedCount, total int
	for i := 0; i < 50; i++ {
		dealt, err := selector.Deal(context.Background(), "pkt", models.SpreadCelticCross, nil)
		require.NoError(t, err)
		for _, dc := range dealt {
			total++
			if dc.IsReversed {
				reversedCount++
			}
		}
	}
	rate := float64(reversedCount) / float64(total)
	assert.InDelta(t, 0.45, rate, 0.1)
}
