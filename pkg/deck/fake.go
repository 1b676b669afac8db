package deck

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// majorNames are the 22 trumps in numeric order, 0 (The Fool) through 21
// (The World).
var majorNames = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress",
	"The Emperor", "The Hierophant", "The Lovers", "The Chariot",
	"Strength", "The Hermit", "Wheel of Fortune", "Justice",
	"The Hanged Man", "Death", "Temperance", "The Devil",
	"The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

// minorRanks maps card numbers 1-14 to rank names.
var minorRanks = []string{
	"Ace", "Two", "Three", "Four", "Five", "Six", "Seven",
	"Eight", "Nine", "Ten", "Page", "Knight", "Queen", "King",
}

// StandardDeck builds a synthetic but structurally complete 78-card deck
// for the named source: 22 majors numbered 0-21 plus 4x14 minors. Tests
// and local fakes use it in place of the database corpus.
func StandardDeck(source string) []models.Card {
	cards := make([]models.Card, 0, 78)
	for num, name := range majorNames {
		cards = append(cards, models.Card{
			ID:              fmt.Sprintf("%s-major-%d", source, num),
			Source:          source,
			NameEn:          name,
			Suit:            models.SuitMajor,
			CardNumber:      num,
			Arcana:          models.ArcanaMajor,
			Description:     fmt.Sprintf("%s card imagery", name),
			UprightMeaning:  fmt.Sprintf("%s upright meaning", name),
			ReversedMeaning: fmt.Sprintf("%s reversed meaning", name),
			SymbolicMeaning: fmt.Sprintf("%s symbolic meaning", name),
		})
	}
	for _, suit := range []models.Suit{models.SuitWands, models.SuitCups, models.SuitSwords, models.SuitPentacles} {
		for i, rank := range minorRanks {
			name := fmt.Sprintf("%s of %s", rank, titleCaseSuit(suit))
			cards = append(cards, models.Card{
				ID:              fmt.Sprintf("%s-%s-%d", source, suit, i+1),
				Source:          source,
				NameEn:          name,
				Suit:            suit,
				CardNumber:      i + 1,
				Arcana:          models.ArcanaMinor,
				Description:     fmt.Sprintf("%s card imagery", name),
				UprightMeaning:  fmt.Sprintf("%s upright meaning", name),
				ReversedMeaning: fmt.Sprintf("%s reversed meaning", name),
			})
		}
	}
	return cards
}

func titleCaseSuit(s models.Suit) string {
	str := string(s)
	if str == "" {
		return str
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

// FakeRepository serves decks from memory. With no explicit decks set, it
// serves a StandardDeck for any requested source.
type FakeRepository struct {
	Decks map[string][]models.Card
}

var _ Repository = (*FakeRepository)(nil)

// Load implements Repository.
func (f *FakeRepository) Load(_ context.Context, source string) ([]models.Card, error) {
	cards, ok := f.Decks[source]
	if !ok {
		cards = StandardDeck(source)
	}
	if err := verifyDeckSize(source, cards); err != nil {
		return nil, err
	}
	out := make([]models.Card, len(cards))
	copy(out, cards)
	return out, nil
}
