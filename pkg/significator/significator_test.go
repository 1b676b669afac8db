package significator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarot-reading/pkg/deck"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestResolveCourtLevelAndSuit(t *testing.T) {
	resolver := NewResolver(&deck.FakeRepository{})

	tests := []struct {
		name     string
		profile  *models.UserProfile
		domain   models.QuestionDomain
		priority models.SignificatorPriority
		want     string
	}{
		{
			name:    "young male career question",
			profile: &models.UserProfile{Age: intPtr(25), Gender: strPtr("male")},
			domain:  models.DomainCareer,
			want:    "King of Wands",
		},
		{
			name:    "older male love question",
			profile: &models.UserProfile{Age: intPtr(45), Gender: strPtr("male")},
			domain:  models.DomainLove,
			want:    "Knight of Cups",
		},
		{
			name:    "young female growth question",
			profile: &models.UserProfile{Age: intPtr(30), Gender: strPtr("female")},
			domain:  models.DomainPersonalGrowth,
			want:    "Page of Swords",
		},
		{
			name:    "older female finance question",
			profile: &models.UserProfile{Age: intPtr(52), Gender: strPtr("female")},
			domain:  models.DomainFinance,
			want:    "Queen of Pentacles",
		},
		{
			name:    "other gender defaults to King",
			profile: &models.UserProfile{Age: intPtr(30), Gender: strPtr("other")},
			domain:  models.DomainHealth,
			want:    "King of Pentacles",
		},
		{
			name:   "missing profile defaults to King, general domain to Wands",
			domain: models.DomainGeneral,
			want:   "King of Wands",
		},
		{
			name: "personality first wins over domain",
			profile: &models.UserProfile{
				Age: intPtr(25), Gender: strPtr("male"),
				PersonalityType: strPtr("cups"),
			},
			domain:   models.DomainCareer,
			priority: models.PriorityPersonalityFirst,
			want:     "King of Cups",
		},
		{
			name: "zodiac first wins over domain",
			profile: &models.UserProfile{
				Age: intPtr(25), Gender: strPtr("male"),
				ZodiacSign: strPtr("scorpio"),
			},
			domain:   models.DomainCareer,
			priority: models.PriorityZodiacFirst,
			want:     "King of Cups",
		},
		{
			name: "question first dominates zodiac and personality",
			profile: &models.UserProfile{
				Age: intPtr(25), Gender: strPtr("male"),
				ZodiacSign: strPtr("Sagittarius"), PersonalityType: strPtr("wands"),
			},
			domain:   models.DomainGeneral,
			priority: models.PriorityQuestionFirst,
			want:     "King of Wands",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, reason, err := resolver.Resolve(context.Background(), tt.profile, tt.domain, tt.priority, "pkt")
			require.NoError(t, err)
			assert.Equal(t, tt.want, card.NameEn)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	resolver := NewResolver(&deck.FakeRepository{})
	profile := &models.UserProfile{
		Age: intPtr(25), Gender: strPtr("male"),
		ZodiacSign: strPtr("Sagittarius"), PersonalityType: strPtr("wands"),
	}

	card1, reason1, err := resolver.Resolve(context.Background(), profile, models.DomainGeneral, models.PriorityQuestionFirst, "pkt")
	require.NoError(t, err)
	card2, reason2, err := resolver.Resolve(context.Background(), profile, models.DomainGeneral, models.PriorityQuestionFirst, "pkt")
	require.NoError(t, err)

	assert.Equal(t, card1.ID, card2.ID)
	assert.Equal(t, reason1, reason2)
}

func TestResolveFallsBackToKingOfWands(t *testing.T) {
	// Remove the derived card (Queen of Pentacles) from the corpus and put
	// a filler card in its place so the 78-card invariant still holds.
	cards := deck.StandardDeck("pkt")
	for i := range cards {
		if cards[i].NameEn == "Queen of Pentacles" {
			cards[i].NameEn = "Queen of Coins"
		}
	}
	resolver := NewResolver(&deck.FakeRepository{Decks: map[string][]models.Card{"pkt": cards}})

	profile := &models.UserProfile{Age: intPtr(52), Gender: strPtr("female")}
	card, reason, err := resolver.Resolve(context.Background(), profile, models.DomainFinance, models.PriorityQuestionFirst, "pkt")
	require.NoError(t, err)
	assert.Equal(t, "King of Wands", card.NameEn)
	assert.Contains(t, reason, "fell back")
}

func TestResolveMissingEvenFallback(t *testing.T) {
	cards := deck.StandardDeck("pkt")
	for i := range cards {
		switch cards[i].NameEn {
		case "Queen of Pentacles", "King of Wands":
			cards[i].NameEn += " (renamed)"
		}
	}
	resolver := NewResolver(&deck.FakeRepository{Decks: map[string][]models.Card{"pkt": cards}})

	profile := &models.UserProfile{Age: intPtr(52), Gender: strPtr("female")}
	_, _, err := resolver.Resolve(context.Background(), profile, models.DomainFinance, models.PriorityQuestionFirst, "pkt")
	assert.ErrorIs(t, err, ErrSignificatorMissing)
}
