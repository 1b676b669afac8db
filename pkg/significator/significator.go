// Package significator implements C7: deterministic court-card selection
// from the querent's profile and question domain, following the PKT
// conventions. Nothing here is random; two calls with the same inputs
// return the same card and the same reason string.
package significator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/deck"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// ErrSignificatorMissing means neither the derived court card nor the
// King of Wands fallback exists in the corpus.
var ErrSignificatorMissing = errors.New("significator card missing from corpus")

// fallbackCardName is tried when the derived card is not in the corpus.
const fallbackCardName = "King of Wands"

// zodiacToSuit maps a capitalized zodiac sign through its element to a
// suit: fire to wands, water to cups, air to swords, earth to pentacles.
var zodiacToSuit = map[string]models.Suit{
	"Aries": models.SuitWands, "Leo": models.SuitWands, "Sagittarius": models.SuitWands,
	"Cancer": models.SuitCups, "Scorpio": models.SuitCups, "Pisces": models.SuitCups,
	"Gemini": models.SuitSwords, "Libra": models.SuitSwords, "Aquarius": models.SuitSwords,
	"Taurus": models.SuitPentacles, "Virgo": models.SuitPentacles, "Capricorn": models.SuitPentacles,
}

// domainToSuit maps the question domain to a suit by element affinity.
var domainToSuit = map[models.QuestionDomain]models.Suit{
	models.DomainLove:           models.SuitCups,
	models.DomainCareer:         models.SuitWands,
	models.DomainHealth:         models.SuitPentacles,
	models.DomainFinance:        models.SuitPentacles,
	models.DomainPersonalGrowth: models.SuitSwords,
	models.DomainGeneral:        models.SuitWands,
}

// Resolver derives the significator and looks it up in the corpus.
type Resolver struct {
	repo deck.Repository
}

// NewResolver builds a Resolver over a card repository.
func NewResolver(repo deck.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve picks the significator for a profile, question domain, and
// priority, then finds that card in the named source. The returned reason
// is a deterministic concatenation of the derivations taken, so audit
// rows are reproducible.
func (r *Resolver) Resolve(ctx context.Context, profile *models.UserProfile, domain models.QuestionDomain, priority models.SignificatorPriority, source string) (*models.Card, string, error) {
	var age *int
	var gender, zodiac, personality *string
	if profile != nil {
		age, gender, zodiac, personality = profile.Age, profile.Gender, profile.ZodiacSign, profile.PersonalityType
	}

	level, levelReason := courtLevel(age, gender)
	suit, suitReason := deriveSuit(domain, personality, zodiac, priority)

	reasons := []string{levelReason}
	if suitReason != "" {
		reasons = append(reasons, suitReason)
	}

	cardName := fmt.Sprintf("%s of %s", level, titleCaseSuit(suit))
	card, err := r.findCard(ctx, source, cardName)
	if err != nil {
		return nil, "", err
	}
	if card == nil {
		card, err = r.findCard(ctx, source, fallbackCardName)
		if err != nil {
			return nil, "", err
		}
		if card == nil {
			return nil, "", fmt.Errorf("%w: %q (and fallback %q) in source %q", ErrSignificatorMissing, cardName, fallbackCardName, source)
		}
		reasons = append(reasons, fmt.Sprintf("fell back to default significator %s", fallbackCardName))
	}

	return card, strings.Join(reasons, "; "), nil
}

// courtLevel applies the PKT age/gender table: male under 40 King, 40 and
// over Knight; female under 40 Page, 40 and over Queen; anything else,
// including a missing age or gender, the neutral King.
func courtLevel(age *int, gender *string) (string, string) {
	if age == nil || gender == nil {
		return "King", "using default court level (King)"
	}
	switch *gender {
	case "male":
		if *age >= 40 {
			return "Knight", fmt.Sprintf("age (%d) and gender (male) selected Knight", *age)
		}
		return "King", fmt.Sprintf("age (%d) and gender (male) selected King", *age)
	case "female":
		if *age >= 40 {
			return "Queen", fmt.Sprintf("age (%d) and gender (female) selected Queen", *age)
		}
		return "Page", fmt.Sprintf("age (%d) and gender (female) selected Page", *age)
	default:
		return "King", "using neutral court level (King)"
	}
}

// deriveSuit tries each suit source in the order the priority dictates;
// the first non-empty hit wins, with wands as the final fallback.
func deriveSuit(domain models.QuestionDomain, personality, zodiac *string, priority models.SignificatorPriority) (models.Suit, string) {
	type source struct {
		try  func() (models.Suit, bool)
		desc string
	}

	fromDomain := source{
		try: func() (models.Suit, bool) {
			s, ok := domainToSuit[domain]
			return s, ok
		},
		desc: fmt.Sprintf("question domain (%s) determined the suit", domain),
	}
	fromPersonality := source{
		try: func() (models.Suit, bool) {
			if personality == nil {
				return "", false
			}
			switch models.Suit(*personality) {
			case models.SuitWands, models.SuitCups, models.SuitSwords, models.SuitPentacles:
				return models.Suit(*personality), true
			}
			return "", false
		},
		desc: fmt.Sprintf("personality type (%s) determined the suit", deref(personality)),
	}
	fromZodiac := source{
		try: func() (models.Suit, bool) {
			if zodiac == nil {
				return "", false
			}
			s, ok := zodiacToSuit[capitalize(*zodiac)]
			return s, ok
		},
		desc: fmt.Sprintf("zodiac sign (%s) element determined the suit", deref(zodiac)),
	}

	var chain []source
	switch priority {
	case models.PriorityPersonalityFirst:
		chain = []source{fromPersonality, fromDomain, fromZodiac}
	case models.PriorityZodiacFirst:
		chain = []source{fromZodiac, fromDomain, fromPersonality}
	default:
		chain = []source{fromDomain, fromPersonality, fromZodiac}
	}

	for i, src := range chain {
		if suit, ok := src.try(); ok {
			return suit, fmt.Sprintf("%s (priority %d)", src.desc, i+1)
		}
	}
	return models.SuitWands, "defaulted to Wands suit"
}

func (r *Resolver) findCard(ctx context.Context, source, name string) (*models.Card, error) {
	cards, err := r.repo.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		if cards[i].NameEn == name {
			return &cards[i], nil
		}
	}
	return nil, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func titleCaseSuit(s models.Suit) string {
	return capitalize(string(s))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
