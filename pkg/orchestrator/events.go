package orchestrator

import (
	"time"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// EventType discriminates the stream's event kinds.
type EventType string

const (
	EventProgress       EventType = "progress"
	EventImageryChunk   EventType = "imagery_chunk"
	EventInterpretation EventType = "interpretation"
	EventComplete       EventType = "complete"
	EventError          EventType = "error"
)

// Progress step names, in emission order.
const (
	StepStarted               = "started"
	StepQuestionAnalysis      = "question_analysis"
	StepCardsSelected         = "cards_selected"
	StepPatternAnalyzed       = "pattern_analyzed"
	StepRagCardProgress       = "rag_card_progress"
	StepRagFirstCardReady     = "rag_first_card_ready"
	StepRagRetrieved          = "rag_retrieved"
	StepImageryGenerated      = "imagery_generated"
	StepInterpretationStarted = "interpretation_started"
)

// CardView is the wire shape of one dealt card inside events.
type CardView struct {
	CardID              string `json:"card_id"`
	CardNameEn          string `json:"card_name_en"`
	CardNameCn          string `json:"card_name_cn,omitempty"`
	Suit                string `json:"suit"`
	CardNumber          int    `json:"card_number"`
	Arcana              string `json:"arcana"`
	Position            string `json:"position,omitempty"`
	PositionOrder       int    `json:"position_order,omitempty"`
	PositionDescription string `json:"position_description,omitempty"`
	IsReversed          bool   `json:"is_reversed"`
	ImageURL            string `json:"image_url,omitempty"`
}

func cardView(dc models.DealtCard) CardView {
	return CardView{
		CardID:              dc.Card.ID,
		CardNameEn:          dc.Card.NameEn,
		CardNameCn:          dc.Card.NameCn,
		Suit:                string(dc.Card.Suit),
		CardNumber:          dc.Card.CardNumber,
		Arcana:              string(dc.Card.Arcana),
		Position:            dc.Position,
		PositionOrder:       dc.PositionOrder,
		PositionDescription: dc.PositionDescription,
		IsReversed:          dc.IsReversed,
		ImageURL:            dc.Card.ImageURL,
	}
}

func significatorView(card *models.Card, reason string) *CardView {
	if card == nil {
		return nil
	}
	return &CardView{
		CardID:              card.ID,
		CardNameEn:          card.NameEn,
		CardNameCn:          card.NameCn,
		Suit:                string(card.Suit),
		CardNumber:          card.CardNumber,
		Arcana:              string(card.Arcana),
		Position:            "significator",
		PositionDescription: reason,
		ImageURL:            card.ImageURL,
	}
}

// Event is one item of the reading's ordered stream. A transport layer
// adapts it to SSE by writing the JSON form as the event data. Fields are
// omitted unless the event's type/step carries them.
type Event struct {
	Type EventType `json:"type"`
	Step string    `json:"step,omitempty"`

	ReadingID string `json:"reading_id,omitempty"`
	Message   string `json:"message,omitempty"`

	QuestionAnalysis *models.QuestionAnalysis `json:"question_analysis,omitempty"`
	SpreadType       models.SpreadType        `json:"spread_type,omitempty"`

	Cards        []CardView `json:"cards,omitempty"`
	Significator *CardView  `json:"significator,omitempty"`

	PatternAnalysis *models.SpreadPatternAnalysis `json:"pattern_analysis,omitempty"`

	Progress       float64 `json:"progress,omitempty"`
	CompletedCards int     `json:"completed_cards,omitempty"`
	TotalCards     int     `json:"total_cards,omitempty"`
	CardID         string  `json:"card_id,omitempty"`
	CardName       string  `json:"card_name,omitempty"`

	Text               string `json:"text,omitempty"`
	ImageryDescription string `json:"imagery_description,omitempty"`

	Question    string `json:"question,omitempty"`
	TotalTimeMs int64  `json:"total_time_ms,omitempty"`

	Error string `json:"error,omitempty"`

	Timestamp string `json:"timestamp"`
}

func stamp(ev Event) Event {
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	return ev
}
