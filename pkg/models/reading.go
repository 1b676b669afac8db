package models

import "time"

// ReadingStatus is the reading's position in its lifecycle.
type ReadingStatus string

const (
	StatusPending      ReadingStatus = "pending"
	StatusCardSelected ReadingStatus = "card_selected"
	StatusCompleted    ReadingStatus = "completed"
	StatusError        ReadingStatus = "error"
)

// SignificatorPriority picks which profile signal wins when more than one
// could determine the significator's suit.
type SignificatorPriority string

const (
	PriorityQuestionFirst    SignificatorPriority = "question_first"
	PriorityPersonalityFirst SignificatorPriority = "personality_first"
	PriorityZodiacFirst      SignificatorPriority = "zodiac_first"
)

// UserProfile is the optional querent information used to derive a
// significator. Every field is independently optional.
type UserProfile struct {
	Age             *int    `json:"age,omitempty"`
	Gender          *string `json:"gender,omitempty"`
	ZodiacSign      *string `json:"zodiac_sign,omitempty"`
	PersonalityType *string `json:"personality_type,omitempty"`
}

// Request is the caller-supplied input to a reading.
type Request struct {
	Question                      string               `json:"question"`
	UserID                        *string              `json:"user_id,omitempty"`
	UserSelectedSpread            *string              `json:"user_selected_spread,omitempty"`
	UserProfile                   *UserProfile         `json:"user_profile,omitempty"`
	PreferredSource               string               `json:"preferred_source,omitempty"`
	SourcePage                    *string              `json:"source_page,omitempty"`
	SignificatorPriority          SignificatorPriority `json:"significator_priority,omitempty"`
	InterpretationModelPreference *string              `json:"interpretation_model_preference,omitempty"`
	OutputLanguage                string               `json:"output_language,omitempty"`
}

// Reading is the aggregate root for one tarot reading: the orchestrator is
// its sole writer for the reading's lifetime.
type Reading struct {
	ID          string
	Question    string
	UserID      *string
	SpreadType  SpreadType
	Status      ReadingStatus
	CurrentStep string
	SourcePage  *string

	QuestionAnalysis       *QuestionAnalysis
	SpreadReason           string
	SignificatorCard       *Card
	SignificatorReason     string
	DealtCards             []DealtCard
	PatternAnalysis        *SpreadPatternAnalysis
	ImageryDescription     string
	Interpretation         string
	InterpretationFullText string
	InterpretationSummary  string
	InterpretationMetadata map[string]any

	CreatedAt      time.Time
	CardSelectedAt *time.Time
	CompletedAt    *time.Time
	LastErrorAt    *time.Time
}
