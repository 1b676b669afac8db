package models

// QuestionDomain buckets the querent's question by subject area.
type QuestionDomain string

const (
	DomainLove           QuestionDomain = "love"
	DomainCareer         QuestionDomain = "career"
	DomainHealth         QuestionDomain = "health"
	DomainFinance        QuestionDomain = "finance"
	DomainPersonalGrowth QuestionDomain = "personal_growth"
	DomainGeneral        QuestionDomain = "general"
)

// QuestionComplexity is the analyzer's estimate of how much the question
// calls for (only populated when the spread was auto-selected).
type QuestionComplexity string

const (
	ComplexitySimple   QuestionComplexity = "simple"
	ComplexityModerate QuestionComplexity = "moderate"
	ComplexityComplex  QuestionComplexity = "complex"
)

// QuestionType classifies the intent shape of the question.
type QuestionType string

const (
	QuestionTypeSpecificEvent QuestionType = "specific_event"
	QuestionTypeRelationship  QuestionType = "relationship"
	QuestionTypeChoice        QuestionType = "choice"
	QuestionTypeGeneral       QuestionType = "general"
)

// SpreadType names a supported layout. WorkCycle and Other are recognized
// only as QuestionAnalyzer recommendations; CardSelector only knows how to
// deal ThreeCard and CelticCross.
type SpreadType string

const (
	SpreadThreeCard   SpreadType = "three_card"
	SpreadCelticCross SpreadType = "celtic_cross"
	SpreadWorkCycle   SpreadType = "work_cycle"
	SpreadOther       SpreadType = "other"
)

// QuestionAnalysis is the QuestionAnalyzer's structured read of the
// querent's question. Complexity and RecommendedSpread are nil when the
// querent picked the spread explicitly (no auto-analysis was needed).
type QuestionAnalysis struct {
	QuestionDomain     QuestionDomain      `json:"question_domain"`
	Complexity         *QuestionComplexity `json:"complexity"`
	QuestionType       QuestionType        `json:"question_type"`
	RecommendedSpread  *SpreadType         `json:"recommended_spread"`
	Reasoning          string              `json:"reasoning"`
	QuestionSummary    string              `json:"question_summary"`
	AutoSelectedSpread bool                `json:"auto_selected_spread"`
}
