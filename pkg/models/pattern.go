package models

// PositionRelationships describes the narrative flow across the spread's
// positions in order.
type PositionRelationships struct {
	TimeFlow            string   `json:"time_flow"`
	CausalRelationships []string `json:"causal_relationships"`
	SupportConflict     string   `json:"support_conflict"`
}

// NumberPatterns groups minor-arcana card numbers across the spread.
type NumberPatterns struct {
	SameNumbers []string `json:"same_numbers"`
	Sequences   []string `json:"sequences"`
	Jumps       []string `json:"jumps"`
}

// SuitDistribution counts dealt cards per suit and per major arcana, with
// an interpretation of which category dominates.
type SuitDistribution struct {
	WandsCount     int    `json:"wands_count"`
	CupsCount      int    `json:"cups_count"`
	SwordsCount    int    `json:"swords_count"`
	PentaclesCount int    `json:"pentacles_count"`
	MajorCount     int    `json:"major_count"`
	Interpretation string `json:"interpretation"`
}

// MajorArcanaPattern reports how many major-arcana cards appeared and
// where, with an interpretation bucketed by count.
type MajorArcanaPattern struct {
	Count          int      `json:"count"`
	Positions      []string `json:"positions"`
	Interpretation string   `json:"interpretation"`
}

// ReversedPattern reports how many dealt cards are reversed and where,
// with an interpretation bucketed by the reversed fraction.
type ReversedPattern struct {
	Count          int      `json:"count"`
	Positions      []string `json:"positions"`
	Interpretation string   `json:"interpretation"`
}

// SpreadPatternAnalysis is the deterministic cross-card structural read of
// a dealt spread: positional flow, numerology, suit balance, and any
// special combinations the code-based analyzer detects.
type SpreadPatternAnalysis struct {
	PositionRelationships PositionRelationships `json:"position_relationships"`
	NumberPatterns        NumberPatterns        `json:"number_patterns"`
	SuitDistribution      SuitDistribution      `json:"suit_distribution"`
	MajorArcanaPatterns   MajorArcanaPattern    `json:"major_arcana_patterns"`
	ReversedPatterns      ReversedPattern       `json:"reversed_patterns"`
	SpecialCombinations   []string              `json:"special_combinations"`
}
