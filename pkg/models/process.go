package models

// ProcessRow is one audit record for a single pipeline stage. Writes never
// block the pipeline: a failed write is logged and the reading proceeds.
type ProcessRow struct {
	ReadingID        string
	StepName         string
	StepOrder        int
	InputData        any
	OutputData       any
	PromptType       *string
	PromptContent    *string
	RAGQueries       any
	ModelUsed        *string
	Temperature      *float64
	ProcessingTimeMs int64
	TokensUsed       *int
	ErrorMessage     *string
	ErrorTraceback   *string
}

// Pipeline stage names used as ProcessRow.StepName / StepOrder.
const (
	StepQuestionAnalysis    = "question_analysis"
	StepPatternAnalysis     = "pattern_analysis"
	StepRAGRetrieval        = "rag_retrieval"
	StepImageryDescription  = "imagery_description"
	StepFinalInterpretation = "final_interpretation"
)

var stepOrder = map[string]int{
	StepQuestionAnalysis:    1,
	StepPatternAnalysis:     2,
	StepRAGRetrieval:        3,
	StepImageryDescription:  4,
	StepFinalInterpretation: 5,
}

// StepOrderFor returns the canonical 1-based order for a named stage, or 0
// if the name is not one of the recognized pipeline stages.
func StepOrderFor(step string) int {
	return stepOrder[step]
}
