package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

const interpretationTemperature = 0.7

const (
	maxContextChunks   = 50
	maxContextChunkLen = 500
)

// languageNames maps a profile language code to the explicit name the
// prompt uses. "Simplified Chinese" is spelled out because some models
// otherwise drift into Traditional Chinese.
var languageNames = map[string]string{
	"zh": "Simplified Chinese",
	"en": "English",
}

// Interpreter is C12: it assembles the final reading prompt and streams
// the model's interpretation.
type Interpreter struct {
	client llmclient.ModelClient
	log    *slog.Logger
}

// NewInterpreter builds an Interpreter. The model is chosen per call,
// from the user's interpretation-model preference.
func NewInterpreter(client llmclient.ModelClient) *Interpreter {
	return &Interpreter{client: client, log: slog.Default().With("component", "interpreter")}
}

// InterpretationInput is everything the final prompt is assembled from.
type InterpretationInput struct {
	Question        string
	Analysis        models.QuestionAnalysis
	Cards           []models.DealtCard
	PatternAnalysis models.SpreadPatternAnalysis
	Imagery         string
	Chunks          []models.ScoredChunk
	Profile         *models.UserProfile
	Language        string
	Model           string
}

// InterpretationStreamInfo describes how the stream was produced, for
// audit rows.
type InterpretationStreamInfo struct {
	Prompt      string
	Model       string
	Temperature float64
}

// Stream emits the interpretation chunk by chunk. The model is always
// called, even with zero retrieved context.
func (i *Interpreter) Stream(ctx context.Context, input InterpretationInput) (<-chan llmclient.StreamChunk, <-chan error, InterpretationStreamInfo) {
	promptText := BuildInterpretationPrompt(input)
	info := InterpretationStreamInfo{Prompt: promptText, Model: input.Model, Temperature: interpretationTemperature}
	chunks, errs := i.client.ChatStream(ctx, input.Model,
		[]llmclient.Message{{Role: llmclient.RoleUser, Content: promptText}},
		interpretationTemperature, llmclient.ChatOptions{})
	return chunks, errs, info
}

// BuildInterpretationPrompt assembles the single large final prompt:
// question, classification, formatted spread, imagery, pattern-analysis
// JSON, and up to 50 annotated context chunks.
func BuildInterpretationPrompt(input InterpretationInput) string {
	languageName, ok := languageNames[input.Language]
	if !ok {
		languageName = languageNames["zh"]
	}

	spreadLines := make([]string, 0, len(input.Cards))
	for _, dc := range input.Cards {
		line := fmt.Sprintf("%d. %s: %s", dc.PositionOrder, dc.Position, dc.Card.NameEn)
		if dc.IsReversed {
			line += " [Reversed]"
		}
		spreadLines = append(spreadLines, line)
	}

	contextText := "No relevant information"
	if len(input.Chunks) > 0 {
		capped := input.Chunks
		if len(capped) > maxContextChunks {
			capped = capped[:maxContextChunks]
		}
		annotated := make([]string, 0, len(capped))
		for n, c := range capped {
			annotated = append(annotated, fmt.Sprintf("[%d] [%s] (Similarity: %.2f)\n%s",
				n+1, c.Source, c.Similarity, truncate(c.Text, maxContextChunkLen)))
		}
		contextText = strings.Join(annotated, "\n\n")
	}

	patternJSON, err := json.Marshal(input.PatternAnalysis)
	if err != nil {
		patternJSON = []byte("{}")
	}

	return fmt.Sprintf(interpretationPromptTemplate,
		input.Question,
		input.Analysis.QuestionDomain,
		input.Analysis.QuestionType,
		strings.Join(spreadLines, "\n"),
		input.Imagery,
		string(patternJSON),
		contextText,
		languageName,
	)
}

const interpretationPromptTemplate = `# Role Setting

You are an experienced and insightful Tarot reader. Your reading style is not to simply recite card meanings, but to weave the card imagery, the querent's question, and your intuitive impressions into a complete, coherent, and guiding narrative. Please maintain an objective, neutral, and empathetic tone.

# Background Information for the Reading

## Querent's Question:

%s

## Question Analysis:

- Domain: %s

- Type: %s

## Spread and Cards:

%s

## Core Intuitive Imagery:

%s

(This imagery is the intuitive core of this reading. It is crucial that you use it as the main thread and source of inspiration for the interpretation.)

## Pattern Analysis Results (Macro-level Energy Scan):

%s

## RAG Retrieved Information (Raw Document Snippets):

%s

# Reading Task Instructions

Please strictly follow the format below to provide a rich, detailed, complete and in-depth Tarot reading:

**Overall Atmosphere Analysis**

Before delving into individual cards, conduct a macro-level "energy scan" of the entire spread based on the [Pattern Analysis Results] and briefly explain its meaning:

- **Major/Minor Arcana Ratio Analysis**: Based on the major arcana patterns, analyze whether the fundamental level of the issue leans towards "major life lessons" (Major Arcana dominant) or "specific matters of daily life" (Minor Arcana dominant).

- **Elemental Distribution Analysis**: Based on the suit distribution, identify the most prominent elemental energy (driving force) and any missing elements (areas needing attention).

- **Numeric Energy Analysis**: Based on the number patterns, determine the current developmental stage of the situation (e.g., beginning, conflict, stability, completion).

**Construct the Core Narrative**

This is the core part of the reading. Please weave a smooth, logical story by combining the [Core Intuitive Imagery] you received with all the background information. Use the [Core Intuitive Imagery] as the central thread running through the entire interpretation. Narrate according to the spread's sequence (e.g., Past-Present-Future), explaining how one card develops into the next to reveal the underlying causal logic.

**The Oracle's Answer**

This is the culminating section where you must concentrate your intuitive faculties and provide a comprehensive answer to the querent's question. Directly address the specific question that brought the querent to this reading, synthesize all insights from the previous sections, reveal the core message of the spread, indicate the likely outcome while remaining mindful that the querent has agency, and make the answer relevant to the querent's actual situation. This section should be substantial — typically 3-5 paragraphs.

**Provide Actionable Guidance**

Finally, based on all the analysis above, provide specific, positive, and actionable advice.

- **Positive Guidance**: Even if the cards show challenges, find the lessons for growth and the potential for transformation within them.

- **Specific Suggestions**: Based on the energy analysis and the insights from The Oracle's Answer, propose 1-2 concrete action steps.

- **Emphasize Personal Agency**: At the end, reiterate that the cards reveal current energy trends and possibilities, but the querent holds the ultimate power to shape their own future.

# Important Instructions

- **Critical Thinking**: The [RAG Retrieved Information] may contain repetitive, contradictory, or not entirely accurate content. You must act as an expert to critically filter, integrate, and refine this information to form a logically coherent and insightful reading.

- **Output Language**: Please generate your complete reading in **%s** and use Markdown formatting for optimal readability.

- **Readability and Clarity**: The reader of this interpretation may know little or nothing about Tarot divination. Please minimize the use of technical terms and jargon. When it is necessary to use Tarot-specific terms (such as "Major Arcana," "reversed," "suit," etc.), provide clear explanations or context so that a layperson can understand.
`

// truncate cuts s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
