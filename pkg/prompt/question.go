// Package prompt implements the LLM-facing stages: C9 QuestionAnalyzer,
// C11 ImageryGenerator, and C12 Interpreter. Each is prompt assembly plus
// a ModelClient call; no retrieval or persistence happens here.
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

// questionAnalysisTemperature keeps the classification stable.
const questionAnalysisTemperature = 0.3

// fullQuestionPrompt is used when no spread was user-chosen: the model
// also judges complexity and recommends a spread.
const fullQuestionPrompt = `You are an experienced Tarot reader. Please analyze the following question and return the analysis result in JSON format.

## Question:
%s

## User Information (Optional):
%s

## Analysis Requirements:
1. **Question Domain**: Identify the domain of the question, choose one from the following options:
   - 'love': Love, relationships, emotions
   - 'career': Career, work, profession
   - 'health': Health, body, recovery
   - 'finance': Finance, money, material matters
   - 'personal_growth': Personal growth, spirituality, self-exploration
   - 'general': General life, comprehensive questions

2. **Question Complexity**: Judge based on the scope, depth, and time span of the question.
   - 'simple': Short-term, specific, single-focus questions. Examples: "Will I succeed in this interview?" or "How will my finances be next month?"
   - 'moderate': Questions involving multiple factors but with a clear core issue. Example: "How should I improve my relationship with my partner?"
   - 'complex': Questions involving long-term development, major life decisions, deep psychological exploration, or multiple interrelated complex issues.

3. **Question Type**:
   - 'specific_event': Specific events (e.g., "Will I get this job?")
   - 'relationship': Relationship questions (e.g., "How will our relationship develop?")
   - 'choice': Choice questions (e.g., "Which direction should I choose?")
   - 'general': General questions (e.g., "What will my future be like?")

4. **Recommended Spread**:
   - 'three_card': Three-card spread
   - 'celtic_cross': Celtic Cross
   - 'work_cycle': Work cycle (if ongoing advice is needed)
   - 'other': Other (explain reason)

## Output Format (JSON):
{
    "question_domain": "love",
    "complexity": "simple",
    "question_type": "relationship",
    "recommended_spread": "three_card",
    "reasoning": "This is a simple relationship question, a three-card spread can clearly answer the past-present-future development",
    "question_summary": "Brief summary of the question core"
}

Please ensure you return valid JSON format without any other text.`

// simplifiedQuestionPrompt is used when the querent already picked a
// spread: only domain and type are asked for.
const simplifiedQuestionPrompt = `You are an experienced Tarot reader. Please analyze the following question and return the analysis result in JSON format.

## Question:
%s

## User Information (Optional):
%s

## Analysis Requirements:
1. **Question Domain**: Identify the domain of the question, choose one from the following options:
   - 'love': Love, relationships, emotions
   - 'career': Career, work, profession
   - 'health': Health, body, recovery
   - 'finance': Finance, money, material matters
   - 'personal_growth': Personal growth, spirituality, self-exploration
   - 'general': General life, comprehensive questions

2. **Question Type**:
   - 'specific_event': Specific events (e.g., "Will I get this job?")
   - 'relationship': Relationship questions (e.g., "How will our relationship develop?")
   - 'choice': Choice questions (e.g., "Which direction should I choose?")
   - 'general': General questions (e.g., "What will my future be like?")

## Output Format (JSON):
{
    "question_domain": "love",
    "question_type": "relationship",
    "reasoning": "This is a relationship question",
    "question_summary": "Brief summary of the question core"
}

Please ensure you return valid JSON format without any other text.`

// QuestionAnalyzer is C9.
type QuestionAnalyzer struct {
	client llmclient.ModelClient
	model  string
	log    *slog.Logger
}

// NewQuestionAnalyzer builds a QuestionAnalyzer calling the given model.
func NewQuestionAnalyzer(client llmclient.ModelClient, model string) *QuestionAnalyzer {
	return &QuestionAnalyzer{client: client, model: model, log: slog.Default().With("component", "question_analyzer")}
}

// QuestionAnalysisResult is the analyzer's output plus the final spread
// decision and the prompt that produced it (for audit rows).
type QuestionAnalysisResult struct {
	Analysis    models.QuestionAnalysis
	FinalSpread models.SpreadType
	Prompt      string
	Model       string
	Temperature float64
	Retried     bool
}

// rawQuestionAnalysis is the wire shape the model returns.
type rawQuestionAnalysis struct {
	QuestionDomain    string `json:"question_domain"`
	Complexity        string `json:"complexity"`
	QuestionType      string `json:"question_type"`
	RecommendedSpread string `json:"recommended_spread"`
	Reasoning         string `json:"reasoning"`
	QuestionSummary   string `json:"question_summary"`
}

// Analyze classifies the question. userSelectedSpread nil or "auto" means
// the model also recommends a spread; the final spread decision is the
// user's choice when given, else the recommendation, else three_card.
// A JSON parse failure is retried once without the response-format hint.
func (a *QuestionAnalyzer) Analyze(ctx context.Context, question string, profile *models.UserProfile, userSelectedSpread *string) (QuestionAnalysisResult, error) {
	autoSelect := userSelectedSpread == nil || *userSelectedSpread == "" || *userSelectedSpread == "auto"

	template := simplifiedQuestionPrompt
	if autoSelect {
		template = fullQuestionPrompt
	}
	promptText := fmt.Sprintf(template, question, formatProfile(profile))
	messages := []llmclient.Message{{Role: llmclient.RoleUser, Content: promptText}}

	result := QuestionAnalysisResult{
		Prompt:      promptText,
		Model:       a.model,
		Temperature: questionAnalysisTemperature,
	}

	text, err := a.client.Chat(ctx, a.model, messages, questionAnalysisTemperature, llmclient.ChatOptions{JSONMode: true})
	if err != nil {
		return result, fmt.Errorf("question analysis call: %w", err)
	}

	var raw rawQuestionAnalysis
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		a.log.Warn("question analysis returned unparseable JSON, retrying without response format", "error", err)
		result.Retried = true
		text, err = a.client.Chat(ctx, a.model, messages, questionAnalysisTemperature, llmclient.ChatOptions{})
		if err != nil {
			return result, fmt.Errorf("question analysis retry call: %w", err)
		}
		if err := json.Unmarshal([]byte(stripFence(text)), &raw); err != nil {
			return result, fmt.Errorf("%w: question analysis JSON invalid after retry: %v", ErrLLMParse, err)
		}
	}

	result.Analysis = a.validate(raw, autoSelect)
	result.FinalSpread = finalSpread(userSelectedSpread, result.Analysis.RecommendedSpread)
	result.Analysis.AutoSelectedSpread = autoSelect
	return result, nil
}

// validate coerces the raw enums, defaulting unknown values with a
// warning rather than failing the stage.
func (a *QuestionAnalyzer) validate(raw rawQuestionAnalysis, autoSelect bool) models.QuestionAnalysis {
	analysis := models.QuestionAnalysis{
		Reasoning:       raw.Reasoning,
		QuestionSummary: raw.QuestionSummary,
	}

	switch models.QuestionDomain(raw.QuestionDomain) {
	case models.DomainLove, models.DomainCareer, models.DomainHealth, models.DomainFinance, models.DomainPersonalGrowth, models.DomainGeneral:
		analysis.QuestionDomain = models.QuestionDomain(raw.QuestionDomain)
	default:
		a.log.Warn("invalid question_domain, defaulting to general", "value", raw.QuestionDomain)
		analysis.QuestionDomain = models.DomainGeneral
	}

	switch models.QuestionType(raw.QuestionType) {
	case models.QuestionTypeSpecificEvent, models.QuestionTypeRelationship, models.QuestionTypeChoice, models.QuestionTypeGeneral:
		analysis.QuestionType = models.QuestionType(raw.QuestionType)
	default:
		a.log.Warn("invalid question_type, defaulting to general", "value", raw.QuestionType)
		analysis.QuestionType = models.QuestionTypeGeneral
	}

	if autoSelect {
		complexity := models.QuestionComplexity(raw.Complexity)
		switch complexity {
		case models.ComplexitySimple, models.ComplexityModerate, models.ComplexityComplex:
		default:
			a.log.Warn("invalid complexity, defaulting to moderate", "value", raw.Complexity)
			complexity = models.ComplexityModerate
		}
		analysis.Complexity = &complexity

		spread := models.SpreadType(raw.RecommendedSpread)
		switch spread {
		case models.SpreadThreeCard, models.SpreadCelticCross, models.SpreadWorkCycle, models.SpreadOther:
		default:
			a.log.Warn("invalid recommended_spread, defaulting to three_card", "value", raw.RecommendedSpread)
			spread = models.SpreadThreeCard
		}
		analysis.RecommendedSpread = &spread
	}

	return analysis
}

// finalSpread applies the decision rule: the user's explicit selection
// wins, then the recommendation, then three_card.
func finalSpread(userSelected *string, recommended *models.SpreadType) models.SpreadType {
	if userSelected != nil && *userSelected != "" && *userSelected != "auto" {
		return models.SpreadType(*userSelected)
	}
	if recommended != nil {
		return *recommended
	}
	return models.SpreadThreeCard
}

func formatProfile(profile *models.UserProfile) string {
	if profile == nil {
		return "None"
	}
	var parts []string
	if profile.Age != nil {
		parts = append(parts, fmt.Sprintf("Age: %d", *profile.Age))
	}
	if profile.Gender != nil {
		parts = append(parts, fmt.Sprintf("Gender: %s", *profile.Gender))
	}
	if profile.ZodiacSign != nil {
		parts = append(parts, fmt.Sprintf("Zodiac Sign: %s", *profile.ZodiacSign))
	}
	if profile.PersonalityType != nil {
		parts = append(parts, fmt.Sprintf("Personality Type: %s", *profile.PersonalityType))
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "\n")
}

// stripFence removes a markdown code fence a non-JSON-mode retry tends to
// wrap around the payload.
func stripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
