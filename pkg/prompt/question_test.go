package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

func strPtr(v string) *string { return &v }

const validFullAnalysis = `{
	"question_domain": "career",
	"complexity": "simple",
	"question_type": "specific_event",
	"recommended_spread": "three_card",
	"reasoning": "short-term single-focus question",
	"question_summary": "career change this year"
}`

func TestAnalyzeAutoSelect(t *testing.T) {
	client := &llmclient.FakeClient{ChatResponses: []string{validFullAnalysis}}
	analyzer := NewQuestionAnalyzer(client, "gpt-4o-mini")

	result, err := analyzer.Analyze(context.Background(), "Will my career change this year?", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.DomainCareer, result.Analysis.QuestionDomain)
	assert.Equal(t, models.QuestionTypeSpecificEvent, result.Analysis.QuestionType)
	require.NotNil(t, result.Analysis.Complexity)
	assert.Equal(t, models.ComplexitySimple, *result.Analysis.Complexity)
	require.NotNil(t, result.Analysis.RecommendedSpread)
	assert.Equal(t, models.SpreadThreeCard, *result.Analysis.RecommendedSpread)
	assert.Equal(t, models.SpreadThreeCard, result.FinalSpread)
	assert.True(t, result.Analysis.AutoSelectedSpread)
	assert.False(t, result.Retried)
}

func TestAnalyzeUserSelectedSpreadWins(t *testing.T) {
	client := &llmclient.FakeClient{ChatResponses: []string{`{
		"question_domain": "love",
		"question_type": "relationship",
		"reasoning": "relationship question",
		"question_summary": "relationship development"
	}`}}
	analyzer := NewQuestionAnalyzer(client, "gpt-4o-mini")

	result, err := analyzer.Analyze(context.Background(), "How will our relationship develop?", nil, strPtr("celtic_cross"))
	require.NoError(t, err)

	assert.Equal(t, models.SpreadCelticCross, result.FinalSpread)
	assert.False(t, result.Analysis.AutoSelectedSpread)
	assert.Nil(t, result.Analysis.Complexity)
	assert.Nil(t, result.Analysis.RecommendedSpread)
}

func TestAnalyzeRetriesOnParseFailure(t *testing.T) {
	client := &llmclient.FakeClient{ChatResponses: []string{
		"I think this question is about career.",
		"```json\n" + validFullAnalysis + "\n```",
	}}
	analyzer := NewQuestionAnalyzer(client, "gpt-4o-mini")

	result, err := analyzer.Analyze(context.Background(), "Will my career change this year?", nil, strPtr("auto"))
	require.NoError(t, err)
	assert.True(t, result.Retried)
	assert.Equal(t, models.DomainCareer, result.Analysis.QuestionDomain)
}

func TestAnalyzeFailsAfterSecondParseFailure(t *testing.T) {
	client := &llmclient.FakeClient{ChatResponses: []string{"not json", "still not json"}}
	analyzer := NewQuestionAnalyzer(client, "gpt-4o-mini")

	_, err := analyzer.Analyze(context.Background(), "question", nil, nil)
	assert.ErrorIs(t, err, ErrLLMParse)
}

func TestAnalyzeDefaultsUnknownEnums(t *testing.T) {
	client := &llmclient.FakeClient{ChatResponses: []string{`{
		"question_domain": "astrology",
		"complexity": "trivial",
		"question_type": "prophecy",
		"recommended_spread": "grand_tableau",
		"reasoning": "",
		"question_summary": ""
	}`}}
	analyzer := NewQuestionAnalyzer(client, "gpt-4o-mini")

	result, err := analyzer.Analyze(context.Background(), "question", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.DomainGeneral, result.Analysis.QuestionDomain)
	assert.Equal(t, models.QuestionTypeGeneral, result.Analysis.QuestionType)
	require.NotNil(t, result.Analysis.Complexity)
	assert.Equal(t, models.ComplexityModerate, *result.Analysis.Complexity)
	require.NotNil(t, result.Analysis.RecommendedSpread)
	assert.Equal(t, models.SpreadThreeCard, *result.Analysis.RecommendedSpread)
}

func TestFinalSpreadDecision(t *testing.T) {
	celtic := models.SpreadCelticCross
	tests := []struct {
		name        string
		userChoice  *string
		recommended *models.SpreadType
		want        models.SpreadType
	}{
		{"explicit user choice wins", strPtr("three_card"), &celtic, models.SpreadThreeCard},
		{"auto falls through to recommendation", strPtr("auto"), &celtic, models.SpreadCelticCross},
		{"nil choice uses recommendation", nil, &celtic, models.SpreadCelticCross},
		{"nothing defaults to three_card", nil, nil, models.SpreadThreeCard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finalSpread(tt.userChoice, tt.recommended))
		})
	}
}
