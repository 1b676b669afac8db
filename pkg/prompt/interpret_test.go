package prompt

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

func interpretationInput() InterpretationInput {
	return InterpretationInput{
		Question: "Will my career change this year?",
		Analysis: models.QuestionAnalysis{
			QuestionDomain: models.DomainCareer,
			QuestionType:   models.QuestionTypeSpecificEvent,
		},
		Cards: []models.DealtCard{
			dealtCard("c1", "Ace of Wands", "past", 1, false),
			dealtCard("c2", "The Tower", "present", 2, true),
			dealtCard("c3", "The Sun", "future", 3, false),
		},
		Imagery:  "雾中古桥横跨激流。",
		Language: "zh",
		Model:    "gpt-4o-mini",
	}
}

func TestBuildInterpretationPromptContents(t *testing.T) {
	input := interpretationInput()
	input.Chunks = []models.ScoredChunk{
		visualChunk("k1", "Wands signify enterprise and energy.", 0.91),
	}

	text := BuildInterpretationPrompt(input)

	assert.Contains(t, text, "Will my career change this year?")
	assert.Contains(t, text, "- Domain: career")
	assert.Contains(t, text, "- Type: specific_event")
	assert.Contains(t, text, "1. past: Ace of Wands")
	assert.Contains(t, text, "2. present: The Tower [Reversed]")
	assert.Contains(t, text, "雾中古桥横跨激流。")
	assert.Contains(t, text, "[1] [pkt] (Similarity: 0.91)")
	assert.Contains(t, text, "**Simplified Chinese**")
}

func TestBuildInterpretationPromptEnglish(t *testing.T) {
	input := interpretationInput()
	input.Language = "en"

	text := BuildInterpretationPrompt(input)
	assert.Contains(t, text, "**English**")
	assert.Contains(t, text, "No relevant information")
}

func TestBuildInterpretationPromptCapsChunks(t *testing.T) {
	input := interpretationInput()
	for i := 0; i < 60; i++ {
		input.Chunks = append(input.Chunks, visualChunk(
			fmt.Sprintf("k%d", i), fmt.Sprintf("chunk text %d", i), 0.9-float64(i)*0.001))
	}

	text := BuildInterpretationPrompt(input)

	assert.Contains(t, text, "[50] ")
	assert.NotContains(t, text, "[51] ")
}

func TestBuildInterpretationPromptTruncatesLongChunks(t *testing.T) {
	input := interpretationInput()
	input.Chunks = []models.ScoredChunk{
		visualChunk("k1", strings.Repeat("x", 600), 0.9),
	}

	text := BuildInterpretationPrompt(input)
	assert.Contains(t, text, strings.Repeat("x", 500)+"...")
	assert.NotContains(t, text, strings.Repeat("x", 501))
}

func TestInterpreterStreams(t *testing.T) {
	client := &llmclient.FakeClient{ChatResponses: []string{"整体而言，牌阵显示转机。"}}
	interpreter := NewInterpreter(client)

	chunks, errs, info := interpreter.Stream(context.Background(), interpretationInput())
	text, err := drain(chunks, errs)
	require.NoError(t, err)

	assert.Equal(t, "整体而言，牌阵显示转机。", text)
	assert.Equal(t, "gpt-4o-mini", info.Model)
	assert.NotEmpty(t, info.Prompt)
	assert.Equal(t, interpretationTemperature, info.Temperature)
}
