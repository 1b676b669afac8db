package llmclient

import (
	"regexp"
	"strings"
)

// thinkingModels is the allow-list of model identifiers whose completions
// carry a private <think>...</think> prelude ahead of the actual answer.
// Centralizing the list here, rather than scattering model-name checks
// through the orchestrator, is the one place a new reasoning model needs
// to be added.
var thinkingModels = map[string]bool{
	"deepseek-reasoner":    true,
	"deepseek/deepseek-r1": true,
}

var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// stripThinking removes a <think>...</think> prelude from text when model
// is a known reasoning-model identifier, and collapses the blank lines
// that removal tends to leave behind.
func stripThinking(model, text string) string {
	if !thinkingModels[model] {
		return text
	}
	stripped := thinkTagRe.ReplaceAllString(text, "")
	stripped = blankLinesRe.ReplaceAllString(stripped, "\n\n")
	return strings.TrimSpace(stripped)
}
