package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripThinkingKnownModel(t *testing.T) {
	in := "<think>internal deliberation\nmore lines</think>\n\n\nfinal answer"
	got := stripThinking("deepseek-reasoner", in)
	assert.Equal(t, "final answer", got)
}

func TestStripThinkingUnknownModelPassesThrough(t *testing.T) {
	in := "<think>should stay</think>answer"
	assert.Equal(t, in, stripThinking("gpt-4o-mini", in))
}

func TestStripJSONFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripJSONFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripJSONFence(`{"a":1}`))
}
