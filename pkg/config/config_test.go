package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchOriginalService(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 400, d.RAG.ChunkSize)
	assert.Equal(t, 60, d.RAG.ChunkOverlap)
	assert.Equal(t, 6, d.RAG.TopK)
	assert.Equal(t, 0.1, d.RAG.Temperature)
	assert.Equal(t, 1536, d.RAG.EmbeddingDimension)
	assert.Equal(t, "gpt4omini_fast", d.ModelPreset)
}

func TestResolveModelsBranchesOnProvider(t *testing.T) {
	direct := Config{UseOpenRouter: false, ModelPreset: "gpt4omini_fast"}
	want := ModelSet{QuestionAnalysis: "gpt-4o-mini", Imagery: "gpt-4o-mini", Interpretation: "gpt-4o-mini", Embedding: "text-embedding-3-small"}
	assert.Equal(t, want, direct.ResolveModels())

	routed := Config{UseOpenRouter: true, ModelPreset: "gpt4omini_fast"}
	wantRouted := ModelSet{QuestionAnalysis: "openai/gpt-4o-mini", Imagery: "openai/gpt-4o-mini", Interpretation: "openai/gpt-4o-mini", Embedding: "openai/text-embedding-3-small"}
	assert.Equal(t, wantRouted, routed.ResolveModels())
}

func TestResolveInterpretationModelDefaultsAndOverrides(t *testing.T) {
	cfg := Config{UseOpenRouter: false}
	assert.Equal(t, "gpt-4o-mini", cfg.ResolveInterpretationModel(""))
	assert.Equal(t, "deepseek-chat", cfg.ResolveInterpretationModel("deepseek"))
	assert.Equal(t, "gpt-4o-mini", cfg.ResolveInterpretationModel("unknown-preference"))
}

func TestValidateRequiresDSNAndCredentials(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)

	cfg.VectorStoreDSN = "postgres://localhost/tarot"
	err = cfg.Validate()
	require.Error(t, err)

	cfg.OpenAIAPIKey = "sk-test"
	require.NoError(t, cfg.Validate())
}

func TestServiceDSNFallsBack(t *testing.T) {
	cfg := Config{VectorStoreDSN: "postgres://reader@localhost/tarot"}
	assert.Equal(t, "postgres://reader@localhost/tarot", cfg.ServiceDSN())

	cfg.VectorStoreServiceDSN = "postgres://service@localhost/tarot"
	assert.Equal(t, "postgres://service@localhost/tarot", cfg.ServiceDSN())
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" http://a.com, http://b.com ,,")
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, got)
}
