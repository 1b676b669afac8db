// Package config holds the typed configuration surface this module needs:
// vector-store connection info, model provider credentials, and RAG tuning
// parameters. It intentionally does not implement a CLI or a YAML registry
// loader; that surface is an out-of-scope collaborator.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the full configuration surface for a reading pipeline run.
type Config struct {
	// VectorStoreDSN is a Postgres connection string for the pgvector-backed
	// corpus and reading store, using the regular (policy-restricted) role.
	VectorStoreDSN string

	// VectorStoreServiceDSN connects as the service role that bypasses
	// row-level policies; migrations and audit writes go through it. Falls
	// back to VectorStoreDSN when empty.
	VectorStoreServiceDSN string

	// OpenAIAPIKey and OpenRouterAPIKey are one-of: UseOpenRouter selects
	// the provider, and that provider's key must be set.
	OpenAIAPIKey     string
	OpenRouterAPIKey string
	UseOpenRouter    bool

	// ModelPreset selects a named chat/embedding model pair. Unknown presets
	// fall back to "gpt4omini_fast".
	ModelPreset string

	Environment string
	LogLevel    string

	CORSOrigins []string
	FrontendURL string
	APIV1Prefix string

	RAG RAGConfig
}

// RAGConfig holds the chunk/retrieval tuning parameters.
type RAGConfig struct {
	ChunkSize          int
	ChunkOverlap       int
	TopK               int
	Temperature        float64
	EmbeddingDimension int
}

// Defaults returns the hardcoded defaults the original service ships,
// independent of environment variables.
func Defaults() Config {
	return Config{
		ModelPreset: "gpt4omini_fast",
		Environment: "development",
		LogLevel:    "INFO",
		CORSOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		FrontendURL: "http://localhost:3000",
		APIV1Prefix: "/api/v1",
		RAG: RAGConfig{
			ChunkSize:          400,
			ChunkOverlap:       60,
			TopK:               6,
			Temperature:        0.1,
			EmbeddingDimension: 1536,
		},
	}
}

// modelIDs is the backend-specific identifier for a short, user-facing
// model preference, for each of the two provider backends.
type modelIDs struct {
	OpenAI     string
	OpenRouter string
}

// modelPresets maps short preference keys (as used in ModelPreset and in a
// per-request interpretation-model override) to backend-specific ids.
// Unknown keys fall back to "gpt4omini".
var modelPresets = map[string]modelIDs{
	"gpt4omini":      {OpenAI: "gpt-4o-mini", OpenRouter: "openai/gpt-4o-mini"},
	"gpt4o":          {OpenAI: "gpt-4o", OpenRouter: "openai/gpt-4o"},
	"deepseek":       {OpenAI: "deepseek-chat", OpenRouter: "deepseek/deepseek-chat"},
	"deepseek_r1":    {OpenAI: "deepseek-reasoner", OpenRouter: "deepseek/deepseek-r1"},
	"gemini_2.5_pro": {OpenAI: "gemini-2.5-pro", OpenRouter: "google/gemini-2.5-pro"},
}

// ModelSet is the resolved model identifiers for every chat stage plus
// the embedding model.
type ModelSet struct {
	QuestionAnalysis string
	Imagery          string
	Interpretation   string
	Embedding        string
}

func (c Config) resolveModelID(preference string) string {
	ids, ok := modelPresets[preference]
	if !ok {
		ids = modelPresets["gpt4omini"]
	}
	if c.UseOpenRouter {
		return ids.OpenRouter
	}
	return ids.OpenAI
}

// ResolveModels returns the three chat-stage models plus the embedding
// model for the configured ModelPreset; all three stages share the preset.
// The orchestrator does not use the Interpretation entry: it resolves the
// interpretation model per request via ResolveInterpretationModel, which
// defaults to "gpt4omini".
func (c Config) ResolveModels() ModelSet {
	chat := c.resolveModelID(strings.TrimSuffix(c.ModelPreset, "_fast"))
	embedding := "text-embedding-3-small"
	if c.UseOpenRouter {
		embedding = "openai/text-embedding-3-small"
	}
	return ModelSet{
		QuestionAnalysis: chat,
		Imagery:          chat,
		Interpretation:   chat,
		Embedding:        embedding,
	}
}

// ServiceDSN returns the policy-bypassing connection string, falling back
// to the regular one when no service credential is configured.
func (c Config) ServiceDSN() string {
	if c.VectorStoreServiceDSN != "" {
		return c.VectorStoreServiceDSN
	}
	return c.VectorStoreDSN
}

// ResolveInterpretationModel resolves a user-supplied interpretation-model
// preference (e.g. Request.InterpretationModelPreference), defaulting to
// "gpt4omini" when the caller didn't specify one.
func (c Config) ResolveInterpretationModel(preference string) string {
	if preference == "" {
		preference = "gpt4omini"
	}
	return c.resolveModelID(preference)
}

// Validate checks that the config can drive a reading: a vector store DSN
// and the credential of the provider selected by UseOpenRouter must be
// present.
func (c Config) Validate() error {
	if c.VectorStoreDSN == "" {
		return newValidationError("VectorStoreDSN", ErrMissingRequiredField)
	}
	if c.UseOpenRouter && c.OpenRouterAPIKey == "" {
		return newValidationError("OpenRouterAPIKey", ErrNoCredentials)
	}
	if !c.UseOpenRouter && c.OpenAIAPIKey == "" {
		return newValidationError("OpenAIAPIKey", ErrNoCredentials)
	}
	if c.RAG.TopK < 1 {
		return newValidationError("RAG.TopK", ErrInvalidValue)
	}
	return nil
}

// LoadFromEnv builds a Config from environment variables, layering over
// Defaults(). It does not read a .env file itself; callers that want that
// call godotenv.Load before invoking this.
func LoadFromEnv() (Config, error) {
	cfg := Defaults()

	cfg.VectorStoreDSN = expandEnv(os.Getenv("VECTOR_STORE_DSN"))
	cfg.VectorStoreServiceDSN = expandEnv(os.Getenv("VECTOR_STORE_SERVICE_DSN"))
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.UseOpenRouter = envBool("USE_OPENROUTER", false)

	if v := os.Getenv("MODEL_PRESET"); v != "" {
		cfg.ModelPreset = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		cfg.FrontendURL = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitAndTrim(v)
	}

	if v, err := envInt("RAG_CHUNK_SIZE"); err != nil {
		return Config{}, newValidationError("RAG.ChunkSize", err)
	} else if v != 0 {
		cfg.RAG.ChunkSize = v
	}
	if v, err := envInt("RAG_CHUNK_OVERLAP"); err != nil {
		return Config{}, newValidationError("RAG.ChunkOverlap", err)
	} else if v != 0 {
		cfg.RAG.ChunkOverlap = v
	}
	if v, err := envInt("RAG_TOP_K"); err != nil {
		return Config{}, newValidationError("RAG.TopK", err)
	} else if v != 0 {
		cfg.RAG.TopK = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
