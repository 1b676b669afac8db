// Package llmclient provides C1's ModelClient: a uniform call surface for
// embeddings and chat (streamed and non-streamed) over two interchangeable
// backends, OpenAI and OpenRouter, selected by a provider toggle.
package llmclient

import "context"

// Role names a chat message's speaker, matching the OpenAI chat schema.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat completion request.
type Message struct {
	Role    Role
	Content string
}

// ChatOptions controls the optional behaviors ModelClient.Chat layers on
// top of a plain completion.
type ChatOptions struct {
	// JSONMode asks the backend for a JSON-object response. If the backend
	// rejects the response-format hint, Chat retries once without it and
	// strips a fenced-code wrapper from the result if present.
	JSONMode bool
}

// StreamChunk is one opaque piece of a streamed chat response. Chunks
// concatenate in order to the full output; no semantic parsing of a
// partial chunk is attempted.
type StreamChunk struct {
	Content string
}

// ModelClient is the uniform surface the rest of the pipeline calls
// against, regardless of which backend is configured.
type ModelClient interface {
	// EmbedBatch returns one fixed-dimension embedding vector per input
	// text, in the same order.
	EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error)

	// Chat performs a single non-streaming completion.
	Chat(ctx context.Context, model string, messages []Message, temperature float64, opts ChatOptions) (string, error)

	// ChatStream performs a streaming completion. The returned channels are
	// both closed when the stream ends; at most one error is ever sent on
	// the error channel, and once it fires the chunk channel is done.
	ChatStream(ctx context.Context, model string, messages []Message, temperature float64, opts ChatOptions) (<-chan StreamChunk, <-chan error)
}
