package llmclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// openRouterBaseURL is OpenRouter's OpenAI-compatible API endpoint; the
// request/response shapes are otherwise identical to OpenAI's, which is
// why one backend implementation serves both providers.
const openRouterBaseURL = "https://openrouter.ai/api/v1"

// Client is the OpenAI-compatible ModelClient backend. The same type backs
// both the OpenAI and OpenRouter providers; only the underlying
// go-openai client's BaseURL differs.
type Client struct {
	raw *openai.Client
	log *slog.Logger
}

// NewOpenAI builds a ModelClient backed directly by the OpenAI API.
func NewOpenAI(apiKey string) *Client {
	return &Client{raw: openai.NewClient(apiKey), log: slog.Default().With("llm_provider", "openai")}
}

// NewOpenRouter builds a ModelClient backed by OpenRouter, using the exact
// same request/response contract as NewOpenAI with a different BaseURL.
func NewOpenRouter(apiKey string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = openRouterBaseURL
	return &Client{raw: openai.NewClientWithConfig(cfg), log: slog.Default().With("llm_provider", "openrouter")}
}

var _ ModelClient = (*Client)(nil)

// EmbedBatch implements ModelClient.
func (c *Client) EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.raw.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// Chat implements ModelClient. When opts.JSONMode is set, it first asks
// for a JSON-object response; if the backend rejects the response-format
// hint, it retries once without it and strips a fenced-code wrapper from
// whatever text comes back.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, temperature float64, opts ChatOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(temperature),
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.raw.CreateChatCompletion(ctx, req)
	if err != nil && opts.JSONMode {
		c.log.Warn("json response-format rejected, retrying without it", "model", model, "error", err)
		req.ResponseFormat = nil
		resp, err = c.raw.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}

	text := resp.Choices[0].Message.Content
	text = stripThinking(model, text)
	if opts.JSONMode {
		text = stripJSONFence(text)
	}
	return text, nil
}

// ChatStream implements ModelClient. Chunks are forwarded to the channel
// as they arrive off the wire; <think> stripping is intentionally not
// applied here (it requires seeing the whole response); callers that
// need it should use Chat instead.
func (c *Client) ChatStream(ctx context.Context, model string, messages []Message, temperature float64, opts ChatOptions) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 100)
	errs := make(chan error, 1)

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: float32(temperature),
		Stream:      true,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	go func() {
		defer close(chunks)
		defer close(errs)

		stream, err := c.raw.CreateChatCompletionStream(ctx, req)
		if err != nil {
			errs <- fmt.Errorf("create chat stream: %w", err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errs <- fmt.Errorf("chat stream recv: %w", err)
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			content := resp.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case chunks <- StreamChunk{Content: content}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errs
}
