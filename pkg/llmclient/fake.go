package llmclient

import "context"

// FakeClient is a hand-written ModelClient test double. ChatResponses is
// consumed in order by successive Chat/ChatStream calls so a test can
// script a JSON-parse-retry scenario (e.g. non-JSON on the first call,
// valid JSON on the second).
type FakeClient struct {
	ChatResponses  []string
	ChatErr        error
	EmbedDimension int
	chatCalls      int
}

var _ ModelClient = (*FakeClient)(nil)

// EmbedBatch returns a deterministic vector per text, built from the
// text's rune values, so retrieval tests can exercise cache/dedup logic
// without a real model.
func (f *FakeClient) EmbedBatch(_ context.Context, _ string, texts []string) ([][]float32, error) {
	dim := f.EmbedDimension
	if dim == 0 {
		dim = 8
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, dim)
		for j, r := range t {
			v[j%dim] += float32(r)
		}
		out[i] = v
	}
	return out, nil
}

// Chat returns ChatResponses[n] on the n-th call (clamped to the last
// entry once exhausted).
func (f *FakeClient) Chat(_ context.Context, _ string, _ []Message, _ float64, opts ChatOptions) (string, error) {
	if f.ChatErr != nil {
		return "", f.ChatErr
	}
	if len(f.ChatResponses) == 0 {
		return "", nil
	}
	idx := f.chatCalls
	if idx >= len(f.ChatResponses) {
		idx = len(f.ChatResponses) - 1
	}
	f.chatCalls++
	text := f.ChatResponses[idx]
	if opts.JSONMode {
		text = stripJSONFence(text)
	}
	return text, nil
}

// ChatStream splits the next scripted Chat response into one chunk per
// rune so progress-emission logic can be exercised deterministically.
func (f *FakeClient) ChatStream(ctx context.Context, model string, messages []Message, temperature float64, opts ChatOptions) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 64)
	errs := make(chan error, 1)

	text, err := f.Chat(ctx, model, messages, temperature, opts)

	go func() {
		defer close(chunks)
		defer close(errs)
		if err != nil {
			errs <- err
			return
		}
		for _, r := range text {
			select {
			case chunks <- StreamChunk{Content: string(r)}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errs
}
