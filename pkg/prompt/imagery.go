package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/llmclient"
	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// imageryTemperature is high: the imagery is meant to be evocative.
const imageryTemperature = 0.7

// FallbackImagery is emitted, without a model call, when the per-card
// retrieval surfaced no visual descriptions at all.
const FallbackImagery = "基于牌阵的视觉意象，这些牌共同构成了一个独特的画面，反映了当前问题的核心能量。"

// visualKeywords mark a chunk as describing the card's picture rather
// than its meaning.
var visualKeywords = []string{"image", "visual", "appearance", "depicts", "shows", "picture", "illustration"}

const (
	maxVisualChunksPerCard = 3
	maxVisualChunkChars    = 300
)

const imageryPromptTemplate = `You are an experienced Tarot reader. Based on the visual descriptions of the following cards and the question domain, generate a comprehensive spread imagery description.

## Question Domain:
%s

## Cards in the Spread and Their Visual Descriptions:
%s

## Requirements:
Please generate a creative, imaginative, and aesthetically pleasing comprehensive imagery description, 3-5 sentences in length. This description should paint the entire spread as a vivid, symbolic picture.
1. **Creative Integration**: Do not merely list the visual elements of the cards, but fuse them into a coherent, dynamic scene or story.
2. **Deep Association**: Combine with the context of the question domain (%s), engage in divergent thinking, and explore the deeper symbols and metaphors behind the imagery.
3. **Atmosphere Creation**: Vividly depict the overall energy, atmosphere, and emotional tone of the spread.
4. **Beautiful Language**: Output in Chinese, with poetic and vivid language that captivates.

**Important Note**: The visual descriptions provided by RAG may contain duplicate or inaccurate information. Please use critical thinking to filter and integrate the information, creating the most appropriate and inspiring imagery.

Please output the imagery description directly without any other explanations.`

// ImageryGenerator is C11: it streams a poetic synthesis of the spread's
// visual elements.
type ImageryGenerator struct {
	client llmclient.ModelClient
	model  string
	log    *slog.Logger
}

// NewImageryGenerator builds an ImageryGenerator calling the given model.
func NewImageryGenerator(client llmclient.ModelClient, model string) *ImageryGenerator {
	return &ImageryGenerator{client: client, model: model, log: slog.Default().With("component", "imagery_generator")}
}

// ImageryStreamInfo describes how the stream was produced, for audit
// rows.
type ImageryStreamInfo struct {
	Prompt      string
	Model       string
	Temperature float64
	Fallback    bool
}

// Stream emits the imagery description chunk by chunk. When the per-card
// retrieval holds no visual descriptions, it emits FallbackImagery as a
// single chunk without calling the model.
func (g *ImageryGenerator) Stream(ctx context.Context, cards []models.DealtCard, cardInfo map[string]models.CardRetrieval, domain models.QuestionDomain) (<-chan llmclient.StreamChunk, <-chan error, ImageryStreamInfo) {
	visualInfo := collectVisualDescriptions(cards, cardInfo)
	if visualInfo == "" {
		g.log.Warn("no visual descriptions found in retrieval results, using fallback imagery")
		chunks := make(chan llmclient.StreamChunk, 1)
		errs := make(chan error)
		chunks <- llmclient.StreamChunk{Content: FallbackImagery}
		close(chunks)
		close(errs)
		return chunks, errs, ImageryStreamInfo{Fallback: true}
	}

	promptText := fmt.Sprintf(imageryPromptTemplate, domain, visualInfo, domain)
	info := ImageryStreamInfo{Prompt: promptText, Model: g.model, Temperature: imageryTemperature}
	chunks, errs := g.client.ChatStream(ctx, g.model,
		[]llmclient.Message{{Role: llmclient.RoleUser, Content: promptText}},
		imageryTemperature, llmclient.ChatOptions{})
	return chunks, errs, info
}

// collectVisualDescriptions pulls up to three keyword-matched chunks per
// card, truncated, formatted one card per block. Empty when nothing
// matched anywhere.
func collectVisualDescriptions(cards []models.DealtCard, cardInfo map[string]models.CardRetrieval) string {
	var blocks []string
	for _, dc := range cards {
		info, ok := cardInfo[dc.Card.ID]
		if !ok {
			continue
		}
		var texts []string
		for _, chunk := range info.Chunks {
			if !isVisualChunk(chunk.Text) {
				continue
			}
			text := truncate(chunk.Text, maxVisualChunkChars)
			texts = append(texts, text)
			if len(texts) >= maxVisualChunksPerCard {
				break
			}
		}
		if len(texts) == 0 {
			continue
		}

		var b strings.Builder
		b.WriteString(dc.Card.NameEn)
		if dc.Position != "" {
			fmt.Fprintf(&b, " (%s position)", dc.Position)
		}
		if dc.IsReversed {
			b.WriteString(" [Reversed]")
		}
		b.WriteString(":\n")
		for _, t := range texts {
			fmt.Fprintf(&b, "  - %s\n", t)
		}
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func isVisualChunk(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range visualKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
