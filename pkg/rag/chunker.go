package rag

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/tarot-reading/pkg/models"
)

// Chunker is C4: a word-based sliding-window splitter with overlap.
type Chunker struct {
	wordsPerChunk int
	overlapWords  int
}

// NewChunker builds a Chunker from a target chunk size and overlap, both
// in approximate tokens; a token is approximated as 0.75 words.
func NewChunker(targetTokens, overlapTokens int) *Chunker {
	wordsPerChunk := int(math.Round(float64(targetTokens) * 0.75))
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}
	overlapWords := int(math.Round(float64(overlapTokens) * 0.75))
	if overlapWords < 0 {
		overlapWords = 0
	}
	if overlapWords >= wordsPerChunk {
		overlapWords = wordsPerChunk - 1
	}
	return &Chunker{wordsPerChunk: wordsPerChunk, overlapWords: overlapWords}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

func cleanText(text string) string {
	collapsed := whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(quoteReplacer.Replace(collapsed))
}

// Chunk splits text into word-bounded, overlapping chunks labeled
// "<baseID>#1", "<baseID>#2", ... in order. The last chunk may be short.
// A text with no words produces no chunks.
func (c *Chunker) Chunk(text, source, baseID string) []models.Chunk {
	cleaned := cleanText(text)
	if cleaned == "" {
		return nil
	}
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return nil
	}

	if len(words) <= c.wordsPerChunk {
		return []models.Chunk{{ID: baseID + "#1", Source: source, Text: cleaned}}
	}

	var chunks []models.Chunk
	start := 0
	num := 1
	for start < len(words) {
		end := start + c.wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.Chunk{
			ID:     fmt.Sprintf("%s#%d", baseID, num),
			Source: source,
			Text:   strings.Join(words[start:end], " "),
		})
		if end >= len(words) {
			break
		}
		start = end - c.overlapWords
		num++
	}
	return chunks
}
