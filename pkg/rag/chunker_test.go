package rag

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortTextIsSingleChunk(t *testing.T) {
	c := NewChunker(400, 60)
	chunks := c.Chunk("a few short words", "doc1", "doc1")
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc1#1", chunks[0].ID)
	assert.Equal(t, "a few short words", chunks[0].Text)
}

func TestChunkLongTextOverlapsAndLabelsInOrder(t *testing.T) {
	c := NewChunker(4, 1) // 3 words/chunk, overlap ~1 word (round(4*.75)=3, round(1*.75)=1)
	words := make([]string, 20)
	for i := range words {
		words[i] = "w" + string(rune('a'+i))
	}
	text := strings.Join(words, " ")

	chunks := c.Chunk(text, "doc1", "doc1")
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, "doc1#"+strconv.Itoa(i+1), ch.ID)
		assert.NotEmpty(t, ch.Text)
	}

	// Dropping each chunk's leading overlap word reproduces the source
	// word sequence.
	var rebuilt []string
	for i, ch := range chunks {
		chunkWords := strings.Fields(ch.Text)
		if i > 0 {
			chunkWords = chunkWords[1:]
		}
		rebuilt = append(rebuilt, chunkWords...)
	}
	assert.Equal(t, words, rebuilt)
}

func TestChunkIdempotentOnItsOwnOutput(t *testing.T) {
	c := NewChunker(400, 60)
	source := strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit ", 40)
	first := c.Chunk(source, "doc1", "doc1")
	require.NotEmpty(t, first)

	for _, chunk := range first {
		rechunked := c.Chunk(chunk.Text, "doc1", "doc1")
		assert.Len(t, rechunked, 1, "rechunking one output chunk should yield exactly one chunk")
	}
}

func TestCleanTextNormalizesQuotesAndWhitespace(t *testing.T) {
	got := cleanText("  “Hello”   ‘world’\n\nnewline  ")
	assert.Equal(t, `"Hello" 'world' newline`, got)
}

func TestChunkEmptyTextYieldsNoChunks(t *testing.T) {
	c := NewChunker(400, 60)
	assert.Nil(t, c.Chunk("   ", "doc1", "doc1"))
}
