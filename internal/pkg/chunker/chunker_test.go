package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Options(t *testing.T) {
	assert.Equal(t, DefaultMaxTokens, New().MaxTokens())
	assert.Equal(t, 10, New(WithMaxTokens(10)).MaxTokens())
	assert.Equal(t, DefaultMaxTokens, New(WithMaxTokens(0)).MaxTokens())
}

func TestSplit_EmptyAndBlank(t *testing.T) {
	c := New()
	assert.Empty(t, c.Split(""))
	assert.Empty(t, c.Split("\n\n   \n\t\n"))
}

func TestSplit_PacksSmallParagraphs(t *testing.T) {
	c := New(WithMaxTokens(10))
	chunks := c.Split("one two three\n\nfour five\n\n\n\nsix seven eight nine ten eleven")

	require.Len(t, chunks, 2)
	assert.Equal(t, "one two three\n\nfour five", chunks[0])
	assert.Equal(t, "six seven eight nine ten eleven", chunks[1])
}

func TestSplit_LongParagraphUsesSentences(t *testing.T) {
	c := New(WithMaxTokens(6))
	chunks := c.Split("First sentence is here. Second one follows! Is this the third?")

	require.Len(t, chunks, 3)
	assert.Equal(t, "First sentence is here.", chunks[0])
	assert.Equal(t, "Second one follows!", chunks[1])
	assert.Equal(t, "Is this the third?", chunks[2])
}

func TestSplit_LongSentenceUsesWordWindows(t *testing.T) {
	c := New(WithMaxTokens(4))
	chunks := c.Split(strings.Repeat("word ", 10))

	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(ch)), 4)
	}
	assert.Equal(t, "word word", chunks[2])
}

func TestSplit_EveryChunkWithinBound(t *testing.T) {
	c := New(WithMaxTokens(7))
	text := strings.Repeat("Alpha beta gamma delta. Epsilon zeta eta theta iota kappa lambda mu nu.\n\n", 5)

	for _, ch := range c.Split(text) {
		assert.NotEmpty(t, strings.TrimSpace(ch))
		assert.LessOrEqual(t, len(strings.Fields(ch)), 7)
	}
}
