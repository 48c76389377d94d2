package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnswer() Answer {
	return NewAnswer("what is a fox?", entity.ChatReply{
		ChatResponse: entity.ChatResponse{
			Text: "A small canid.",
			Outcome: entity.DispatchOutcome{
				Provider: "openai",
				Model:    "gpt-4o-mini",
			},
		},
		Sources: []entity.RetrievalResult{
			{ChunkRef: entity.ChunkRef{DocumentID: "animals.md", Ordinal: 2}, Score: 0.81, SourceDocumentID: "animals.md"},
		},
	})
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory()

	for _, format := range []entity.ResultFormat{entity.FormatMarkdown, entity.FormatDOCX, entity.FormatPDF} {
		got, err := f.Create(format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, got.ContentType())
		assert.True(t, strings.HasPrefix(got.FileExtension(), "."))
	}

	_, err := f.Create(entity.FormatJSON)
	assert.Error(t, err)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(sampleAnswer())
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "# Answer\n"))
	assert.Contains(t, text, "**Question:** what is a fox?")
	assert.Contains(t, text, "A small canid.")
	assert.Contains(t, text, "- animals.md, chunk 2 (score 0.810)")
	assert.Contains(t, text, "_openai / gpt-4o-mini_")
}

func TestMarkdownFormatter_WithoutSources(t *testing.T) {
	out, err := NewMarkdownFormatter().Format(Answer{Text: "plain"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Sources")
	assert.NotContains(t, string(out), "Question")
}

func TestPDFFormatter(t *testing.T) {
	a := sampleAnswer()
	a.Text = "Ünïcödé answer"

	out, err := NewPDFFormatter().Format(a)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
