package search

import (
	"context"
	"testing"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexWith(docs map[string]string) *index.Index {
	ix := index.New()
	for id, text := range docs {
		ix.ReplaceDocument(id, []entity.Chunk{{DocumentID: id, Text: text, TermCounts: index.CountTerms(text)}})
	}
	return ix
}

func TestSearch_EmptyIndexReturnsEmpty(t *testing.T) {
	uc := NewUsecase(index.New(), Config{TopK: 5})

	results, err := uc.Search(context.Background(), "anything at all", 0, nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearch_RanksQuickFoxScenario(t *testing.T) {
	uc := NewUsecase(indexWith(map[string]string{
		"alpha": "the quick fox",
		"beta":  "the slow fox",
	}), Config{TopK: 5})

	results, err := uc.Search(context.Background(), "quick fox", 0, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].SourceDocumentID)
	assert.Equal(t, "beta", results[1].SourceDocumentID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, "the quick fox", results[0].Text)
}

func TestSearch_DefaultsAndOverrides(t *testing.T) {
	uc := NewUsecase(indexWith(map[string]string{
		"a": "red apple",
		"b": "red cherry",
		"c": "red brick",
	}), Config{TopK: 2, MinScore: 0})

	results, err := uc.Search(context.Background(), "red", 0, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = uc.Search(context.Background(), "red", 3, nil)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	high := 0.99
	results, err = uc.Search(context.Background(), "red", 3, &high)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ExactChunkTextFound(t *testing.T) {
	text := "Retrieval augmented generation grounds answers in stored passages"
	uc := NewUsecase(indexWith(map[string]string{
		"rag":   text,
		"other": "completely unrelated words about cooking pasta",
	}), Config{TopK: 3})

	results, err := uc.Search(context.Background(), text, 0, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "rag", results[0].SourceDocumentID)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearch_BlankQuery(t *testing.T) {
	uc := NewUsecase(indexWith(map[string]string{"a": "x"}), Config{TopK: 3})

	results, err := uc.Search(context.Background(), "   ", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUsecase(index.New(), Config{TopK: 3}).Search(ctx, "q", 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
