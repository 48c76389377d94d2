package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/ragchat-backend/internal/entity"
)

// setupTestRepo creates a SQLite repository in a temporary directory.
func setupTestRepo(t *testing.T) *DocumentSQLite {
	t.Helper()

	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	return NewDocumentSQLite(db)
}

func testDocument(id string, texts ...string) *entity.Document {
	doc := &entity.Document{
		ID:         id,
		UploadedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SizeBytes:  42,
	}
	for i, text := range texts {
		doc.Chunks = append(doc.Chunks, entity.Chunk{
			DocumentID: id,
			Ordinal:    i,
			Text:       text,
			TermCounts: map[string]int{"term": i + 1},
			TermVector: map[string]float64{"term": 1},
		})
	}
	return doc
}

func TestDocumentSQLite_ReplaceAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceDocument(ctx, testDocument("alpha", "first", "second")))

	doc, err := repo.GetDocument(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", doc.ID)
	assert.Equal(t, int64(42), doc.SizeBytes)
	assert.Equal(t, 2, doc.ChunkCount)
	assert.True(t, doc.UploadedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.Len(t, doc.Chunks, 2)
	assert.Equal(t, "second", doc.Chunks[1].Text)
	assert.Equal(t, map[string]int{"term": 2}, doc.Chunks[1].TermCounts)
	assert.Equal(t, map[string]float64{"term": 1}, doc.Chunks[1].TermVector)
}

func TestDocumentSQLite_ReplaceOverwritesPreviousVersion(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceDocument(ctx, testDocument("alpha", "one", "two", "three")))
	require.NoError(t, repo.ReplaceDocument(ctx, testDocument("alpha", "only")))

	doc, err := repo.GetDocument(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, "only", doc.Chunks[0].Text)

	chunks, err := repo.LoadChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestDocumentSQLite_FailedReplaceRollsBack(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceDocument(ctx, testDocument("alpha", "kept")))

	broken := testDocument("alpha", "a", "b")
	broken.Chunks[1].Ordinal = 0 // duplicate primary key fails the second insert

	err := repo.ReplaceDocument(ctx, broken)
	require.ErrorIs(t, err, entity.ErrStorage)

	doc, err := repo.GetDocument(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, "kept", doc.Chunks[0].Text)
}

func TestDocumentSQLite_GetNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	doc, err := repo.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.Nil(t, doc)
}

func TestDocumentSQLite_DeleteDocument(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceDocument(ctx, testDocument("alpha", "x")))
	require.NoError(t, repo.ReplaceDocument(ctx, testDocument("beta", "y")))

	deleted, err := repo.DeleteDocument(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteDocument(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, deleted)

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "beta", docs[0].ID)

	chunks, err := repo.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "beta", chunks[0].DocumentID)
}

func TestDocumentSQLite_ListOrdered(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"gamma", "alpha", "beta"} {
		require.NoError(t, repo.ReplaceDocument(ctx, testDocument(id, id)))
	}

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}
