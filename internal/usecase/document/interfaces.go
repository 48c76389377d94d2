package document

import (
	"context"

	"github.com/futig/ragchat-backend/internal/entity"
)

// DocumentRepository persists documents with their chunks.
type DocumentRepository interface {
	ReplaceDocument(ctx context.Context, doc *entity.Document) error
	DeleteDocument(ctx context.Context, id string) (bool, error)
	GetDocument(ctx context.Context, id string) (*entity.Document, error)
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	LoadChunks(ctx context.Context) ([]entity.Chunk, error)
}

// TermIndex is the searchable view of the stored chunks.
type TermIndex interface {
	ReplaceDocument(documentID string, chunks []entity.Chunk)
	Remove(documentID string) int
	Vectorize(counts map[string]int) map[string]float64
}
