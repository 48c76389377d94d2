package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/futig/ragchat-backend/internal/entity"
)

// DocumentRepository persists documents together with their chunks.
type DocumentRepository interface {
	// ReplaceDocument atomically removes any stored version of doc and writes doc with all its chunks.
	ReplaceDocument(ctx context.Context, doc *entity.Document) error
	// DeleteDocument removes the document and its chunks; it reports whether a document existed.
	DeleteDocument(ctx context.Context, id string) (bool, error)
	GetDocument(ctx context.Context, id string) (*entity.Document, error)
	ListDocuments(ctx context.Context) ([]*entity.Document, error)
	// LoadChunks returns every stored chunk ordered by document ID and ordinal.
	LoadChunks(ctx context.Context) ([]entity.Chunk, error)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", entity.ErrStorage, op, err)
}

func encodeTermCounts(counts map[string]int) (string, error) {
	if counts == nil {
		counts = map[string]int{}
	}
	data, err := json.Marshal(counts)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeTermVector(vec map[string]float64) (string, error) {
	if vec == nil {
		vec = map[string]float64{}
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeChunkTerms(rawCounts, rawVector string, chunk *entity.Chunk) error {
	if err := json.Unmarshal([]byte(rawCounts), &chunk.TermCounts); err != nil {
		return fmt.Errorf("decode term counts: %w", err)
	}
	if err := json.Unmarshal([]byte(rawVector), &chunk.TermVector); err != nil {
		return fmt.Errorf("decode term vector: %w", err)
	}
	return nil
}

func fromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
