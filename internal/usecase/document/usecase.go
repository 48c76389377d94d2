package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/index"
	"github.com/futig/ragchat-backend/internal/pkg/chunker"
	"github.com/futig/ragchat-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Config struct {
	MaxDocumentBytes int64
	Workers          int
}

// DocumentUsecase ingests, lists and deletes documents.
// A document is either fully persisted and indexed or absent.
type DocumentUsecase struct {
	repo      DocumentRepository
	index     TermIndex
	chunker   *chunker.Chunker
	validator *validator.Validator
	locks     *keyLock
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

// NewUsecase creates a new document use case
func NewUsecase(
	repo DocumentRepository,
	termIndex TermIndex,
	chunk *chunker.Chunker,
	validator *validator.Validator,
	cfg Config,
	logger *zap.Logger,
) *DocumentUsecase {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &DocumentUsecase{
		repo:      repo,
		index:     termIndex,
		chunker:   chunk,
		validator: validator,
		locks:     newKeyLock(),
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// Ingest replaces documentID with rawText. Re-ingesting the same ID first drops the old chunks.
func (uc *DocumentUsecase) Ingest(ctx context.Context, documentID, rawText string) (*entity.Document, error) {
	documentID = strings.TrimSpace(documentID)
	if err := validator.ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("%w: document %q is empty", entity.ErrValidation, documentID)
	}
	if uc.cfg.MaxDocumentBytes > 0 && int64(len(rawText)) > uc.cfg.MaxDocumentBytes {
		return nil, fmt.Errorf("%w: document %q is %d bytes (max %d)",
			entity.ErrValidation, documentID, len(rawText), uc.cfg.MaxDocumentBytes)
	}

	unlock := uc.locks.Lock(documentID)
	defer unlock()

	chunks := uc.buildChunks(documentID, rawText)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document %q has no indexable text", entity.ErrValidation, documentID)
	}

	doc := &entity.Document{
		ID:         documentID,
		UploadedAt: uc.now().UTC().Truncate(time.Millisecond),
		SizeBytes:  int64(len(rawText)),
		ChunkCount: len(chunks),
		Chunks:     chunks,
	}

	// The index only learns about the document once storage committed it.
	if err := uc.repo.ReplaceDocument(ctx, doc); err != nil {
		if !errors.Is(err, entity.ErrStorage) {
			err = fmt.Errorf("%w: %w", entity.ErrStorage, err)
		}
		ctxzap.Error(ctx, "failed to persist document",
			zap.String("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("ingest %q: %w", documentID, err)
	}

	uc.index.ReplaceDocument(documentID, chunks)

	ctxzap.Info(ctx, "document ingested",
		zap.String("document_id", documentID),
		zap.Int("chunk_count", len(chunks)),
		zap.Int64("size_bytes", doc.SizeBytes),
	)

	return doc, nil
}

func (uc *DocumentUsecase) buildChunks(documentID, rawText string) []entity.Chunk {
	pieces := uc.chunker.Split(rawText)
	chunks := make([]entity.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		counts := index.CountTerms(piece)
		if len(counts) == 0 {
			continue
		}
		chunks = append(chunks, entity.Chunk{
			DocumentID: documentID,
			Ordinal:    len(chunks),
			Text:       piece,
			TermCounts: counts,
			TermVector: uc.index.Vectorize(counts),
		})
	}
	return chunks
}

// Delete removes the document and its postings; it reports whether the document existed.
func (uc *DocumentUsecase) Delete(ctx context.Context, documentID string) (bool, error) {
	if err := validator.ValidateDocumentID(documentID); err != nil {
		return false, err
	}

	unlock := uc.locks.Lock(documentID)
	defer unlock()

	existed, err := uc.repo.DeleteDocument(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("delete %q: %w", documentID, err)
	}
	removed := uc.index.Remove(documentID)

	ctxzap.Info(ctx, "document deleted",
		zap.String("document_id", documentID),
		zap.Bool("existed", existed),
		zap.Int("chunks_removed", removed),
	)

	return existed || removed > 0, nil
}

func (uc *DocumentUsecase) Get(ctx context.Context, documentID string) (*entity.Document, error) {
	return uc.repo.GetDocument(ctx, documentID)
}

func (uc *DocumentUsecase) List(ctx context.Context) ([]*entity.Document, error) {
	return uc.repo.ListDocuments(ctx)
}

// RebuildIndex loads every stored chunk into the term index. It runs once at startup.
func (uc *DocumentUsecase) RebuildIndex(ctx context.Context) (int, error) {
	chunks, err := uc.repo.LoadChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load chunks: %w", err)
	}

	byDocument := make(map[string][]entity.Chunk)
	var order []string
	for _, c := range chunks {
		if _, seen := byDocument[c.DocumentID]; !seen {
			order = append(order, c.DocumentID)
		}
		byDocument[c.DocumentID] = append(byDocument[c.DocumentID], c)
	}

	for _, id := range order {
		uc.index.ReplaceDocument(id, byDocument[id])
	}

	uc.logger.Info("term index rebuilt",
		zap.Int("documents", len(order)),
		zap.Int("chunks", len(chunks)),
	)
	return len(order), nil
}
