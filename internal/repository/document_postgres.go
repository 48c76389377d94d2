package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/futig/ragchat-backend/internal/entity"
)

var _ DocumentRepository = &DocumentPostgres{}

// DocumentPostgres implements DocumentRepository using PostgreSQL
type DocumentPostgres struct {
	db *pgxpool.Pool
}

func NewDocumentPostgres(db *pgxpool.Pool) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

func (r *DocumentPostgres) ReplaceDocument(ctx context.Context, doc *entity.Document) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	// chunks are removed through ON DELETE CASCADE
	if _, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, doc.ID); err != nil {
		return storageErr("delete previous document", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO documents (id, uploaded_at, size_bytes, chunk_count) VALUES ($1, $2, $3, $4)`,
		doc.ID, doc.UploadedAt, doc.SizeBytes, len(doc.Chunks),
	)
	if err != nil {
		return storageErr("insert document", err)
	}

	rows := make([][]any, 0, len(doc.Chunks))
	for _, chunk := range doc.Chunks {
		counts := chunk.TermCounts
		if counts == nil {
			counts = map[string]int{}
		}
		vector := chunk.TermVector
		if vector == nil {
			vector = map[string]float64{}
		}
		rows = append(rows, []any{doc.ID, chunk.Ordinal, chunk.Text, counts, vector})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"chunks"},
		[]string{"document_id", "ordinal", "text", "term_counts", "term_vector"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return storageErr("copy chunks", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (r *DocumentPostgres) DeleteDocument(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete document", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *DocumentPostgres) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.QueryRow(ctx,
		`SELECT id, uploaded_at, size_bytes, chunk_count FROM documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.UploadedAt, &doc.SizeBytes, &doc.ChunkCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %q", entity.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}

	chunks, err := r.queryChunks(ctx,
		`SELECT document_id, ordinal, text, term_counts, term_vector FROM chunks WHERE document_id = $1 ORDER BY ordinal`, id)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks

	return &doc, nil
}

func (r *DocumentPostgres) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, uploaded_at, size_bytes, chunk_count FROM documents ORDER BY id`)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	defer rows.Close()

	docs := make([]*entity.Document, 0)
	for rows.Next() {
		var doc entity.Document
		if err := rows.Scan(&doc.ID, &doc.UploadedAt, &doc.SizeBytes, &doc.ChunkCount); err != nil {
			return nil, storageErr("scan document", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate documents", err)
	}

	return docs, nil
}

func (r *DocumentPostgres) LoadChunks(ctx context.Context) ([]entity.Chunk, error) {
	return r.queryChunks(ctx,
		`SELECT document_id, ordinal, text, term_counts, term_vector FROM chunks ORDER BY document_id, ordinal`)
}

func (r *DocumentPostgres) queryChunks(ctx context.Context, query string, args ...any) ([]entity.Chunk, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query chunks", err)
	}
	defer rows.Close()

	var chunks []entity.Chunk
	for rows.Next() {
		var chunk entity.Chunk
		err := rows.Scan(&chunk.DocumentID, &chunk.Ordinal, &chunk.Text, &chunk.TermCounts, &chunk.TermVector)
		if err != nil {
			return nil, storageErr("scan chunk", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate chunks", err)
	}

	return chunks, nil
}
