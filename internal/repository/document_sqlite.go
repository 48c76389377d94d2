package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/futig/ragchat-backend/internal/entity"
)

var _ DocumentRepository = &DocumentSQLite{}

// DocumentSQLite implements DocumentRepository on an embedded SQLite database.
type DocumentSQLite struct {
	db *sql.DB
}

// OpenSQLite migrates and opens the database file at path.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	if err := RunSQLiteMigrations(path); err != nil {
		return nil, fmt.Errorf("run sqlite migrations: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers and keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db}
}

func (r *DocumentSQLite) ReplaceDocument(ctx context.Context, doc *entity.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return storageErr("delete previous chunks", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID); err != nil {
		return storageErr("delete previous document", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, uploaded_at, size_bytes, chunk_count) VALUES (?, ?, ?, ?)`,
		doc.ID, doc.UploadedAt.UnixMilli(), doc.SizeBytes, len(doc.Chunks),
	)
	if err != nil {
		return storageErr("insert document", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, ordinal, text, term_counts, term_vector) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return storageErr("prepare chunk insert", err)
	}
	defer stmt.Close()

	for _, chunk := range doc.Chunks {
		counts, err := encodeTermCounts(chunk.TermCounts)
		if err != nil {
			return storageErr("encode term counts", err)
		}
		vector, err := encodeTermVector(chunk.TermVector)
		if err != nil {
			return storageErr("encode term vector", err)
		}
		if _, err := stmt.ExecContext(ctx, doc.ID, chunk.Ordinal, chunk.Text, counts, vector); err != nil {
			return storageErr(fmt.Sprintf("insert chunk %d", chunk.Ordinal), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (r *DocumentSQLite) DeleteDocument(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return false, storageErr("delete chunks", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("delete document", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("rows affected", err)
	}

	if err := tx.Commit(); err != nil {
		return false, storageErr("commit", err)
	}
	return affected > 0, nil
}

func (r *DocumentSQLite) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	var (
		doc        entity.Document
		uploadedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, uploaded_at, size_bytes, chunk_count FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &uploadedAt, &doc.SizeBytes, &doc.ChunkCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %q", entity.ErrNotFound, id)
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}
	doc.UploadedAt = fromUnixMilli(uploadedAt)

	chunks, err := r.queryChunks(ctx,
		`SELECT document_id, ordinal, text, term_counts, term_vector FROM chunks WHERE document_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks

	return &doc, nil
}

func (r *DocumentSQLite) ListDocuments(ctx context.Context) ([]*entity.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uploaded_at, size_bytes, chunk_count FROM documents ORDER BY id`)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	defer rows.Close()

	docs := make([]*entity.Document, 0)
	for rows.Next() {
		var (
			doc        entity.Document
			uploadedAt int64
		)
		if err := rows.Scan(&doc.ID, &uploadedAt, &doc.SizeBytes, &doc.ChunkCount); err != nil {
			return nil, storageErr("scan document", err)
		}
		doc.UploadedAt = fromUnixMilli(uploadedAt)
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate documents", err)
	}

	return docs, nil
}

func (r *DocumentSQLite) LoadChunks(ctx context.Context) ([]entity.Chunk, error) {
	return r.queryChunks(ctx,
		`SELECT document_id, ordinal, text, term_counts, term_vector FROM chunks ORDER BY document_id, ordinal`)
}

func (r *DocumentSQLite) queryChunks(ctx context.Context, query string, args ...any) ([]entity.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query chunks", err)
	}
	defer rows.Close()

	var chunks []entity.Chunk
	for rows.Next() {
		var (
			chunk             entity.Chunk
			rawCounts, rawVec string
		)
		if err := rows.Scan(&chunk.DocumentID, &chunk.Ordinal, &chunk.Text, &rawCounts, &rawVec); err != nil {
			return nil, storageErr("scan chunk", err)
		}
		if err := decodeChunkTerms(rawCounts, rawVec, &chunk); err != nil {
			return nil, storageErr("decode chunk", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate chunks", err)
	}

	return chunks, nil
}
