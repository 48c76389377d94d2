package entity

import (
	"fmt"
	"time"
)

// Document is an ingested text split into ordered chunks.
type Document struct {
	ID         string    `json:"document_id"`
	UploadedAt time.Time `json:"uploaded_at"`
	SizeBytes  int64     `json:"size_bytes"`
	ChunkCount int       `json:"chunk_count"`
	Chunks     []Chunk   `json:"-"`
}

// ChunkRef identifies a chunk inside the term index.
type ChunkRef struct {
	DocumentID string `json:"document_id"`
	Ordinal    int    `json:"ordinal"`
}

func (r ChunkRef) String() string {
	return fmt.Sprintf("%s#%d", r.DocumentID, r.Ordinal)
}

// Less orders refs by document ID, then ordinal.
func (r ChunkRef) Less(other ChunkRef) bool {
	if r.DocumentID != other.DocumentID {
		return r.DocumentID < other.DocumentID
	}
	return r.Ordinal < other.Ordinal
}

// Chunk is a bounded span of a document's text.
// TermCounts holds raw term occurrences; TermVector is the normalized
// tf-idf vector computed with the statistics at ingestion time.
type Chunk struct {
	DocumentID string             `json:"document_id"`
	Ordinal    int                `json:"ordinal"`
	Text       string             `json:"text"`
	TermCounts map[string]int     `json:"term_counts"`
	TermVector map[string]float64 `json:"term_vector"`
}

func (c Chunk) Ref() ChunkRef {
	return ChunkRef{DocumentID: c.DocumentID, Ordinal: c.Ordinal}
}

// RetrievalResult is a ranked chunk returned by the retriever.
type RetrievalResult struct {
	ChunkRef         ChunkRef `json:"chunk"`
	Score            float64  `json:"score"`
	SourceDocumentID string   `json:"source_document_id"`
	Text             string   `json:"text"`
}

// SearchRequest is the input of a retrieval query.
type SearchRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
}

// FileData is an uploaded file before text extraction.
type FileData struct {
	Filename    string
	ContentType string
	Content     []byte
}
