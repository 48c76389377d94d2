// Package index implements the in-memory tf-idf term index used for retrieval.
//
// Mutations are serialized by a single write lock. Searches hold the read lock
// for their whole scoring pass, so a query always observes one consistent
// version of the document-frequency statistics and posting lists.
package index

import (
	"sort"
	"sync"

	"github.com/futig/ragchat-backend/internal/entity"
)

type chunkEntry struct {
	text   string
	counts map[string]int
}

// Hit is a scored chunk returned by Search.
type Hit struct {
	Ref   entity.ChunkRef
	Score float64
	Text  string
}

// Index maps terms to posting lists of chunk references.
type Index struct {
	mu       sync.RWMutex
	postings map[string]map[entity.ChunkRef]int
	chunks   map[entity.ChunkRef]*chunkEntry
	docs     map[string]map[int]struct{}
	version  uint64
}

func New() *Index {
	return &Index{
		postings: make(map[string]map[entity.ChunkRef]int),
		chunks:   make(map[entity.ChunkRef]*chunkEntry),
		docs:     make(map[string]map[int]struct{}),
	}
}

// Upsert adds a chunk or replaces the chunk with the same reference.
func (ix *Index) Upsert(chunk entity.Chunk) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.upsertLocked(chunk)
	ix.version++
}

// ReplaceDocument removes every chunk of documentID and inserts chunks in one step.
func (ix *Index) ReplaceDocument(documentID string, chunks []entity.Chunk) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(documentID)
	for _, c := range chunks {
		c.DocumentID = documentID
		ix.upsertLocked(c)
	}
	ix.version++
}

// Remove drops every chunk of documentID and returns how many were removed.
func (ix *Index) Remove(documentID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n := ix.removeLocked(documentID)
	if n > 0 {
		ix.version++
	}
	return n
}

func (ix *Index) upsertLocked(chunk entity.Chunk) {
	ref := chunk.Ref()
	if _, ok := ix.chunks[ref]; ok {
		ix.removeChunkLocked(ref)
	}

	counts := chunk.TermCounts
	if counts == nil {
		counts = CountTerms(chunk.Text)
	}
	if len(counts) == 0 {
		return
	}

	entry := &chunkEntry{text: chunk.Text, counts: make(map[string]int, len(counts))}
	for term, count := range counts {
		if count <= 0 {
			continue
		}
		entry.counts[term] = count
		list, ok := ix.postings[term]
		if !ok {
			list = make(map[entity.ChunkRef]int)
			ix.postings[term] = list
		}
		list[ref] = count
	}
	ix.chunks[ref] = entry

	ords, ok := ix.docs[ref.DocumentID]
	if !ok {
		ords = make(map[int]struct{})
		ix.docs[ref.DocumentID] = ords
	}
	ords[ref.Ordinal] = struct{}{}
}

func (ix *Index) removeLocked(documentID string) int {
	ords, ok := ix.docs[documentID]
	if !ok {
		return 0
	}
	n := 0
	for ord := range ords {
		ix.removeChunkLocked(entity.ChunkRef{DocumentID: documentID, Ordinal: ord})
		n++
	}
	delete(ix.docs, documentID)
	return n
}

func (ix *Index) removeChunkLocked(ref entity.ChunkRef) {
	entry, ok := ix.chunks[ref]
	if !ok {
		return
	}
	for term := range entry.counts {
		list := ix.postings[term]
		delete(list, ref)
		if len(list) == 0 {
			delete(ix.postings, term)
		}
	}
	delete(ix.chunks, ref)
	if ords, ok := ix.docs[ref.DocumentID]; ok {
		delete(ords, ref.Ordinal)
		if len(ords) == 0 {
			delete(ix.docs, ref.DocumentID)
		}
	}
}

// DocumentFrequency returns the number of chunks containing term.
func (ix *Index) DocumentFrequency(term string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings[term])
}

// TotalDocuments returns the number of indexed chunks.
func (ix *Index) TotalDocuments() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// TermCount returns the vocabulary size.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}

// Documents returns the IDs of all indexed documents, sorted.
func (ix *Index) Documents() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := make([]string, 0, len(ix.docs))
	for id := range ix.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Postings returns the chunk references listed for term, sorted.
func (ix *Index) Postings(term string) []entity.ChunkRef {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	refs := make([]entity.ChunkRef, 0, len(ix.postings[term]))
	for ref := range ix.postings[term] {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// Version increases on every mutation.
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Vectorize builds a unit-length tf-idf vector for counts using the current statistics.
func (ix *Index) Vectorize(counts map[string]int) map[string]float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.vectorizeLocked(counts)
}

func (ix *Index) vectorizeLocked(counts map[string]int) map[string]float64 {
	n := len(ix.chunks)
	vec := make(map[string]float64, len(counts))
	for term, count := range counts {
		tf := TermFrequency(count)
		if tf == 0 {
			continue
		}
		vec[term] = tf * InverseDocumentFrequency(n, len(ix.postings[term]))
	}
	if Normalize(vec) == 0 {
		return nil
	}
	return vec
}

// Search scores every chunk sharing a term with query and returns at most topK
// hits with score >= minScore, ordered by descending score then by reference.
func (ix *Index) Search(query map[string]int, topK int, minScore float64) []Hit {
	if topK <= 0 || len(query) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	qvec := ix.vectorizeLocked(query)
	if len(qvec) == 0 {
		return nil
	}

	candidates := make(map[entity.ChunkRef]struct{})
	for term := range qvec {
		for ref := range ix.postings[term] {
			candidates[ref] = struct{}{}
		}
	}

	hits := make([]Hit, 0, len(candidates))
	for ref := range candidates {
		entry := ix.chunks[ref]
		score := Dot(qvec, ix.vectorizeLocked(entry.counts))
		if score > 1 {
			score = 1
		}
		if score < minScore || score <= 0 {
			continue
		}
		hits = append(hits, Hit{Ref: ref, Score: score, Text: entry.text})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ref.Less(hits[j].Ref)
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
