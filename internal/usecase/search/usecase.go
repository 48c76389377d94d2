package search

import (
	"context"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/index"
)

type TermIndex interface {
	Search(query map[string]int, topK int, minScore float64) []index.Hit
}

type Config struct {
	TopK     int
	MinScore float64
}

// SearchUsecase ranks stored chunks against a query.
type SearchUsecase struct {
	index TermIndex
	cfg   Config
}

func NewUsecase(termIndex TermIndex, cfg Config) *SearchUsecase {
	return &SearchUsecase{index: termIndex, cfg: cfg}
}

// Search returns at most topK results scoring at least minScore. A non-positive
// topK or a nil minScore falls back to the configured defaults. No match is an
// empty result, not an error.
func (uc *SearchUsecase) Search(ctx context.Context, query string, topK int, minScore *float64) ([]entity.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return []entity.RetrievalResult{}, nil
	}

	if topK <= 0 {
		topK = uc.cfg.TopK
	}
	threshold := uc.cfg.MinScore
	if minScore != nil {
		threshold = *minScore
	}

	hits := uc.index.Search(index.CountTerms(query), topK, threshold)

	results := make([]entity.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, entity.RetrievalResult{
			ChunkRef:         h.Ref,
			Score:            h.Score,
			SourceDocumentID: h.Ref.DocumentID,
			Text:             h.Text,
		})
	}
	return results, nil
}
