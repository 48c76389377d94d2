package chat

import (
	"context"

	"github.com/futig/ragchat-backend/internal/entity"
)

type Retriever interface {
	Search(ctx context.Context, query string, topK int, minScore *float64) ([]entity.RetrievalResult, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req entity.ChatRequest) (entity.ChatResponse, error)
}
