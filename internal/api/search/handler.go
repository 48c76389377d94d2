package search

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/pkg/logger"
	"github.com/futig/ragchat-backend/internal/pkg/response"
	"github.com/futig/ragchat-backend/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type SearchUsecase interface {
	Search(ctx context.Context, query string, topK int, minScore *float64) ([]entity.RetrievalResult, error)
}

type Handler struct {
	usecase SearchUsecase
}

func NewHandler(usecase SearchUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// RegisterRoutes registers search routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/search", h.Search)
}

// Search handles POST /search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Search")

	var req entity.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := validator.ValidateSearch(&req); err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	results, err := h.usecase.Search(ctx, req.Query, req.TopK, req.MinScore)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "search served", zap.Int("results", len(results)))
	response.Success(w, &entity.SearchResponse{Results: results})
}
