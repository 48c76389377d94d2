package provider

import (
	"context"
	"net/http"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/pkg/logger"
	"github.com/futig/ragchat-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProviderUsecase interface {
	List(ctx context.Context) []entity.ProviderConfig
	Models(ctx context.Context, name string) (*entity.ListModelsResponse, error)
	Reload(ctx context.Context) ([]entity.ProviderConfig, error)
}

type Handler struct {
	usecase ProviderUsecase
}

func NewHandler(usecase ProviderUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// RegisterRoutes registers provider routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/providers", func(r chi.Router) {
		r.Get("/", h.ListProviders)
		r.Post("/reload", h.ReloadProviders)
		r.Get("/{provider}/models", h.ListModels)
	})
}

// ListProviders handles GET /providers
func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListProviders")
	response.Success(w, &entity.ListProvidersResponse{Providers: h.usecase.List(ctx)})
}

// ListModels handles GET /providers/{provider}/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")
	ctx := logger.AddFields(r.Context(),
		zap.String("provider", name),
		zap.String("action", "ListModels"),
	)

	resp, err := h.usecase.Models(ctx, name)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// ReloadProviders handles POST /providers/reload
func (h *Handler) ReloadProviders(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ReloadProviders")

	providers, err := h.usecase.Reload(ctx)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, &entity.ListProvidersResponse{Providers: providers})
}
