package api

import (
	"net/http"
	"time"

	chatapi "github.com/futig/ragchat-backend/internal/api/chat"
	"github.com/futig/ragchat-backend/internal/api/docs"
	documentapi "github.com/futig/ragchat-backend/internal/api/document"
	"github.com/futig/ragchat-backend/internal/api/middleware"
	providerapi "github.com/futig/ragchat-backend/internal/api/provider"
	searchapi "github.com/futig/ragchat-backend/internal/api/search"
	"github.com/futig/ragchat-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Document *documentapi.Handler
	Search   *searchapi.Handler
	Chat     *chatapi.Handler
	Provider *providerapi.Handler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	SwaggerSpec    string
	RateLimiter    *middleware.RateLimiter
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(h Handlers, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})

	if cfg.SwaggerSpec != "" {
		docs.RegisterRoutes(r, cfg.SwaggerSpec)
	}

	documentapi.RegisterRoutes(r, h.Document)
	searchapi.RegisterRoutes(r, h.Search)
	chatapi.RegisterRoutes(r, h.Chat)
	providerapi.RegisterRoutes(r, h.Provider)

	return r
}
