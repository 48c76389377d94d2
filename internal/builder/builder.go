package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/ragchat-backend/internal/api"
	chatapi "github.com/futig/ragchat-backend/internal/api/chat"
	documentapi "github.com/futig/ragchat-backend/internal/api/document"
	"github.com/futig/ragchat-backend/internal/api/middleware"
	providerapi "github.com/futig/ragchat-backend/internal/api/provider"
	searchapi "github.com/futig/ragchat-backend/internal/api/search"
	"github.com/futig/ragchat-backend/internal/cache"
	"github.com/futig/ragchat-backend/internal/config"
	"github.com/futig/ragchat-backend/internal/dispatch"
	"github.com/futig/ragchat-backend/internal/index"
	"github.com/futig/ragchat-backend/internal/pkg/chunker"
	"github.com/futig/ragchat-backend/internal/pkg/logger"
	"github.com/futig/ragchat-backend/internal/pkg/validator"
	"github.com/futig/ragchat-backend/internal/provider"
	"github.com/futig/ragchat-backend/internal/ratelimit"
	chatuc "github.com/futig/ragchat-backend/internal/usecase/chat"
	documentuc "github.com/futig/ragchat-backend/internal/usecase/document"
	provideruc "github.com/futig/ragchat-backend/internal/usecase/provider"
	searchuc "github.com/futig/ragchat-backend/internal/usecase/search"
	pkghttp "github.com/futig/ragchat-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const swaggerSpecPath = "docs/swagger.yaml"

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	ctx = ctxzap.ToContext(ctx, log)

	log.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("storage", cfg.StorageDriver),
	)

	repo, closeStorage, err := setupStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("setup storage: %w", err)
	}
	closers := []func(){closeStorage}
	fail := func(err error) (*App, error) {
		closeStorage()
		return nil, err
	}

	// Providers
	providerConfigs, err := provider.LoadFile(cfg.ProvidersCfg.File)
	if err != nil {
		return fail(fmt.Errorf("load providers: %w", err))
	}
	registry, err := provider.NewRegistry(providerConfigs, log,
		provider.WithModelListTTL(cfg.ProvidersCfg.ModelListTTL),
		provider.WithHTTPOptions(
			pkghttp.WithConnClientTimeout(cfg.ProvidersCfg.ConnTimeout),
			pkghttp.WithRequestTimeout(cfg.ProvidersCfg.RequestTimeout),
			pkghttp.WithClientKeepAlive(cfg.ProvidersCfg.KeepAlive),
			pkghttp.WithIdleConnTimeout(cfg.ProvidersCfg.IdleConnTimeout),
			pkghttp.WithResponseHeaderTimeout(cfg.ProvidersCfg.ResponseHeaderTimeout),
		),
	)
	if err != nil {
		return fail(fmt.Errorf("build provider registry: %w", err))
	}
	log.Info("Provider registry initialized", zap.Int("providers", len(registry.List())))

	// Retrieval
	termIndex := index.New()
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	documentUC := documentuc.NewUsecase(
		repo,
		termIndex,
		chunker.New(chunker.WithMaxTokens(cfg.IngestCfg.ChunkMaxTokens)),
		fileValidator,
		documentuc.Config{
			MaxDocumentBytes: cfg.IngestCfg.DocumentMaxBytes,
			Workers:          cfg.IngestCfg.Workers,
		},
		log,
	)

	rebuilt, err := documentUC.RebuildIndex(ctx)
	if err != nil {
		return fail(fmt.Errorf("rebuild term index: %w", err))
	}
	log.Info("Term index rebuilt from storage",
		zap.Int("chunks", rebuilt),
		zap.Int("terms", termIndex.TermCount()),
	)

	searchUC := searchuc.NewUsecase(termIndex, searchuc.Config{
		TopK:     cfg.RetrievalCfg.TopK,
		MinScore: cfg.RetrievalCfg.MinScore,
	})

	// Dispatch
	var responseCache cache.ResponseCache = cache.Disabled{}
	if cfg.CacheCfg.Enabled {
		lru, err := cache.NewLRU(cfg.CacheCfg.Capacity, cache.WithDefaultTTL(cfg.CacheCfg.TTL))
		if err != nil {
			return fail(fmt.Errorf("create response cache: %w", err))
		}
		responseCache = lru
	}

	limiter := ratelimit.New(registry.RequestsPerMinute, ratelimit.WithWindow(cfg.DispatchCfg.RateWindow))
	dispatcher := dispatch.New(registry, limiter, responseCache, dispatch.Config{
		Retry:    cfg.DispatchCfg.Retry,
		CacheTTL: cfg.CacheCfg.TTL,
		Timeout:  cfg.DispatchCfg.Timeout,
	})

	chatUC := chatuc.NewUsecase(searchUC, dispatcher, chatuc.Config{
		Persona:     cfg.ChatCfg.Persona,
		Temperature: cfg.ChatCfg.Temperature,
		MaxTokens:   cfg.ChatCfg.MaxTokens,
	})
	providerUC := provideruc.NewUsecase(registry, cfg.ProvidersCfg.File)
	log.Info("Use cases initialized")

	apiLimiter := middleware.NewRateLimiter(cfg.APIRateCfg.PerMinute, cfg.APIRateCfg.Burst)

	router := api.SetupRouter(api.Handlers{
		Document: documentapi.NewHandler(documentUC, cfg.FileUploadCfg),
		Search:   searchapi.NewHandler(searchUC),
		Chat:     chatapi.NewHandler(chatUC),
		Provider: providerapi.NewHandler(providerUC),
	}, api.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		SwaggerSpec:    swaggerSpecPath,
		RateLimiter:    apiLimiter,
	}, log)

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	daemons := []func(context.Context){
		func(ctx context.Context) { apiLimiter.Cleanup(ctx, 10*time.Minute) },
	}
	if cfg.ProvidersCfg.Watch {
		daemons = append(daemons, func(ctx context.Context) {
			if err := registry.Watch(ctxzap.ToContext(ctx, log), cfg.ProvidersCfg.File); err != nil {
				log.Error("providers file watcher stopped", zap.Error(err))
			}
		})
	}

	log.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:          server,
		daemons:         daemons,
		closers:         closers,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          log,
	}, nil
}
