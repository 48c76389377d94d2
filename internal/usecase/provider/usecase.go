package provider

import (
	"context"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Registry interface {
	List() []entity.ProviderConfig
	ListModels(ctx context.Context, name string) ([]string, bool, error)
	ReloadFile(path string) error
}

// ProviderUsecase exposes the provider registry to the API layer.
type ProviderUsecase struct {
	registry Registry
	file     string
}

func NewUsecase(registry Registry, providersFile string) *ProviderUsecase {
	return &ProviderUsecase{
		registry: registry,
		file:     providersFile,
	}
}

func (uc *ProviderUsecase) List(_ context.Context) []entity.ProviderConfig {
	return uc.registry.List()
}

func (uc *ProviderUsecase) Models(ctx context.Context, name string) (*entity.ListModelsResponse, error) {
	models, stale, err := uc.registry.ListModels(ctx, name)
	if err != nil {
		return nil, err
	}
	if models == nil {
		models = []string{}
	}
	return &entity.ListModelsResponse{
		Provider: name,
		Models:   models,
		Stale:    stale,
	}, nil
}

// Reload re-reads the providers file. On failure the active set is kept.
func (uc *ProviderUsecase) Reload(ctx context.Context) ([]entity.ProviderConfig, error) {
	if err := uc.registry.ReloadFile(uc.file); err != nil {
		ctxzap.Warn(ctx, "providers reload rejected, keeping previous set",
			zap.String("file", uc.file), zap.Error(err))
		return nil, err
	}

	providers := uc.registry.List()
	ctxzap.Info(ctx, "providers reloaded", zap.Int("count", len(providers)))
	return providers, nil
}
