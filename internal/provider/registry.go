package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/futig/ragchat-backend/internal/entity"
	pkghttp "github.com/futig/ragchat-backend/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const DefaultModelListTTL = 10 * time.Minute

// Registry owns the provider set. Reload swaps it atomically.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider

	models   *gocache.Cache
	modelTTL time.Duration
	httpOpts []pkghttp.HttpOpts
	logger   *zap.Logger
}

type RegistryOption func(*Registry)

func WithModelListTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.modelTTL = ttl
		}
	}
}

// WithHTTPOptions applies base client options to every provider connector.
func WithHTTPOptions(opts ...pkghttp.HttpOpts) RegistryOption {
	return func(r *Registry) {
		r.httpOpts = append(r.httpOpts, opts...)
	}
}

func NewRegistry(configs []entity.ProviderConfig, logger *zap.Logger, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		modelTTL: DefaultModelListTTL,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.models = gocache.New(gocache.NoExpiration, 2*r.modelTTL)

	if err := r.Reload(configs); err != nil {
		return nil, err
	}
	return r, nil
}

// NormalizeName is the canonical form used for lookups and cache keys.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Reload replaces every provider record. On error the previous set stays active.
func (r *Registry) Reload(configs []entity.ProviderConfig) error {
	if err := Validate(configs); err != nil {
		return err
	}

	next := make(map[string]*Provider, len(configs))
	for _, cfg := range configs {
		cfg.Name = NormalizeName(cfg.Name)
		p, err := newProvider(cfg, r.logger, r.httpOpts...)
		if err != nil {
			return fmt.Errorf("provider %q: %w", cfg.Name, err)
		}
		next[cfg.Name] = p
	}

	r.mu.Lock()
	r.providers = next
	r.mu.Unlock()

	r.models.Flush()
	return nil
}

// ReloadFile re-reads the providers file and replaces the active set.
func (r *Registry) ReloadFile(path string) error {
	configs, err := LoadFile(path)
	if err != nil {
		return err
	}
	return r.Reload(configs)
}

func (r *Registry) provider(name string) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", entity.ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Get(name string) (entity.ProviderConfig, error) {
	p, err := r.provider(name)
	if err != nil {
		return entity.ProviderConfig{}, err
	}
	return p.Config(), nil
}

// Resolve returns the provider record and the model to use, defaulting an empty model.
func (r *Registry) Resolve(name, model string) (entity.ProviderConfig, string, error) {
	cfg, err := r.Get(name)
	if err != nil {
		return entity.ProviderConfig{}, "", err
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = cfg.DefaultModel
	}
	if !cfg.AllowsModel(model) {
		return cfg, model, fmt.Errorf("%w: %q for provider %q", entity.ErrUnknownModel, model, cfg.Name)
	}
	return cfg, model, nil
}

// List returns all provider records ordered by name.
func (r *Registry) List() []entity.ProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.ProviderConfig, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Config())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RequestsPerMinute feeds the rate limiter. Unknown providers are unlimited.
func (r *Registry) RequestsPerMinute(name string) int {
	p, err := r.provider(name)
	if err != nil {
		return 0
	}
	return p.config.RequestsPerMinute
}

func (r *Registry) Complete(ctx context.Context, name, model string, req entity.ChatRequest) (entity.Completion, error) {
	p, err := r.provider(name)
	if err != nil {
		return entity.Completion{}, err
	}
	return p.Complete(ctx, model, req)
}

// ListModels asks the upstream for its models. Upstream failures are not
// errors: the last good list is returned instead and stale is set.
func (r *Registry) ListModels(ctx context.Context, name string) (models []string, stale bool, err error) {
	p, err := r.provider(name)
	if err != nil {
		return nil, false, err
	}
	if p.adapter.ModelsPath() == "" {
		return p.configuredModels(), false, nil
	}

	freshKey, lastKey := "fresh:"+p.config.Name, "last:"+p.config.Name
	if cached, ok := r.models.Get(freshKey); ok {
		return cached.([]string), false, nil
	}

	fetched, fetchErr := p.fetchModels(ctx)
	if fetchErr == nil {
		r.models.Set(freshKey, fetched, r.modelTTL)
		r.models.Set(lastKey, fetched, gocache.NoExpiration)
		return fetched, false, nil
	}

	ctxzap.Warn(ctx, "model listing failed, serving last known list",
		zap.String("provider", p.config.Name), zap.Error(fetchErr))

	if last, ok := r.models.Get(lastKey); ok {
		return last.([]string), true, nil
	}
	return p.configuredModels(), true, nil
}
