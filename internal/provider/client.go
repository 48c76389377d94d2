package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
	pkghttp "github.com/futig/ragchat-backend/pkg/http"
	"go.uber.org/zap"
)

var errNoMessage = errors.New("response has no message")

// Provider binds a config record to its adapter and HTTP connector.
type Provider struct {
	config    entity.ProviderConfig
	adapter   Adapter
	connector *pkghttp.Connector
	headers   map[string]string
}

func newProvider(cfg entity.ProviderConfig, logger *zap.Logger, opts ...pkghttp.HttpOpts) (*Provider, error) {
	adapter, err := adapterFor(cfg.Kind)
	if err != nil {
		return nil, err
	}

	httpOpts := append([]pkghttp.HttpOpts{}, opts...)
	if cfg.Timeout > 0 {
		httpOpts = append(httpOpts, pkghttp.WithRequestTimeout(cfg.Timeout))
	}
	httpOpts = append(httpOpts, pkghttp.WithRequestLogging())
	if name, value := adapter.AuthHeader(cfg.AuthMaterial); name != "" {
		httpOpts = append(httpOpts, pkghttp.WithAuthHeader(name, value))
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range adapter.Headers() {
		headers[k] = v
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	connector := pkghttp.NewConnector(&pkghttp.ConnectorConfig{
		BaseURL: strings.TrimRight(cfg.EndpointURL, "/"),
		Logger:  logger,
	}, httpOpts...)

	return &Provider{
		config:    cfg,
		adapter:   adapter,
		connector: connector,
		headers:   headers,
	}, nil
}

func (p *Provider) Config() entity.ProviderConfig {
	return p.config
}

// Complete performs one upstream call. Transport failures come back as
// *pkghttp.NetworkError, *pkghttp.HTTPError or *pkghttp.DecodeError untouched.
func (p *Provider) Complete(ctx context.Context, model string, req entity.ChatRequest) (entity.Completion, error) {
	payload, err := p.adapter.BuildRequest(model, req)
	if err != nil {
		return entity.Completion{}, fmt.Errorf("%w: %w", entity.ErrValidation, err)
	}

	var raw json.RawMessage
	err = p.connector.DoRequest(ctx, http.MethodPost, p.adapter.ChatPath(), payload, &raw,
		pkghttp.WithHeaders(p.headers))
	if err != nil {
		return entity.Completion{}, err
	}

	completion, err := p.adapter.ParseResponse(raw)
	if err != nil {
		return entity.Completion{}, &pkghttp.DecodeError{Err: err, Body: raw}
	}
	return completion, nil
}

func (p *Provider) fetchModels(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	err := p.connector.DoRequest(ctx, http.MethodGet, p.adapter.ModelsPath(), nil, &raw,
		pkghttp.WithHeaders(p.headers))
	if err != nil {
		return nil, err
	}

	models, err := p.adapter.ParseModels(raw)
	if err != nil {
		return nil, &pkghttp.DecodeError{Err: err, Body: raw}
	}
	return models, nil
}

// configuredModels is the advisory list used before any upstream listing succeeded.
func (p *Provider) configuredModels() []string {
	seen := make(map[string]struct{})
	var models []string
	for _, m := range append([]string{p.config.DefaultModel, p.config.FallbackModel}, p.config.Models...) {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		models = append(models, m)
	}
	return models
}
