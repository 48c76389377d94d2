package provider

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
	"gopkg.in/yaml.v3"
)

type providersFile struct {
	Providers []entity.ProviderConfig `yaml:"providers"`
}

// LoadFile reads provider records from YAML and resolves api_key_env secrets.
func LoadFile(path string) ([]entity.ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]entity.ProviderConfig, error) {
	var file providersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("%w: providers file defines no providers", entity.ErrValidation)
	}

	for i := range file.Providers {
		p := &file.Providers[i]
		p.Name = NormalizeName(p.Name)
		p.Kind = strings.ToLower(strings.TrimSpace(p.Kind))
		if p.APIKeyEnv != "" {
			p.AuthMaterial = os.Getenv(p.APIKeyEnv)
		}
	}

	if err := Validate(file.Providers); err != nil {
		return nil, err
	}
	return file.Providers, nil
}

// Validate reports every problem found in the records at once.
func Validate(configs []entity.ProviderConfig) error {
	var errs []error
	seen := make(map[string]struct{}, len(configs))

	for i, cfg := range configs {
		name := NormalizeName(cfg.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("provider #%d: name is required", i))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("provider %q: duplicate name", name))
		}
		seen[name] = struct{}{}

		if _, err := adapterFor(cfg.Kind); err != nil {
			errs = append(errs, fmt.Errorf("provider %q: %w", name, err))
		}
		if u, err := url.Parse(cfg.EndpointURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("provider %q: endpoint_url must be an absolute http(s) URL", name))
		}
		if strings.TrimSpace(cfg.DefaultModel) == "" {
			errs = append(errs, fmt.Errorf("provider %q: default_model is required", name))
		}
		if cfg.RequestsPerMinute < 0 {
			errs = append(errs, fmt.Errorf("provider %q: requests_per_minute must not be negative", name))
		}
		if cfg.Timeout < 0 {
			errs = append(errs, fmt.Errorf("provider %q: timeout must not be negative", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", entity.ErrValidation, errors.Join(errs...))
	}
	return nil
}
