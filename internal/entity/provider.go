package entity

import "time"

// ProviderConfig describes one upstream LLM endpoint.
type ProviderConfig struct {
	Name              string            `yaml:"name" json:"name"`
	Kind              string            `yaml:"kind" json:"kind"`
	EndpointURL       string            `yaml:"endpoint_url" json:"endpoint_url"`
	AuthMaterial      string            `yaml:"-" json:"-"`
	APIKeyEnv         string            `yaml:"api_key_env" json:"-"`
	DefaultModel      string            `yaml:"default_model" json:"default_model"`
	FallbackModel     string            `yaml:"fallback_model" json:"fallback_model,omitempty"`
	Models            []string          `yaml:"models" json:"models,omitempty"`
	RequestsPerMinute int               `yaml:"requests_per_minute" json:"requests_per_minute"`
	Timeout           time.Duration     `yaml:"timeout" json:"timeout,omitempty"`
	Headers           map[string]string `yaml:"headers" json:"-"`
}

// AllowsModel reports whether model may be requested from this provider.
func (p ProviderConfig) AllowsModel(model string) bool {
	if len(p.Models) == 0 || model == p.DefaultModel || model == p.FallbackModel {
		return true
	}
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}
