package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
)

// Supported provider kinds.
const (
	KindGeneric   = "generic"
	KindOpenAI    = "openai"
	KindAnthropic = "anthropic"
	KindOllama    = "ollama"
)

// Adapter maps the uniform chat request onto one vendor's wire format.
type Adapter interface {
	// ChatPath is appended to the provider endpoint for completions.
	ChatPath() string
	BuildRequest(model string, req entity.ChatRequest) (any, error)
	ParseResponse(raw json.RawMessage) (entity.Completion, error)
	// ModelsPath is empty when the vendor has no model listing endpoint.
	ModelsPath() string
	ParseModels(raw json.RawMessage) ([]string, error)
	// AuthHeader returns the header carrying secret, or "" when none is sent.
	AuthHeader(secret string) (name, value string)
	Headers() map[string]string
}

func adapterFor(kind string) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindGeneric:
		return genericAdapter{}, nil
	case KindOpenAI:
		return openAIAdapter{}, nil
	case KindAnthropic:
		return anthropicAdapter{}, nil
	case KindOllama:
		return ollamaAdapter{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider kind %q", kind)
	}
}

// composeMessages places the retrieved context right after the leading system messages.
func composeMessages(req entity.ChatRequest) []entity.Message {
	if strings.TrimSpace(req.Context) == "" {
		return req.Messages
	}

	out := make([]entity.Message, 0, len(req.Messages)+1)
	i := 0
	for ; i < len(req.Messages) && req.Messages[i].Role == entity.RoleSystem; i++ {
		out = append(out, req.Messages[i])
	}
	out = append(out, entity.Message{Role: entity.RoleSystem, Content: req.Context})
	return append(out, req.Messages[i:]...)
}

func bearer(secret string) (string, string) {
	if secret == "" {
		return "", ""
	}
	return "Authorization", "Bearer " + secret
}

type genericAdapter struct{}

type genericRequest struct {
	Model       string           `json:"model"`
	Messages    []entity.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type genericResponse struct {
	Text  *string      `json:"text"`
	Usage entity.Usage `json:"usage"`
}

func (genericAdapter) ChatPath() string { return "" }

func (genericAdapter) BuildRequest(model string, req entity.ChatRequest) (any, error) {
	return genericRequest{
		Model:       model,
		Messages:    composeMessages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, nil
}

func (genericAdapter) ParseResponse(raw json.RawMessage) (entity.Completion, error) {
	var resp genericResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.Completion{}, err
	}
	if resp.Text == nil {
		return entity.Completion{}, fmt.Errorf("response has no text field")
	}
	return entity.Completion{Text: *resp.Text, Usage: resp.Usage}, nil
}

func (genericAdapter) ModelsPath() string { return "" }

func (genericAdapter) ParseModels(json.RawMessage) ([]string, error) { return nil, nil }

func (genericAdapter) AuthHeader(secret string) (string, string) { return bearer(secret) }

func (genericAdapter) Headers() map[string]string { return nil }
