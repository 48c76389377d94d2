package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/futig/ragchat-backend/internal/entity"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 1024
)

type anthropicAdapter struct{}

type messagesRequest struct {
	Model       string           `json:"model"`
	Messages    []entity.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Temperature float64          `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (anthropicAdapter) ChatPath() string { return "/v1/messages" }

// BuildRequest lifts system messages into the top-level system field.
func (anthropicAdapter) BuildRequest(model string, req entity.ChatRequest) (any, error) {
	var system []string
	messages := make([]entity.Message, 0, len(req.Messages))
	for _, m := range composeMessages(req) {
		if m.Role == entity.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, m)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("anthropic request needs at least one non-system message")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	return messagesRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		System:      strings.Join(system, "\n\n"),
		Temperature: req.Temperature,
	}, nil
}

func (anthropicAdapter) ParseResponse(raw json.RawMessage) (entity.Completion, error) {
	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.Completion{}, err
	}

	var text strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return entity.Completion{}, fmt.Errorf("response has no text content")
	}

	return entity.Completion{
		Text: text.String(),
		Usage: entity.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}

func (anthropicAdapter) ModelsPath() string { return "/v1/models" }

func (anthropicAdapter) ParseModels(raw json.RawMessage) ([]string, error) {
	return openAIAdapter{}.ParseModels(raw)
}

func (anthropicAdapter) AuthHeader(secret string) (string, string) {
	if secret == "" {
		return "", ""
	}
	return "x-api-key", secret
}

func (anthropicAdapter) Headers() map[string]string {
	return map[string]string{"anthropic-version": anthropicVersion}
}
