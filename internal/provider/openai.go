package provider

import (
	"encoding/json"
	"fmt"

	"github.com/futig/ragchat-backend/internal/entity"
)

type openAIAdapter struct{}

type chatCompletionRequest struct {
	Model       string           `json:"model"`
	Messages    []entity.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage entity.Usage `json:"usage"`
}

type openAIModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (openAIAdapter) ChatPath() string { return "/chat/completions" }

func (openAIAdapter) BuildRequest(model string, req entity.ChatRequest) (any, error) {
	return chatCompletionRequest{
		Model:       model,
		Messages:    composeMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}, nil
}

func (openAIAdapter) ParseResponse(raw json.RawMessage) (entity.Completion, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return entity.Completion{}, fmt.Errorf("response has no choices")
	}
	return entity.Completion{Text: resp.Choices[0].Message.Content, Usage: resp.Usage}, nil
}

func (openAIAdapter) ModelsPath() string { return "/models" }

func (openAIAdapter) ParseModels(raw json.RawMessage) ([]string, error) {
	var resp openAIModelsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	models := make([]string, 0, len(resp.Data))
	for _, m := range resp.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

func (openAIAdapter) AuthHeader(secret string) (string, string) { return bearer(secret) }

func (openAIAdapter) Headers() map[string]string { return nil }
