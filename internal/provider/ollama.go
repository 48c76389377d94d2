package provider

import (
	"encoding/json"

	"github.com/futig/ragchat-backend/internal/entity"
)

type ollamaAdapter struct{}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type ollamaChatRequest struct {
	Model    string           `json:"model"`
	Messages []entity.Message `json:"messages"`
	Stream   bool             `json:"stream"`
	Options  *ollamaOptions   `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         *entity.Message `json:"message"`
	Done            bool            `json:"done"`
	PromptEvalCount int             `json:"prompt_eval_count"`
	EvalCount       int             `json:"eval_count"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (ollamaAdapter) ChatPath() string { return "/api/chat" }

func (ollamaAdapter) BuildRequest(model string, req entity.ChatRequest) (any, error) {
	return ollamaChatRequest{
		Model:    model,
		Messages: composeMessages(req),
		Stream:   false,
		Options: &ollamaOptions{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		},
	}, nil
}

func (ollamaAdapter) ParseResponse(raw json.RawMessage) (entity.Completion, error) {
	var resp ollamaChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.Completion{}, err
	}
	if resp.Message == nil {
		return entity.Completion{}, errNoMessage
	}
	return entity.Completion{
		Text: resp.Message.Content,
		Usage: entity.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

func (ollamaAdapter) ModelsPath() string { return "/api/tags" }

func (ollamaAdapter) ParseModels(raw json.RawMessage) ([]string, error) {
	var resp ollamaTagsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

// Local Ollama servers are unauthenticated unless a proxy sits in front.
func (ollamaAdapter) AuthHeader(secret string) (string, string) { return bearer(secret) }

func (ollamaAdapter) Headers() map[string]string { return nil }
