package provider

import (
	"encoding/json"
	"testing"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeMessages(t *testing.T) {
	req := entity.ChatRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: "persona"},
			{Role: entity.RoleUser, Content: "question"},
		},
		Context: "context block",
	}

	got := composeMessages(req)
	require.Len(t, got, 3)
	assert.Equal(t, "persona", got[0].Content)
	assert.Equal(t, entity.Message{Role: entity.RoleSystem, Content: "context block"}, got[1])
	assert.Equal(t, "question", got[2].Content)
	assert.Len(t, req.Messages, 2)

	req.Context = "  "
	assert.Equal(t, req.Messages, composeMessages(req))
}

func TestGenericAdapter(t *testing.T) {
	a := genericAdapter{}

	payload, err := a.BuildRequest("m", entity.ChatRequest{
		Messages:    []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
		Temperature: 0.2,
		MaxTokens:   64,
	})
	require.NoError(t, err)
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"m","messages":[{"role":"user","content":"hi"}],"temperature":0.2,"max_tokens":64}`, string(data))

	got, err := a.ParseResponse(json.RawMessage(`{"text":"ok","usage":{"total_tokens":7}}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Text)
	assert.Equal(t, 7, got.Usage.TotalTokens)

	_, err = a.ParseResponse(json.RawMessage(`{"answer":"ok"}`))
	assert.Error(t, err)
}

func TestOpenAIAdapter(t *testing.T) {
	a := openAIAdapter{}

	got, err := a.ParseResponse(json.RawMessage(`{"choices":[{"message":{"content":"yes"}}],"usage":{"prompt_tokens":2,"completion_tokens":1,"total_tokens":3}}`))
	require.NoError(t, err)
	assert.Equal(t, "yes", got.Text)
	assert.Equal(t, 3, got.Usage.TotalTokens)

	models, err := a.ParseModels(json.RawMessage(`{"data":[{"id":"a"},{"id":"b"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, models)

	name, value := a.AuthHeader("k")
	assert.Equal(t, "Authorization", name)
	assert.Equal(t, "Bearer k", value)
}

func TestAnthropicAdapter_RequiresConversation(t *testing.T) {
	_, err := anthropicAdapter{}.BuildRequest("m", entity.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleSystem, Content: "only system"}},
	})
	assert.Error(t, err)
}

func TestAnthropicAdapter_DefaultsMaxTokens(t *testing.T) {
	payload, err := anthropicAdapter{}.BuildRequest("m", entity.ChatRequest{
		Messages: []entity.Message{{Role: entity.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, anthropicMaxTokens, payload.(messagesRequest).MaxTokens)
}

func TestOllamaAdapter(t *testing.T) {
	a := ollamaAdapter{}

	got, err := a.ParseResponse(json.RawMessage(`{"message":{"role":"assistant","content":"hey"},"done":true,"prompt_eval_count":4,"eval_count":2}`))
	require.NoError(t, err)
	assert.Equal(t, "hey", got.Text)
	assert.Equal(t, 6, got.Usage.TotalTokens)

	_, err = a.ParseResponse(json.RawMessage(`{"done":true}`))
	assert.ErrorIs(t, err, errNoMessage)

	name, _ := a.AuthHeader("")
	assert.Empty(t, name)
}

func TestAdapterFor(t *testing.T) {
	for _, kind := range []string{"", "generic", "OpenAI", "anthropic", " ollama "} {
		_, err := adapterFor(kind)
		assert.NoError(t, err, kind)
	}
	_, err := adapterFor("gemini")
	assert.Error(t, err)
}
