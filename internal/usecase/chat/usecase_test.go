package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	results []entity.RetrievalResult
	err     error
}

func (s stubRetriever) Search(context.Context, string, int, *float64) ([]entity.RetrievalResult, error) {
	return s.results, s.err
}

type recordingDispatcher struct {
	got  []entity.ChatRequest
	resp entity.ChatResponse
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, req entity.ChatRequest) (entity.ChatResponse, error) {
	d.got = append(d.got, req)
	return d.resp, d.err
}

func sources() []entity.RetrievalResult {
	return []entity.RetrievalResult{
		{ChunkRef: entity.ChunkRef{DocumentID: "alpha", Ordinal: 0}, SourceDocumentID: "alpha", Score: 0.9, Text: "the quick fox"},
		{ChunkRef: entity.ChunkRef{DocumentID: "beta", Ordinal: 3}, SourceDocumentID: "beta", Score: 0.4, Text: "the slow fox"},
	}
}

func TestHandle_ComposesPromptFromPersonaContextAndMessage(t *testing.T) {
	d := &recordingDispatcher{resp: entity.ChatResponse{ID: "r1", Text: "foxes are fast"}}
	uc := NewUsecase(stubRetriever{results: sources()}, d, Config{Temperature: 0.3, MaxTokens: 256})

	reply, err := uc.Handle(context.Background(), entity.ChatTurn{
		Message:  "which fox is quick?",
		Provider: "openai",
		Persona:  "You are a zoologist.",
	})
	require.NoError(t, err)
	assert.Equal(t, "foxes are fast", reply.Text)
	assert.Equal(t, "r1", reply.ID)
	assert.Len(t, reply.Sources, 2)

	require.Len(t, d.got, 1)
	req := d.got[0]
	assert.Equal(t, "openai", req.Provider)
	assert.Equal(t, 0.3, req.Temperature)
	assert.Equal(t, 256, req.MaxTokens)
	assert.Equal(t, []entity.Message{
		{Role: entity.RoleSystem, Content: "You are a zoologist."},
		{Role: entity.RoleUser, Content: "which fox is quick?"},
	}, req.Messages)

	assert.Contains(t, req.Context, "=== Source 1: alpha (chunk 0, score 0.900) ===")
	assert.Contains(t, req.Context, "=== Source 2: beta (chunk 3, score 0.400) ===")
	assert.Less(t, strings.Index(req.Context, "the quick fox"), strings.Index(req.Context, "the slow fox"))
}

func TestHandle_NoResultsMeansNoContext(t *testing.T) {
	d := &recordingDispatcher{}
	uc := NewUsecase(stubRetriever{}, d, Config{})

	_, err := uc.Handle(context.Background(), entity.ChatTurn{Message: "hi", Provider: "p"})
	require.NoError(t, err)
	assert.Empty(t, d.got[0].Context)
	assert.Equal(t, DefaultPersona, d.got[0].Messages[0].Content)
}

func TestHandle_RetrievalFailureIsNotFatal(t *testing.T) {
	d := &recordingDispatcher{resp: entity.ChatResponse{Text: "still answered"}}
	uc := NewUsecase(stubRetriever{err: errors.New("index unavailable")}, d, Config{})

	reply, err := uc.Handle(context.Background(), entity.ChatTurn{Message: "hi", Provider: "p"})
	require.NoError(t, err)
	assert.Equal(t, "still answered", reply.Text)
	assert.Empty(t, reply.Sources)
	assert.Empty(t, d.got[0].Context)
}

func TestHandle_DispatchErrorIsReturnedUnchanged(t *testing.T) {
	dispatchErr := &entity.DispatchError{Stage: entity.StageSend, Provider: "p", Err: entity.ErrFatalUpstream}
	d := &recordingDispatcher{err: dispatchErr}
	uc := NewUsecase(stubRetriever{}, d, Config{})

	_, err := uc.Handle(context.Background(), entity.ChatTurn{Message: "hi", Provider: "p"})
	assert.Same(t, dispatchErr, err)
}

func TestHandle_ExplicitOverrides(t *testing.T) {
	zero := 0.0
	d := &recordingDispatcher{}
	uc := NewUsecase(stubRetriever{}, d, Config{Temperature: 0.7, MaxTokens: 100})

	_, err := uc.Handle(context.Background(), entity.ChatTurn{
		Message: "hi", Provider: "p", Model: "m", Temperature: &zero, MaxTokens: 5, SkipCache: true,
	})
	require.NoError(t, err)

	req := d.got[0]
	assert.Equal(t, 0.0, req.Temperature)
	assert.Equal(t, 5, req.MaxTokens)
	assert.Equal(t, "m", req.Model)
	assert.True(t, req.SkipCache)
}

func TestHandle_InvalidTurn(t *testing.T) {
	d := &recordingDispatcher{}
	uc := NewUsecase(stubRetriever{}, d, Config{})

	_, err := uc.Handle(context.Background(), entity.ChatTurn{Provider: "p"})
	assert.ErrorIs(t, err, entity.ErrMissingField)
	assert.Empty(t, d.got)
}
