package chat

import (
	"context"
	"errors"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Config struct {
	Persona     string
	Temperature float64
	MaxTokens   int
}

// ChatUsecase grounds a user message in retrieved passages and sends it to a provider.
type ChatUsecase struct {
	retriever  Retriever
	dispatcher Dispatcher
	cfg        Config
}

func NewUsecase(retriever Retriever, dispatcher Dispatcher, cfg Config) *ChatUsecase {
	if cfg.Persona == "" {
		cfg.Persona = DefaultPersona
	}
	return &ChatUsecase{
		retriever:  retriever,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Handle runs one chat turn. Retrieval is best-effort: its failure only drops the context.
// Dispatcher errors are returned as they are.
func (uc *ChatUsecase) Handle(ctx context.Context, turn entity.ChatTurn) (entity.ChatReply, error) {
	if err := validator.ValidateChatTurn(&turn); err != nil {
		return entity.ChatReply{}, err
	}

	results, err := uc.retriever.Search(ctx, turn.Message, 0, nil)
	if err != nil {
		ctxzap.Warn(ctx, "retrieval failed, continuing without context", zap.Error(err))
		results = nil
	}

	persona := turn.Persona
	if persona == "" {
		persona = uc.cfg.Persona
	}
	temperature := uc.cfg.Temperature
	if turn.Temperature != nil {
		temperature = *turn.Temperature
	}
	maxTokens := turn.MaxTokens
	if maxTokens == 0 {
		maxTokens = uc.cfg.MaxTokens
	}

	req := entity.ChatRequest{
		Provider:    turn.Provider,
		Model:       turn.Model,
		Messages:    buildMessages(persona, turn.Message),
		Context:     buildContextBlock(results),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		SkipCache:   turn.SkipCache,
	}

	resp, err := uc.dispatcher.Dispatch(ctx, req)
	logOutcome(ctx, resp.Outcome, len(results), err)

	return entity.ChatReply{ChatResponse: resp, Sources: results}, err
}

func logOutcome(ctx context.Context, o entity.DispatchOutcome, sources int, err error) {
	fields := []zap.Field{
		zap.String("dispatch_id", o.DispatchID),
		zap.String("provider", o.Provider),
		zap.String("model", o.Model),
		zap.String("stage", string(o.Stage)),
		zap.Int("attempts", o.Attempts),
		zap.Bool("cache_hit", o.CacheHit),
		zap.Bool("fallback_used", o.FallbackUsed),
		zap.Duration("duration", o.Duration),
		zap.Int("sources", sources),
	}

	if err == nil {
		ctxzap.Info(ctx, "chat turn dispatched", fields...)
		return
	}

	var dErr *entity.DispatchError
	if errors.As(err, &dErr) {
		fields = append(fields, zap.String("kind", string(dErr.Kind())))
	}
	ctxzap.Warn(ctx, "chat turn failed", append(fields, zap.Error(err))...)
}
