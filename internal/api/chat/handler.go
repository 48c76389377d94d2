package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/pkg/formatter"
	"github.com/futig/ragchat-backend/internal/pkg/logger"
	"github.com/futig/ragchat-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ChatUsecase interface {
	Handle(ctx context.Context, turn entity.ChatTurn) (entity.ChatReply, error)
}

type Handler struct {
	usecase ChatUsecase
	factory *formatter.Factory
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{
		usecase: usecase,
		factory: formatter.NewFactory(),
	}
}

// RegisterRoutes registers chat routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.Chat)
}

// Chat handles POST /chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	format := req.Format
	if format == "" {
		format = entity.FormatJSON
	}
	if !format.IsValid() {
		response.Error(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("format must be one of: json, markdown, docx, pdf"))
		return
	}

	ctx = logger.AddFields(ctx,
		zap.String("provider", req.Provider),
		zap.String("format", string(format)),
	)

	reply, err := h.usecase.Handle(ctx, req.ChatTurn)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}
	if reply.Sources == nil {
		reply.Sources = []entity.RetrievalResult{}
	}

	if format == entity.FormatJSON {
		response.Success(w, reply)
		return
	}

	fmtr, err := h.factory.Create(format)
	if err != nil {
		response.Error(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	body, err := fmtr.Format(formatter.NewAnswer(req.Message, reply))
	if err != nil {
		response.Error(ctx, w, http.StatusInternalServerError, "failed to format answer", err)
		return
	}

	w.Header().Set("Content-Type", fmtr.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"answer-%s%s\"", reply.ID, fmtr.FileExtension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
