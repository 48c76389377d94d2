package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/ragchat-backend/internal/config"
	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/pkg/logger"
	"github.com/futig/ragchat-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase DocumentUsecase
	cfg     config.FileUploadConfig
}

func NewHandler(usecase DocumentUsecase, cfg config.FileUploadConfig) *Handler {
	return &Handler{
		usecase: usecase,
		cfg:     cfg,
	}
}

// IngestDocument handles PUT /documents/{document_id}
func (h *Handler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "IngestDocument"),
	)

	var req entity.IngestTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	doc, err := h.usecase.Ingest(ctx, documentID, req.Text)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, doc)
}

// UploadDocuments handles POST /documents
func (h *Handler) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocuments")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid form data or size too large", err)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		response.Error(ctx, w, http.StatusBadRequest, "at least one file is required", nil)
		return
	}

	ctxzap.Info(ctx, "uploading documents", zap.Int("file_count", len(files)))

	resp, err := h.usecase.Upload(ctx, files)
	if err != nil {
		// Every file was rejected: report why per file.
		if resp != nil && errors.Is(err, entity.ErrValidation) {
			ctxzap.Warn(ctx, "no uploaded file could be ingested", zap.Error(err))
			response.JSON(w, http.StatusUnprocessableEntity, resp)
			return
		}
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Created(w, resp)
}

// ListDocuments handles GET /documents
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListDocuments")

	docs, err := h.usecase.List(ctx)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}
	if docs == nil {
		docs = []*entity.Document{}
	}

	ctxzap.Debug(ctx, "documents listed", zap.Int("count", len(docs)))
	response.Success(w, &entity.ListDocumentsResponse{
		Documents: docs,
		Total:     len(docs),
	})
}

// GetDocument handles GET /documents/{document_id}
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "GetDocument"),
	)

	doc, err := h.usecase.Get(ctx, documentID)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}

	response.Success(w, doc)
}

// DeleteDocument handles DELETE /documents/{document_id}
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("document_id", documentID),
		zap.String("action", "DeleteDocument"),
	)

	deleted, err := h.usecase.Delete(ctx, documentID)
	if err != nil {
		response.UsecaseError(ctx, w, err)
		return
	}
	if !deleted {
		response.UsecaseError(ctx, w, fmt.Errorf("document %q: %w", documentID, entity.ErrNotFound))
		return
	}

	response.Success(w, &entity.DeleteDocumentResponse{
		DocumentID: documentID,
		Deleted:    true,
	})
}
