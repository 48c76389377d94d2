package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// Headers are already sent, nothing useful to do on failure
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error logs err and writes an error response
func Error(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	writeError(ctx, w, status, message, "", err)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, message, kind string, err error) {
	fields := []zap.Field{zap.Int("status", status)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, fields...)
	} else {
		ctxzap.Warn(ctx, message, fields...)
	}

	JSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Kind:    kind,
	})
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// UsecaseError maps a domain error to a status code and writes it.
func UsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	var dErr *entity.DispatchError
	if errors.As(err, &dErr) {
		writeError(ctx, w, dispatchStatus(dErr.Kind()), dErr.UserMessage(), string(dErr.Kind()), err)
		return
	}

	switch {
	case errors.Is(err, entity.ErrNotFound):
		Error(ctx, w, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, entity.ErrUnknownProvider), errors.Is(err, entity.ErrUnknownModel):
		writeError(ctx, w, http.StatusNotFound, err.Error(), string(entity.ErrorKindConfiguration), err)
	case errors.Is(err, entity.ErrInvalidFile),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrTooManyFiles),
		errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrTotalSizeTooLarge):
		Error(ctx, w, http.StatusBadRequest, "invalid file", err)
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrValidation):
		Error(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		Error(ctx, w, http.StatusGatewayTimeout, "request timed out", err)
	default:
		Error(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}

func dispatchStatus(kind entity.ErrorKind) int {
	switch kind {
	case entity.ErrorKindConfiguration:
		return http.StatusBadRequest
	case entity.ErrorKindTransient:
		return http.StatusServiceUnavailable
	case entity.ErrorKindDeadline:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
