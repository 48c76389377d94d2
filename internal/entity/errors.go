package entity

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors
var (
	// Input errors
	ErrValidation   = errors.New("validation failed")
	ErrMissingField = errors.New("required field is missing")
	ErrNotFound     = errors.New("resource not found")

	// Upload errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Persistence errors
	ErrStorage = errors.New("storage failure")

	// Provider configuration errors
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownModel    = errors.New("unknown model")

	// Upstream errors
	ErrTransientUpstream = errors.New("transient upstream failure")
	ErrFatalUpstream     = errors.New("fatal upstream failure")
	ErrDeadlineExceeded  = errors.New("deadline exceeded")
)

// ErrorKind groups dispatch failures by what the user can do about them.
type ErrorKind string

const (
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindTransient     ErrorKind = "transient"
	ErrorKindFatal         ErrorKind = "fatal"
	ErrorKindDeadline      ErrorKind = "deadline"
)

// DispatchStage names the step of a dispatch that produced the final outcome.
type DispatchStage string

const (
	StageResolve   DispatchStage = "resolve"
	StageCache     DispatchStage = "cache"
	StageRateAdmit DispatchStage = "rate_admit"
	StageSend      DispatchStage = "send"
	StageRetry     DispatchStage = "retry"
	StageFallback  DispatchStage = "fallback"
)

// DispatchError is returned by the dispatcher when a chat request could not be served.
type DispatchError struct {
	Stage    DispatchStage
	Provider string
	Model    string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s/%s failed at %s after %d attempt(s): %v",
		e.Provider, e.Model, e.Stage, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Kind classifies the failure for user-facing reporting.
func (e *DispatchError) Kind() ErrorKind {
	switch {
	case errors.Is(e.Err, ErrDeadlineExceeded):
		return ErrorKindDeadline
	case errors.Is(e.Err, ErrUnknownProvider), errors.Is(e.Err, ErrUnknownModel):
		return ErrorKindConfiguration
	case errors.Is(e.Err, ErrTransientUpstream):
		return ErrorKindTransient
	default:
		return ErrorKindFatal
	}
}

// UserMessage returns a short hint telling the user how to react to the failure.
func (e *DispatchError) UserMessage() string {
	switch e.Kind() {
	case ErrorKindConfiguration:
		return fmt.Sprintf("provider %q or model %q is not configured; pick a different provider or model", e.Provider, e.Model)
	case ErrorKindTransient:
		return fmt.Sprintf("provider %q is temporarily unavailable; please retry in a moment", e.Provider)
	case ErrorKindDeadline:
		return fmt.Sprintf("provider %q did not answer in time after %d attempt(s); please retry", e.Provider, e.Attempts)
	default:
		return fmt.Sprintf("provider %q rejected the request; consider switching to another provider", e.Provider)
	}
}
