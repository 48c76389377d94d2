package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/ragchat-backend/internal/entity"
	pkghttp "github.com/futig/ragchat-backend/pkg/http"
)

type failureClass int

const (
	// retried, then the fallback model is tried
	classTransient failureClass = iota
	// not retried, the fallback model is tried
	classRejected
	// surfaced immediately
	classFatal
	classConfiguration
)

func classify(err error) failureClass {
	switch {
	case errors.Is(err, entity.ErrUnknownProvider), errors.Is(err, entity.ErrUnknownModel):
		return classConfiguration
	case errors.Is(err, entity.ErrValidation):
		return classFatal
	}

	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		switch code := httpErr.StatusCode; {
		case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= 500:
			return classTransient
		case code == http.StatusBadRequest, code == http.StatusUnauthorized, code == http.StatusForbidden:
			return classFatal
		default:
			return classRejected
		}
	}

	var decodeErr *pkghttp.DecodeError
	if errors.As(err, &decodeErr) {
		return classFatal
	}

	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return classTransient
	}

	return classFatal
}

func retryAfterHint(err error) time.Duration {
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}

// wrapFinal attaches the taxonomy sentinel to the last upstream error.
func wrapFinal(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", entity.ErrDeadlineExceeded, ctxErr)
		}
		return ctxErr
	}

	switch classify(err) {
	case classConfiguration:
		return err
	case classTransient:
		return fmt.Errorf("%w: %w", entity.ErrTransientUpstream, err)
	default:
		return fmt.Errorf("%w: %w", entity.ErrFatalUpstream, err)
	}
}
