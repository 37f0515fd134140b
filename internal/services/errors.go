// Package services holds the business logic behind the HTTP handlers:
// creating and reading wrapped records, admin login, and image uploads.
//
// Services return *apperr.Error values for every predictable failure so the
// HTTP layer can render them without further mapping. Unexpected repository
// failures are wrapped as request-scoped InternalServer errors; they never
// take the process down.
package services

import (
	"context"
	"errors"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/repo"
)

// Client-facing messages.
const (
	MsgWrappedNotFound    = "Wrapped not found"
	MsgSlugConflict       = "Could not allocate a unique slug, please retry"
	MsgBadCredentials     = "Username or Password Incorrect"
	MsgImagesOnly         = "Only images are allowed"
	MsgFileTooLarge       = "File too large"
	MsgImageKeyRequired   = "Image key is required"
	MsgImageNotFound      = "Image not found"
	MsgStorageUnavailable = "Image storage is unavailable"
)

// KindPayloadTooLarge tags upload size failures.
const KindPayloadTooLarge = "PayloadTooLargeError"

// classify maps a repository error onto the error model. notFound is the
// message used when the record does not exist.
func classify(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(notFound).CausedBy(err)
	case errors.Is(err, repo.ErrDuplicate):
		return apperr.Conflict("").CausedBy(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.New("Request cancelled", 499, false, err)
	default:
		return apperr.InternalServer("").CausedBy(err)
	}
}
