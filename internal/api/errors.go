package api

import (
	"errors"
	"net/http"

	"github.com/opsgrove/helpdesk-api/internal/api/shared"
	"github.com/opsgrove/helpdesk-api/internal/domain"
	"github.com/opsgrove/helpdesk-api/internal/schedule"
	"github.com/opsgrove/helpdesk-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var cronErr *schedule.InvalidCronError

	switch {
	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Conflict errors
	case store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.As(err, &cronErr):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var cronErr *schedule.InvalidCronError

	switch {
	case errors.Is(err, store.ErrTicketNotFound):
		return "Ticket not found"

	case errors.Is(err, store.ErrTemplateNotFound):
		return "Template not found"

	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, store.ErrTemplateNameExists):
		return "A template with this name already exists"

	case store.IsDuplicateError(err):
		return "Resource already exists"

	// Cron parse errors carry only the rejected expression, which the
	// client supplied, so surfacing them is safe and far more useful
	// than a generic message.
	case errors.As(err, &cronErr):
		return cronErr.Error()

	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// RespondWithMappedError is a convenience wrapper combining the status code
// and safe-message mapping with the shared error response helper.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	shared.RespondWithErrorAndLog(w, r, status, GetSafeErrorMessage(err), err)
}
