package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/users-qa/internal/api/shared"
	"github.com/phrazzld/users-qa/internal/auth"
	"github.com/phrazzld/users-qa/internal/store"
)

// ErrInvalidPayload is returned for requests that are well-formed JSON but
// do not describe a valid user: missing or null fields, malformed email or
// phone, bad ids. The sandbox answers these with 422.
var ErrInvalidPayload = errors.New("invalid payload")

// PayloadError describes one rejected field. Its message is safe to return
// to clients.
type PayloadError struct {
	Field  string
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *PayloadError) Unwrap() error { return e.Err }

func invalidField(field, reason string) error {
	return &PayloadError{Field: field, Reason: reason, Err: ErrInvalidPayload}
}

func blankField(field string) error {
	return &PayloadError{Field: field, Reason: "must not be blank", Err: store.ErrInvalidEntity}
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, ErrInvalidPayload):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var perr *PayloadError
	switch {
	case errors.As(err, &perr):
		return perr.Error()
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	case errors.Is(err, ErrInvalidPayload):
		return "Invalid payload"
	default:
		return "An unexpected error occurred"
	}
}

// validationReason describes why a single value failed validation.
func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return getValidationTagMessage(verrs[0].Tag())
	}
	return "validation failed"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "phone":
		return "invalid phone number"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err using the status and message
// mappings above. A non-empty message overrides the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
