// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/campusgive/campusgive/internal/shared"
)

// Status maps a domain error to its HTTP status code and public message.
func Status(err error) (int, string) {
	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Message
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, shared.ErrMissingCredential):
		return http.StatusUnauthorized, "No token, authorization denied"
	case errors.Is(err, shared.ErrInvalidCredential):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, shared.ErrDuplicateEmail):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, "Forbidden: you can only modify your own items"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

// RespondError maps domain errors to HTTP responses.
func RespondError(w http.ResponseWriter, err error) {
	status, message := Status(err)
	Error(w, status, message)
}
