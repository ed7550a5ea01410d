// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrUpstream   = errors.New("upstream failure")
	ErrBadRequest = errors.New("bad request")
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	RespondErrorWith(w, err, nil)
}

// RespondErrorWith is RespondError carrying a data member alongside the
// problem fields.
func RespondErrorWith(w http.ResponseWriter, err error, data any) {
	switch {
	case errors.Is(err, ErrNotFound):
		ProblemWith(w, http.StatusNotFound, "Not Found", err.Error(), data)
	case errors.Is(err, ErrConflict):
		ProblemWith(w, http.StatusConflict, "Conflict", err.Error(), data)
	case errors.Is(err, ErrValidation):
		ProblemWith(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error(), data)
	case errors.Is(err, ErrBadRequest):
		ProblemWith(w, http.StatusBadRequest, "Bad Request", err.Error(), data)
	case errors.Is(err, ErrUpstream):
		ProblemWith(w, http.StatusBadGateway, "Upstream Error", err.Error(), data)
	default:
		ProblemWith(w, http.StatusInternalServerError, "Internal Error", "", data)
	}
}
