// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"

	"melodia/internal/errs"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// StatusFor maps the domain error taxonomy to HTTP status codes.
// Unknown errors map to 500 — the handler must then log the cause and
// respond with a generic message, never the error text itself.
func StatusFor(err error) int {
	var (
		notFound   *errs.NotFoundError
		validation *errs.ValidationError
		stock      *errs.InsufficientStockError
		promo      *errs.PromotionNotApplicableError
		amount     *errs.AmountMismatchError
		transition *errs.InvalidTransitionError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &stock):
		return http.StatusConflict
	case errors.As(err, &promo):
		return http.StatusUnprocessableEntity
	case errors.As(err, &amount):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.Is(err, errs.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrDuplicatePayment):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
