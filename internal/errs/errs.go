// Package errs defines the closed set of domain errors that services return.
// Handlers map each kind to an HTTP status through apierror — internal causes
// (SQL errors, driver messages) never reach clients.
package errs

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for conditions that carry no extra context.
var (
	ErrEmptyCart        = errors.New("el carrito está vacío")
	ErrDuplicatePayment = errors.New("la orden ya tiene un pago procesado")
)

// NotFoundError identifies a missing entity by resource name and id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s no encontrado", e.Resource)
	}
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports a malformed or out-of-range input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación: %s %s", e.Field, e.Reason)
}

// InsufficientStockError is returned when a Salida would drive stock below
// zero. Carries enough context for a user-facing message.
type InsufficientStockError struct {
	ArticleID uuid.UUID
	Title     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %q: solicitado %d, disponible %d",
		e.Title, e.Requested, e.Available)
}

// PromotionNotApplicableError is returned when an article fails any
// promotion eligibility rule (type, membership, active window).
type PromotionNotApplicableError struct {
	PromotionID uuid.UUID
	ArticleID   uuid.UUID
	Reason      string
}

func (e *PromotionNotApplicableError) Error() string {
	if e.ArticleID != uuid.Nil {
		return fmt.Sprintf("promoción no aplicable al artículo %s: %s", e.ArticleID, e.Reason)
	}
	return "promoción no aplicable: " + e.Reason
}

// AmountMismatchError is returned when a payment amount differs from the
// order's outstanding total.
type AmountMismatchError struct {
	Expected decimal.Decimal
	Got      decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("el monto %s no coincide con el total de la orden %s",
		e.Got.StringFixed(2), e.Expected.StringFixed(2))
}

// InvalidTransitionError reports a rejected order status change.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición de estado inválida: %s → %s", e.From, e.To)
}
