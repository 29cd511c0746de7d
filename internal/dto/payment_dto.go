package dto

import "github.com/shopspring/decimal"

type ProcessPaymentRequest struct {
	OrderID string          `json:"orden_id"    validate:"required,uuid"`
	Method  string          `json:"metodo_pago" validate:"required,oneof=tarjeta transferencia efectivo_contra_entrega"`
	Amount  decimal.Decimal `json:"monto"       validate:"required"`
	CardRef *string         `json:"tarjeta_ref,omitempty"`
	Email   *string         `json:"email,omitempty" validate:"omitempty,email"`
}

type RefundPaymentRequest struct {
	Amount decimal.Decimal `json:"monto" validate:"required"`
	Reason string          `json:"motivo" validate:"required"`
}

type PaymentResponse struct {
	ID             string          `json:"id"`
	OrderID        string          `json:"orden_id"`
	Method         string          `json:"metodo_pago"`
	Status         string          `json:"estado"`
	Currency       string          `json:"moneda"`
	Amount         decimal.Decimal `json:"monto"`
	TransactionRef *string         `json:"transaccion_ref,omitempty"`
	RefundedAmount decimal.Decimal `json:"monto_reembolsado"`
	ProcessedAt    *string         `json:"processed_at,omitempty"`
}

type InvoiceResponse struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"orden_id"`
	InvoiceNumber string          `json:"numero_factura"`
	IssueDate     string          `json:"fecha_emision"`
	DueDate       string          `json:"fecha_vencimiento"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"impuestos"`
	TotalAmount   decimal.Decimal `json:"total"`
	Estado        string          `json:"estado"`
	PDFUrl        *string         `json:"pdf_url,omitempty"`
}
