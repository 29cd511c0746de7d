package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment statuses. Pendiente → Procesado, or Fallido; Procesado → Reembolsado.
const (
	PaymentPendiente   = "Pendiente"
	PaymentProcesado   = "Procesado"
	PaymentFallido     = "Fallido"
	PaymentReembolsado = "Reembolsado"
)

// Payment methods accepted at checkout.
const (
	MethodTarjeta       = "tarjeta"
	MethodTransferencia = "transferencia"
	MethodContraEntrega = "efectivo_contra_entrega"
)

// Payment records a charge attempt against one order. A successful charge
// gets TransactionRef/GatewayRef from the gateway sidecar; refunds are
// recorded here and never touch the invoice.
type Payment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method         string          `gorm:"type:varchar(30);not null"`
	Status         string          `gorm:"type:varchar(15);not null;default:'Pendiente'"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TransactionRef *string         `gorm:"type:varchar(64)"`
	GatewayRef     *string         `gorm:"type:varchar(64)"`
	RefundedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Payment) TableName() string { return "payments" }
