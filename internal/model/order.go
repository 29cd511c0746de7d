package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. Pendiente → Procesando → Enviado → Entregado, with a side
// transition Pendiente|Procesando → Cancelado (terminal). No skips.
const (
	StatusPendiente  = "Pendiente"
	StatusProcesando = "Procesando"
	StatusEnviado    = "Enviado"
	StatusEntregado  = "Entregado"
	StatusCancelado  = "Cancelado"
)

// orderTransitions is the complete transition table for order status.
var orderTransitions = map[string][]string{
	StatusPendiente:  {StatusProcesando, StatusCancelado},
	StatusProcesando: {StatusEnviado, StatusCancelado},
	StatusEnviado:    {StatusEntregado},
	StatusEntregado:  {},
	StatusCancelado:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is the immutable purchase record derived from a cart at checkout.
// All monetary fields and item snapshots are fixed at creation and are the
// sole source of truth afterwards — never recomputed from the catalog.
type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderNumber   string          `gorm:"uniqueIndex;not null"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status        string          `gorm:"type:varchar(15);not null;default:'Pendiente'"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ShippingCost  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Address snapshots — flat text, frozen at order time.
	ShippingAddress string `gorm:"not null"`
	BillingAddress  string `gorm:"not null"`
	PaymentMethod   string `gorm:"type:varchar(30);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time

	Items   []OrderItem `gorm:"foreignKey:OrderID"`
	Payment *Payment    `gorm:"foreignKey:OrderID"`
	Invoice *Invoice    `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots one cart line at checkout. Article data is copied by
// value (title, price, discount) — the article is referenced by id only.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ArticleID      uuid.UUID       `gorm:"type:uuid;not null"`
	Title          string          `gorm:"not null"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PromotionName  *string
	CreatedAt      time.Time
}

func (OrderItem) TableName() string { return "order_items" }
