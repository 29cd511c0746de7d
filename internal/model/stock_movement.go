package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types — the ledger only knows entries and exits.
const (
	MovementEntrada = "Entrada"
	MovementSalida  = "Salida"
)

// Reference types recorded on movements.
const (
	RefOrden       = "Orden"
	RefAjuste      = "Ajuste"
	RefCancelacion = "Cancelacion"
	RefReposicion  = "Reposicion"
)

// StockMovement is an append-only audit record for every inventory change.
// Rows are NEVER updated or deleted — corrections create inverse entries.
// Invariant: NewStock = PreviousStock ± Quantity according to Type.
type StockMovement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ArticleID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Type          string    `gorm:"type:varchar(10);not null"` // Entrada | Salida
	Quantity      int       `gorm:"not null"`                  // always positive
	PreviousStock int       `gorm:"not null"`
	NewStock      int       `gorm:"not null"`
	ReferenceType string    `gorm:"type:varchar(20);not null"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid"` // order id, adjustment id, …
	CreatedBy     uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt     time.Time

	Article *Article `gorm:"foreignKey:ArticleID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
