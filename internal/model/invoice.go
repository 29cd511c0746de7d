package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice PDF emission states (the invoice row itself is immutable apart
// from the emission pipeline fields).
// Estado: "pendiente" | "emitida" | "error"
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	InvoiceNumber string          `gorm:"uniqueIndex;not null"`
	IssueDate     time.Time       `gorm:"not null"`
	DueDate       time.Time       `gorm:"not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// PDFPath is relative to PDF_STORAGE_PATH
	PDFPath *string `gorm:"column:pdf_path"`
	Estado  string  `gorm:"type:varchar(20);not null;default:'pendiente'"`
	// Retry fields — used by the retry cron to re-attempt failed PDF emissions
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Invoice) TableName() string { return "invoices" }
