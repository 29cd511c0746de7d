package repository

import (
	"context"
	"time"

	"melodia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error)
	Update(ctx context.Context, inv *model.Invoice) error
	NextInvoiceNumber(ctx context.Context, tx *gorm.DB) (int64, error)
	// ListPendingRetries returns invoices whose PDF emission failed and whose
	// next_retry_at has passed — consumed by the retry cron.
	ListPendingRetries(ctx context.Context, before time.Time, limit int) ([]model.Invoice, error)
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	return &inv, err
}

func (r *invoiceRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) Update(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *invoiceRepo) NextInvoiceNumber(ctx context.Context, tx *gorm.DB) (int64, error) {
	// PostgreSQL sequence keeps numbering atomic across concurrent payments
	var num int64
	err := tx.WithContext(ctx).Raw("SELECT nextval('invoices_numero_seq')").Scan(&num).Error
	return num, err
}

func (r *invoiceRepo) ListPendingRetries(ctx context.Context, before time.Time, limit int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Where("estado = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", "pendiente", before).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&invoices).Error
	return invoices, err
}
