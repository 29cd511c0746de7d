package repository

import (
	"context"

	"melodia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateTx(tx *gorm.DB, p *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	// FindProcessedByOrderID returns the Procesado payment for an order,
	// gorm.ErrRecordNotFound if none — the duplicate-payment guard.
	FindProcessedByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error)
	// FindProcessedByOrderIDTx is the same guard evaluated inside tx, after
	// the order row lock has been taken.
	FindProcessedByOrderIDTx(tx *gorm.DB, orderID uuid.UUID) (*model.Payment, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error)
	Update(ctx context.Context, p *model.Payment) error
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *paymentRepo) FindProcessedByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, model.PaymentProcesado).
		First(&p).Error
	return &p, err
}

func (r *paymentRepo) FindProcessedByOrderIDTx(tx *gorm.DB, orderID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	err := tx.
		Where("order_id = ? AND status = ?", orderID, model.PaymentProcesado).
		First(&p).Error
	return &p, err
}

func (r *paymentRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) Update(ctx context.Context, p *model.Payment) error {
	return r.db.WithContext(ctx).Save(p).Error
}
