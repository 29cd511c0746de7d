package repository

import (
	"context"

	"melodia/internal/dto"
	"melodia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	CreateTx(tx *gorm.DB, o *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindByIDForUpdateTx locks the order row for the duration of tx,
	// serializing concurrent payments against the same order.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error)
	FindByNumber(ctx context.Context, number string) (*model.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter dto.OrderFilter) ([]model.Order, int64, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string, fields map[string]interface{}) error
	DB() *gorm.DB // exposes the DB for transaction creation in the service layer
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) DB() *gorm.DB { return r.db }

func (r *orderRepo) CreateTx(tx *gorm.DB, o *model.Order) error {
	return tx.Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Payment").Preload("Invoice").
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *orderRepo) FindByNumber(ctx context.Context, number string) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Payment").Preload("Invoice").
		Where("order_number = ?", number).First(&o).Error
	return &o, err
}

func (r *orderRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter dto.OrderFilter) ([]model.Order, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID), filter)
}

func (r *orderRepo) List(ctx context.Context, filter dto.OrderFilter) ([]model.Order, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.Order{}), filter)
}

func (r *orderRepo) list(_ context.Context, q *gorm.DB, filter dto.OrderFilter) ([]model.Order, int64, error) {
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var orders []model.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error
	return orders, total, err
}

// UpdateStatusTx updates the status plus any timestamp fields (shipped_at,
// delivered_at) in one statement inside the caller's transaction.
func (r *orderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string, fields map[string]interface{}) error {
	updates := map[string]interface{}{"status": status}
	for k, v := range fields {
		updates[k] = v
	}
	return tx.Model(&model.Order{}).Where("id = ?", id).Updates(updates).Error
}
