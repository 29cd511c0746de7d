package repository

import (
	"context"

	"melodia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartRepository owns carts and their items. A user has at most one cart,
// created lazily by FindOrCreate.
type CartRepository interface {
	FindOrCreate(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	FindItem(ctx context.Context, cartID, articleID uuid.UUID) (*model.CartItem, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error)
	CreateItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	UpdateSubtotal(ctx context.Context, cartID uuid.UUID, subtotal decimal.Decimal) error

	// ClearTx removes all items and zeroes the subtotal inside the caller's
	// transaction — checkout uses it so cart destruction commits with the order.
	ClearTx(tx *gorm.DB, cartID uuid.UUID) error

	DB() *gorm.DB
}

type cartRepo struct{ db *gorm.DB }

func NewCartRepository(db *gorm.DB) CartRepository { return &cartRepo{db: db} }

func (r *cartRepo) FindOrCreate(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Article").
		Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	cart = model.Cart{UserID: userID, Subtotal: decimal.Zero}
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Article").
		Where("user_id = ?", userID).First(&cart).Error
	return &cart, err
}

func (r *cartRepo) FindItem(ctx context.Context, cartID, articleID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND article_id = ?", cartID, articleID).
		First(&item).Error
	return &item, err
}

func (r *cartRepo) FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	return &item, err
}

func (r *cartRepo) CreateItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepo) UpdateItem(ctx context.Context, item *model.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *cartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CartItem{}, "id = ?", itemID).Error
}

func (r *cartRepo) UpdateSubtotal(ctx context.Context, cartID uuid.UUID, subtotal decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.Cart{}).
		Where("id = ?", cartID).Update("subtotal", subtotal).Error
}

func (r *cartRepo) ClearTx(tx *gorm.DB, cartID uuid.UUID) error {
	if err := tx.Delete(&model.CartItem{}, "cart_id = ?", cartID).Error; err != nil {
		return err
	}
	return tx.Model(&model.Cart{}).Where("id = ?", cartID).
		Update("subtotal", decimal.Zero).Error
}

func (r *cartRepo) DB() *gorm.DB { return r.db }
