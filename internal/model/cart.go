package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the per-user pre-order basket. Created lazily on first add,
// mutable until checkout clears it atomically. Not a state machine.
type Cart struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []CartItem `gorm:"foreignKey:CartID"`
}

func (Cart) TableName() string { return "carts" }

// CartItem is one line of the basket. UnitPrice is snapshotted at add-time;
// DiscountApplied is the per-line promotion discount persisted by the cart
// aggregator after the promotion engine evaluates.
type CartItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CartID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ArticleID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity        int             `gorm:"not null"` // >= 1
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountApplied decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PromotionID     *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Article *Article `gorm:"foreignKey:ArticleID"`
}

func (CartItem) TableName() string { return "cart_items" }

// LineTotal returns unit_price × quantity − discount for this line.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Sub(i.DiscountApplied)
}
