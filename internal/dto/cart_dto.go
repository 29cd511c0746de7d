package dto

import "github.com/shopspring/decimal"

type AddCartItemRequest struct {
	ArticleID string `json:"articulo_id" validate:"required,uuid"`
	Quantity  int    `json:"cantidad"    validate:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"cantidad" validate:"required,min=1"`
}

type ApplyPromotionRequest struct {
	PromotionID string   `json:"promocion_id" validate:"required,uuid"`
	ArticleIDs  []string `json:"articulo_ids" validate:"required,min=1,dive,uuid"`
}

type CartItemResponse struct {
	ID              string          `json:"id"`
	ArticleID       string          `json:"articulo_id"`
	Title           string          `json:"titulo"`
	Quantity        int             `json:"cantidad"`
	UnitPrice       decimal.Decimal `json:"precio_unitario"`
	DiscountApplied decimal.Decimal `json:"descuento"`
	LineTotal       decimal.Decimal `json:"total_linea"`
	PromotionID     *string         `json:"promocion_id,omitempty"`
}

type CartResponse struct {
	ID       string             `json:"id"`
	Items    []CartItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}
