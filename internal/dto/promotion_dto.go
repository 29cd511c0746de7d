package dto

import "github.com/shopspring/decimal"

type CreatePromotionRequest struct {
	Name               string          `json:"nombre"     validate:"required"`
	Type               string          `json:"tipo"       validate:"required,oneof=genero aleatoria"`
	DiscountPercentage decimal.Decimal `json:"porcentaje" validate:"required"`
	MaxItems           int             `json:"max_items"  validate:"required,min=1"`
	Genre              *string         `json:"genero,omitempty"`
	StartDate          *string         `json:"fecha_inicio,omitempty"` // RFC 3339
	EndDate            *string         `json:"fecha_fin,omitempty"`
	ArticleIDs         []string        `json:"articulo_ids" validate:"omitempty,dive,uuid"`
}

type PromotionResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"nombre"`
	Type               string          `json:"tipo"`
	DiscountPercentage decimal.Decimal `json:"porcentaje"`
	MaxItems           int             `json:"max_items"`
	Genre              *string         `json:"genero,omitempty"`
	StartDate          *string         `json:"fecha_inicio,omitempty"`
	EndDate            *string         `json:"fecha_fin,omitempty"`
	Active             bool            `json:"activa"`
	ArticleIDs         []string        `json:"articulo_ids"`
}
