package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ArticleFilter is bound from query string of GET /v1/articulos.
type ArticleFilter struct {
	Kind      string `form:"tipo"`   // vinilo | cassette | cd
	Genre     string `form:"genero"` // CD genre filter
	Search    string `form:"q"`      // title/artist substring
	Available string `form:"disponible,default=true"` // true | false | all
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ArticleResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Title         string          `json:"titulo"`
	Artist        string          `json:"artista"`
	Kind          string          `json:"tipo"`
	Price         decimal.Decimal `json:"precio"`
	Currency      string          `json:"moneda"`
	StockQuantity int             `json:"stock"`
	MinStockLevel int             `json:"stock_minimo"`
	Available     bool            `json:"disponible"`
	Preorder      bool            `json:"preventa"`
	Genre         *string         `json:"genero,omitempty"`
	RPM           *int            `json:"rpm,omitempty"`
	SizeInches    *int            `json:"pulgadas,omitempty"`
	TapeType      *string         `json:"tipo_cinta,omitempty"`
	DiscCount     *int            `json:"discos,omitempty"`
}

type ArticleListResponse struct {
	Data  []ArticleResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Admin write DTOs ───────────────────────────────────────────────────────

type CreateArticleRequest struct {
	SKU           string          `json:"sku"     validate:"required"`
	Title         string          `json:"titulo"  validate:"required"`
	Artist        string          `json:"artista" validate:"required"`
	Kind          string          `json:"tipo"    validate:"required,oneof=vinilo cassette cd"`
	Price         decimal.Decimal `json:"precio"  validate:"required,gt=0"`
	Currency      string          `json:"moneda"  validate:"omitempty,len=3"`
	StockQuantity int             `json:"stock"   validate:"min=0"`
	MinStockLevel int             `json:"stock_minimo" validate:"min=0"`
	MaxStockLevel int             `json:"stock_maximo" validate:"min=0"`
	Preorder      bool            `json:"preventa"`

	// Subtype details — exactly the one matching Kind is honoured
	Genre      *string `json:"genero,omitempty"`
	DiscCount  *int    `json:"discos,omitempty"`
	RPM        *int    `json:"rpm,omitempty"        validate:"omitempty,oneof=33 45 78"`
	SizeInches *int    `json:"pulgadas,omitempty"   validate:"omitempty,oneof=7 10 12"`
	TapeType   *string `json:"tipo_cinta,omitempty" validate:"omitempty,oneof=normal chrome metal"`
}

type UpdateArticleRequest struct {
	Title         *string          `json:"titulo,omitempty"`
	Artist        *string          `json:"artista,omitempty"`
	Price         *decimal.Decimal `json:"precio,omitempty"`
	MinStockLevel *int             `json:"stock_minimo,omitempty" validate:"omitempty,min=0"`
	MaxStockLevel *int             `json:"stock_maximo,omitempty" validate:"omitempty,min=0"`
	Available     *bool            `json:"disponible,omitempty"`
	Preorder      *bool            `json:"preventa,omitempty"`
}

// PriceCheckResponse is served by the public, cache-backed price endpoint.
type PriceCheckResponse struct {
	Title     string          `json:"titulo"`
	Artist    string          `json:"artista"`
	Kind      string          `json:"tipo"`
	Price     decimal.Decimal `json:"precio"`
	Currency  string          `json:"moneda"`
	InStock   bool            `json:"en_stock"`
	Available bool            `json:"disponible"`
}
