package dto

// AdjustStockRequest applies a manual Entrada/Salida through the ledger.
type AdjustStockRequest struct {
	Type     string `json:"tipo"     validate:"required,oneof=Entrada Salida"`
	Quantity int    `json:"cantidad" validate:"required,min=1"`
	Reason   string `json:"motivo"   validate:"required"`
}

type StockMovementResponse struct {
	ID            string  `json:"id"`
	ArticleID     string  `json:"articulo_id"`
	Type          string  `json:"tipo"`
	Quantity      int     `json:"cantidad"`
	PreviousStock int     `json:"stock_anterior"`
	NewStock      int     `json:"stock_nuevo"`
	ReferenceType string  `json:"referencia_tipo"`
	ReferenceID   *string `json:"referencia_id,omitempty"`
	CreatedBy     string  `json:"creado_por"`
	CreatedAt     string  `json:"created_at"`
}

type MovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

// StockAlertResponse flags articles at or below their minimum level.
type StockAlertResponse struct {
	ArticleID     string `json:"articulo_id"`
	Title         string `json:"titulo"`
	StockQuantity int    `json:"stock"`
	MinStockLevel int    `json:"stock_minimo"`
}
