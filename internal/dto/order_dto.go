package dto

import "github.com/shopspring/decimal"

// CreateOrderRequest converts the caller's cart into an order. The optional
// promotion is validated and applied to the cart before checkout.
type CreateOrderRequest struct {
	ShippingAddress string `json:"direccion_envio"       validate:"required"`
	BillingAddress  string `json:"direccion_facturacion" validate:"required"`
	PaymentMethod   string `json:"metodo_pago"           validate:"required,oneof=tarjeta transferencia efectivo_contra_entrega"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"estado" validate:"required,oneof=Procesando Enviado Entregado Cancelado"`
}

type OrderItemResponse struct {
	ArticleID      string          `json:"articulo_id"`
	Title          string          `json:"titulo"`
	Quantity       int             `json:"cantidad"`
	UnitPrice      decimal.Decimal `json:"precio_unitario"`
	DiscountAmount decimal.Decimal `json:"descuento"`
	TotalPrice     decimal.Decimal `json:"total"`
	PromotionName  *string         `json:"promocion,omitempty"`
}

type OrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"numero_orden"`
	Status          string              `json:"estado"`
	Currency        string              `json:"moneda"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	TaxAmount       decimal.Decimal     `json:"impuestos"`
	DiscountTotal   decimal.Decimal     `json:"descuento_total"`
	ShippingCost    decimal.Decimal     `json:"costo_envio"`
	Total           decimal.Decimal     `json:"total"`
	ShippingAddress string              `json:"direccion_envio"`
	BillingAddress  string              `json:"direccion_facturacion"`
	PaymentMethod   string              `json:"metodo_pago"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       string              `json:"created_at"`
	ShippedAt       *string             `json:"shipped_at,omitempty"`
	DeliveredAt     *string             `json:"delivered_at,omitempty"`
}

// OrderFilter is bound from query string of GET /v1/ordenes.
type OrderFilter struct {
	Status string `form:"estado"` // Pendiente | Procesando | Enviado | Entregado | Cancelado | all
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
