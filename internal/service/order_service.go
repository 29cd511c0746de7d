package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"melodia/internal/config"
	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Notifier pushes user-facing emails onto the async queue. Implemented by the
// worker dispatcher; services tolerate a nil notifier (unit tests, queue down).
type Notifier interface {
	OrderCreated(ctx context.Context, orderID uuid.UUID) error
	OrderStatusChanged(ctx context.Context, orderID uuid.UUID, status string) error
}

// orderNumberAttempts bounds the retry loop on order-number collisions.
const orderNumberAttempts = 3

// OrderService converts carts into orders and drives the order lifecycle.
// Checkout is a single transaction: every line reserves stock under a row
// lock, snapshots are taken, totals derived, and the cart is destroyed —
// either everything commits or nothing does.
type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*dto.OrderResponse, error)
	GetByNumber(ctx context.Context, userID uuid.UUID, isAdmin bool, number string) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	ListAll(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)

	// UpdateStatus applies an admin transition. Cancelling restores stock via
	// compensating Entrada movements in the same transaction.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string, actorID uuid.UUID) (*dto.OrderResponse, error)

	// CancelOrder is the customer-facing cancellation, limited to orders the
	// user owns that have not shipped.
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error)
}

type orderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	promos    repository.PromotionRepository
	inventory InventoryService
	notifier  Notifier
	cfg       *config.Config
	now       func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	promos repository.PromotionRepository,
	inventory InventoryService,
	notifier Notifier,
	cfg *config.Config,
) OrderService {
	return &orderService{
		orders:    orders,
		carts:     carts,
		promos:    promos,
		inventory: inventory,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ── checkout ─────────────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, errs.ErrEmptyCart
	}

	promoNames, err := s.promotionNames(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order = s.assemble(userID, cart, promoNames, req)
		err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
			for _, item := range cart.Items {
				if _, err := s.inventory.ReserveForOrderTx(tx, item.ArticleID, item.Quantity, order.ID, userID); err != nil {
					return err
				}
			}
			if err := s.orders.CreateTx(tx, order); err != nil {
				return err
			}
			return s.carts.ClearTx(tx, cart.ID)
		})
		if err == nil {
			break
		}
		// Order numbers are second-resolution plus a random suffix; on the
		// rare collision we regenerate and retry the whole transaction.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn().Str("numero_orden", order.OrderNumber).Msg("colisión de número de orden, reintentando")
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if nerr := s.notifier.OrderCreated(ctx, order.ID); nerr != nil {
			log.Error().Err(nerr).Str("orden_id", order.ID.String()).
				Msg("no se pudo encolar el correo de confirmación")
		}
	}
	return orderToResponse(order), nil
}

// assemble builds the in-memory order from the cart: line snapshots, totals
// and a fresh order number. No persistence happens here.
func (s *orderService) assemble(userID uuid.UUID, cart *model.Cart, promoNames map[uuid.UUID]string, req dto.CreateOrderRequest) *model.Order {
	order := &model.Order{
		ID:              uuid.New(),
		OrderNumber:     s.newOrderNumber(),
		UserID:          userID,
		Status:          model.StatusPendiente,
		Currency:        s.cfg.Currency,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
	}

	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	for i := range cart.Items {
		line := &cart.Items[i]
		lineTotal := line.LineTotal()
		subtotal = subtotal.Add(lineTotal)
		discountTotal = discountTotal.Add(line.DiscountApplied)

		item := model.OrderItem{
			OrderID:        order.ID,
			ArticleID:      line.ArticleID,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountApplied,
			TotalPrice:     lineTotal,
		}
		if line.Article != nil {
			item.Title = line.Article.Title
		}
		if line.PromotionID != nil {
			if name, ok := promoNames[*line.PromotionID]; ok {
				item.PromotionName = &name
			}
		}
		order.Items = append(order.Items, item)
	}

	order.Subtotal = subtotal
	order.DiscountTotal = discountTotal
	order.TaxAmount = subtotal.Mul(s.cfg.TaxRate()).Round(2)
	order.ShippingCost = s.cfg.ShippingFlat()
	if subtotal.GreaterThanOrEqual(s.cfg.FreeShippingFrom()) {
		order.ShippingCost = decimal.Zero
	}
	order.Total = subtotal.Add(order.TaxAmount).Add(order.ShippingCost)
	return order
}

func (s *orderService) newOrderNumber() string {
	return fmt.Sprintf("%s-%s-%04d",
		s.cfg.OrderNumberPrefix, s.now().Format("20060102150405"), rand.Intn(10000))
}

func (s *orderService) promotionNames(ctx context.Context, items []model.CartItem) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string)
	for i := range items {
		pid := items[i].PromotionID
		if pid == nil {
			continue
		}
		if _, ok := names[*pid]; ok {
			continue
		}
		promo, err := s.promos.FindByID(ctx, *pid)
		if err != nil {
			return nil, errs.NotFound("promoción", pid.String())
		}
		names[*pid] = promo.Name
	}
	return names, nil
}

// ── queries ──────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, userID uuid.UUID, isAdmin bool, orderID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, errs.NotFound("orden", orderID.String())
	}
	if !isAdmin && order.UserID != userID {
		return nil, errs.NotFound("orden", orderID.String())
	}
	return orderToResponse(order), nil
}

func (s *orderService) GetByNumber(ctx context.Context, userID uuid.UUID, isAdmin bool, number string) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return nil, errs.NotFound("orden", number)
	}
	if !isAdmin && order.UserID != userID {
		return nil, errs.NotFound("orden", number)
	}
	return orderToResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	orders, total, err := s.orders.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return orderListResponse(orders, total, filter), nil
}

func (s *orderService) ListAll(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return orderListResponse(orders, total, filter), nil
}

// ── lifecycle ────────────────────────────────────────────────────────────────

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus string, actorID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, errs.NotFound("orden", orderID.String())
	}
	if !model.CanTransition(order.Status, newStatus) {
		return nil, &errs.InvalidTransitionError{From: order.Status, To: newStatus}
	}

	now := s.now()
	fields := map[string]interface{}{}
	switch newStatus {
	case model.StatusEnviado:
		fields["shipped_at"] = now
		order.ShippedAt = &now
	case model.StatusEntregado:
		fields["delivered_at"] = now
		order.DeliveredAt = &now
	}

	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if newStatus == model.StatusCancelado {
			if err := s.restoreStockTx(tx, order, actorID); err != nil {
				return err
			}
		}
		return s.orders.UpdateStatusTx(tx, orderID, newStatus, fields)
	})
	if err != nil {
		return nil, err
	}
	order.Status = newStatus

	if s.notifier != nil {
		if nerr := s.notifier.OrderStatusChanged(ctx, orderID, newStatus); nerr != nil {
			log.Error().Err(nerr).Str("orden_id", orderID.String()).
				Msg("no se pudo encolar el correo de cambio de estado")
		}
	}
	return orderToResponse(order), nil
}

func (s *orderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil || order.UserID != userID {
		return nil, errs.NotFound("orden", orderID.String())
	}
	if !model.CanTransition(order.Status, model.StatusCancelado) {
		return nil, &errs.InvalidTransitionError{From: order.Status, To: model.StatusCancelado}
	}
	return s.UpdateStatus(ctx, orderID, model.StatusCancelado, userID)
}

// restoreStockTx reverses the checkout reservation with one Entrada movement
// per line, keeping the ledger symmetric.
func (s *orderService) restoreStockTx(tx *gorm.DB, order *model.Order, actorID uuid.UUID) error {
	for _, item := range order.Items {
		orderID := order.ID
		_, err := s.inventory.ApplyMovementTx(tx, MovementInput{
			ArticleID:     item.ArticleID,
			Type:          model.MovementEntrada,
			Quantity:      item.Quantity,
			ReferenceType: model.RefCancelacion,
			ReferenceID:   &orderID,
			ActorID:       actorID,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ── mapping ──────────────────────────────────────────────────────────────────

func orderToResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:              o.ID.String(),
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		Currency:        o.Currency,
		Subtotal:        o.Subtotal,
		TaxAmount:       o.TaxAmount,
		DiscountTotal:   o.DiscountTotal,
		ShippingCost:    o.ShippingCost,
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		Items:           make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	if o.ShippedAt != nil {
		t := o.ShippedAt.Format(time.RFC3339)
		resp.ShippedAt = &t
	}
	if o.DeliveredAt != nil {
		t := o.DeliveredAt.Format(time.RFC3339)
		resp.DeliveredAt = &t
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ArticleID:      item.ArticleID.String(),
			Title:          item.Title,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			TotalPrice:     item.TotalPrice,
			PromotionName:  item.PromotionName,
		})
	}
	return resp
}

func orderListResponse(orders []model.Order, total int64, filter dto.OrderFilter) *dto.OrderListResponse {
	out := &dto.OrderListResponse{
		Data:  make([]dto.OrderResponse, 0, len(orders)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range orders {
		out.Data = append(out.Data, *orderToResponse(&orders[i]))
	}
	return out
}
