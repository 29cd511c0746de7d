package service

import (
	"context"
	"errors"

	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartService aggregates a user's cart: add/merge lines, quantity edits,
// promotion application and subtotal upkeep. Stock is only validated here as
// a courtesy — the authoritative check happens at checkout under row locks.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error)
	AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartResponse, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, req dto.UpdateCartItemRequest) (*dto.CartResponse, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*dto.CartResponse, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ApplyPromotion(ctx context.Context, userID uuid.UUID, req dto.ApplyPromotionRequest) (*dto.CartResponse, error)
}

type cartService struct {
	carts      repository.CartRepository
	articles   repository.ArticleRepository
	promotions PromotionService
}

func NewCartService(carts repository.CartRepository, articles repository.ArticleRepository, promotions PromotionService) CartService {
	return &cartService{carts: carts, articles: articles, promotions: promotions}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.carts.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cartToResponse(cart), nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	articleID, err := uuid.Parse(req.ArticleID)
	if err != nil {
		return nil, &errs.ValidationError{Field: "articulo_id", Reason: "uuid inválido"}
	}
	article, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, errs.NotFound("artículo", req.ArticleID)
	}
	if !article.Available {
		return nil, &errs.ValidationError{Field: "articulo_id", Reason: "el artículo no está disponible"}
	}

	cart, err := s.carts.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.carts.FindItem(ctx, cart.ID, articleID)
	switch {
	case err == nil:
		// Same article added twice merges into one line. The merge drops any
		// applied discount; the promotion must be re-applied at the new
		// quantity.
		newQty := existing.Quantity + req.Quantity
		if err := s.checkStock(article, newQty); err != nil {
			return nil, err
		}
		existing.Quantity = newQty
		existing.DiscountApplied = decimal.Zero
		existing.PromotionID = nil
		if err := s.carts.UpdateItem(ctx, existing); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.checkStock(article, req.Quantity); err != nil {
			return nil, err
		}
		item := &model.CartItem{
			CartID:          cart.ID,
			ArticleID:       articleID,
			Quantity:        req.Quantity,
			UnitPrice:       article.Price,
			DiscountApplied: decimal.Zero,
		}
		if err := s.carts.CreateItem(ctx, item); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.refresh(ctx, userID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, req dto.UpdateCartItemRequest) (*dto.CartResponse, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	article, err := s.articles.FindByID(ctx, item.ArticleID)
	if err != nil {
		return nil, errs.NotFound("artículo", item.ArticleID.String())
	}
	if err := s.checkStock(article, req.Quantity); err != nil {
		return nil, err
	}

	item.Quantity = req.Quantity
	item.DiscountApplied = decimal.Zero
	item.PromotionID = nil
	if err := s.carts.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.refresh(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*dto.CartResponse, error) {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	if err := s.carts.DeleteItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.refresh(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.carts.FindOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return s.carts.ClearTx(s.carts.DB(), cart.ID)
}

func (s *cartService) ApplyPromotion(ctx context.Context, userID uuid.UUID, req dto.ApplyPromotionRequest) (*dto.CartResponse, error) {
	promotionID, err := uuid.Parse(req.PromotionID)
	if err != nil {
		return nil, &errs.ValidationError{Field: "promocion_id", Reason: "uuid inválido"}
	}
	articleIDs := make([]uuid.UUID, 0, len(req.ArticleIDs))
	for _, raw := range req.ArticleIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, &errs.ValidationError{Field: "articulo_ids", Reason: "uuid inválido"}
		}
		articleIDs = append(articleIDs, id)
	}

	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errs.NotFound("carrito", "")
	}
	if len(cart.Items) == 0 {
		return nil, errs.ErrEmptyCart
	}

	result, err := s.promotions.Evaluate(ctx, cart.Items, promotionID, articleIDs)
	if err != nil {
		return nil, err
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		discount, ok := result.PerItem[item.ArticleID]
		if !ok {
			continue
		}
		item.DiscountApplied = discount
		pid := result.PromotionID
		item.PromotionID = &pid
		if err := s.carts.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
	}
	return s.refresh(ctx, userID)
}

// ── helpers ──────────────────────────────────────────────────────────────────

// checkStock rejects quantities the current stock cannot cover. Preorder
// articles sell ahead of stock on purpose.
func (s *cartService) checkStock(article *model.Article, quantity int) error {
	if article.Preorder {
		return nil
	}
	if quantity > article.StockQuantity {
		return &errs.InsufficientStockError{
			ArticleID: article.ID,
			Title:     article.Title,
			Requested: quantity,
			Available: article.StockQuantity,
		}
	}
	return nil
}

func (s *cartService) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	cart, err := s.carts.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.carts.FindItemByID(ctx, itemID)
	if err != nil || item.CartID != cart.ID {
		return nil, errs.NotFound("ítem de carrito", itemID.String())
	}
	return item, nil
}

// refresh recomputes the persisted subtotal from the lines and returns the
// cart as the client sees it.
func (s *cartService) refresh(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	subtotal := decimal.Zero
	for i := range cart.Items {
		subtotal = subtotal.Add(cart.Items[i].LineTotal())
	}
	if !subtotal.Equal(cart.Subtotal) {
		if err := s.carts.UpdateSubtotal(ctx, cart.ID, subtotal); err != nil {
			return nil, err
		}
		cart.Subtotal = subtotal
	}
	return cartToResponse(cart), nil
}

func cartToResponse(cart *model.Cart) *dto.CartResponse {
	resp := &dto.CartResponse{
		ID:       cart.ID.String(),
		Items:    make([]dto.CartItemResponse, 0, len(cart.Items)),
		Subtotal: cart.Subtotal,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		line := dto.CartItemResponse{
			ID:              item.ID.String(),
			ArticleID:       item.ArticleID.String(),
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountApplied: item.DiscountApplied,
			LineTotal:       item.LineTotal(),
		}
		if item.Article != nil {
			line.Title = item.Article.Title
		}
		if item.PromotionID != nil {
			pid := item.PromotionID.String()
			line.PromotionID = &pid
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
