package service

import (
	"context"
	"sort"
	"time"

	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionResult is the outcome of evaluating a CD bundle promotion against
// a cart. PerItem maps article id → discount for that cart line. Evaluation
// has no side effects — the cart aggregator persists the amounts.
type PromotionResult struct {
	PromotionID   uuid.UUID
	PromotionName string
	PerItem       map[uuid.UUID]decimal.Decimal
	TotalDiscount decimal.Decimal
}

type PromotionService interface {
	// Evaluate checks eligibility and computes per-line discounts for the
	// requested articles. Every requested article must be a CD, a member of
	// the promotion's eligible set and present in the cart; otherwise the
	// whole evaluation fails.
	Evaluate(ctx context.Context, cartItems []model.CartItem, promotionID uuid.UUID, articleIDs []uuid.UUID) (*PromotionResult, error)

	Create(ctx context.Context, req dto.CreatePromotionRequest) (*dto.PromotionResponse, error)
	List(ctx context.Context, onlyActive bool) ([]dto.PromotionResponse, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type promotionService struct {
	promos   repository.PromotionRepository
	articles repository.ArticleRepository
	now      func() time.Time
}

func NewPromotionService(promos repository.PromotionRepository, articles repository.ArticleRepository) PromotionService {
	return &promotionService{promos: promos, articles: articles, now: time.Now}
}

func (s *promotionService) Evaluate(ctx context.Context, cartItems []model.CartItem, promotionID uuid.UUID, articleIDs []uuid.UUID) (*PromotionResult, error) {
	promo, err := s.promos.FindByID(ctx, promotionID)
	if err != nil {
		return nil, errs.NotFound("promoción", promotionID.String())
	}
	if !promo.ActiveAt(s.now()) {
		return nil, &errs.PromotionNotApplicableError{
			PromotionID: promo.ID,
			Reason:      "la promoción no está vigente",
		}
	}

	eligible := make(map[uuid.UUID]bool, len(promo.Articles))
	for _, a := range promo.Articles {
		eligible[a.ID] = true
	}

	lines := make(map[uuid.UUID]*model.CartItem, len(cartItems))
	for i := range cartItems {
		lines[cartItems[i].ArticleID] = &cartItems[i]
	}

	// Validate every requested article before discounting any.
	for _, id := range articleIDs {
		if _, ok := lines[id]; !ok {
			return nil, &errs.PromotionNotApplicableError{
				PromotionID: promo.ID, ArticleID: id,
				Reason: "el artículo no está en el carrito",
			}
		}
		if !eligible[id] {
			return nil, &errs.PromotionNotApplicableError{
				PromotionID: promo.ID, ArticleID: id,
				Reason: "el artículo no pertenece a la promoción",
			}
		}
		article, err := s.articles.FindByID(ctx, id)
		if err != nil {
			return nil, errs.NotFound("artículo", id.String())
		}
		if !article.IsCd() {
			return nil, &errs.PromotionNotApplicableError{
				PromotionID: promo.ID, ArticleID: id,
				Reason: "solo los CDs participan en promociones de paquete",
			}
		}
		if promo.Type == model.PromoGenre && promo.Genre != nil {
			if article.Cd == nil || article.Cd.Genre != *promo.Genre {
				return nil, &errs.PromotionNotApplicableError{
					PromotionID: promo.ID, ArticleID: id,
					Reason: "el género del CD no coincide con la promoción",
				}
			}
		}
	}

	// Deterministic tie-break: ascending article id; only the first
	// MaxItems lines get the discount, the rest pay full price.
	sorted := make([]uuid.UUID, len(articleIDs))
	copy(sorted, articleIDs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})
	if promo.MaxItems > 0 && len(sorted) > promo.MaxItems {
		sorted = sorted[:promo.MaxItems]
	}

	hundred := decimal.NewFromInt(100)
	result := &PromotionResult{
		PromotionID:   promo.ID,
		PromotionName: promo.Name,
		PerItem:       make(map[uuid.UUID]decimal.Decimal, len(sorted)),
		TotalDiscount: decimal.Zero,
	}
	for _, id := range sorted {
		line := lines[id]
		perUnit := line.UnitPrice.Mul(promo.DiscountPercentage).Div(hundred)
		// 2 decimals, half-up — currency precision
		lineDiscount := perUnit.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		result.PerItem[id] = lineDiscount
		result.TotalDiscount = result.TotalDiscount.Add(lineDiscount)
	}
	return result, nil
}

// ── Admin CRUD ───────────────────────────────────────────────────────────────

func (s *promotionService) Create(ctx context.Context, req dto.CreatePromotionRequest) (*dto.PromotionResponse, error) {
	promo := &model.CdPromotion{
		Name:               req.Name,
		Type:               req.Type,
		DiscountPercentage: req.DiscountPercentage,
		MaxItems:           req.MaxItems,
		Genre:              req.Genre,
		Active:             true,
	}
	if req.StartDate != nil {
		t, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			return nil, &errs.ValidationError{Field: "fecha_inicio", Reason: "formato RFC 3339 requerido"}
		}
		promo.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			return nil, &errs.ValidationError{Field: "fecha_fin", Reason: "formato RFC 3339 requerido"}
		}
		promo.EndDate = &t
	}

	// Only CD articles may join the eligible set.
	var members []model.Article
	for _, idStr := range req.ArticleIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, &errs.ValidationError{Field: "articulo_ids", Reason: "uuid inválido"}
		}
		article, err := s.articles.FindByID(ctx, id)
		if err != nil {
			return nil, errs.NotFound("artículo", idStr)
		}
		if !article.IsCd() {
			return nil, &errs.PromotionNotApplicableError{
				ArticleID: id,
				Reason:    "solo artículos de tipo cd pueden entrar en la promoción",
			}
		}
		members = append(members, *article)
	}

	if err := s.promos.Create(ctx, promo); err != nil {
		return nil, err
	}
	if len(members) > 0 {
		if err := s.promos.AttachArticles(ctx, promo, members); err != nil {
			return nil, err
		}
		promo.Articles = members
	}
	return promotionToResponse(promo), nil
}

func (s *promotionService) List(ctx context.Context, onlyActive bool) ([]dto.PromotionResponse, error) {
	promos, err := s.promos.List(ctx, onlyActive)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PromotionResponse, 0, len(promos))
	for i := range promos {
		out = append(out, *promotionToResponse(&promos[i]))
	}
	return out, nil
}

func (s *promotionService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := s.promos.FindByID(ctx, id); err != nil {
		return errs.NotFound("promoción", id.String())
	}
	return s.promos.SetActive(ctx, id, active)
}

func promotionToResponse(p *model.CdPromotion) *dto.PromotionResponse {
	resp := &dto.PromotionResponse{
		ID:                 p.ID.String(),
		Name:               p.Name,
		Type:               p.Type,
		DiscountPercentage: p.DiscountPercentage,
		MaxItems:           p.MaxItems,
		Genre:              p.Genre,
		Active:             p.Active,
		ArticleIDs:         make([]string, 0, len(p.Articles)),
	}
	if p.StartDate != nil {
		s := p.StartDate.Format(time.RFC3339)
		resp.StartDate = &s
	}
	if p.EndDate != nil {
		s := p.EndDate.Format(time.RFC3339)
		resp.EndDate = &s
	}
	for _, a := range p.Articles {
		resp.ArticleIDs = append(resp.ArticleIDs, a.ID.String())
	}
	return resp
}
