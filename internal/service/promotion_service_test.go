package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"melodia/internal/errs"
	"melodia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type promoFixture struct {
	svc      *promotionService
	articles *stubArticleRepo
	promos   *stubPromoRepo
}

func newPromoFixture(now time.Time) *promoFixture {
	articles := newStubArticleRepo()
	promos := newStubPromoRepo()
	svc := NewPromotionService(promos, articles).(*promotionService)
	svc.now = func() time.Time { return now }
	return &promoFixture{svc: svc, articles: articles, promos: promos}
}

func (f *promoFixture) addCd(sku, genre string, price string) *model.Article {
	return f.articles.add(&model.Article{
		SKU:   sku,
		Title: sku,
		Kind:  model.KindCd,
		Price: decimal.RequireFromString(price),
		Cd:    &model.CdDetail{Genre: genre},
	})
}

func (f *promoFixture) addPromo(p *model.CdPromotion) *model.CdPromotion {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.promos.promos[p.ID] = p
	return p
}

func cartLine(articleID uuid.UUID, qty int, unitPrice string) model.CartItem {
	return model.CartItem{
		ID:        uuid.New(),
		ArticleID: articleID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(unitPrice),
	}
}

func TestEvaluateAppliesPercentagePerLine(t *testing.T) {
	f := newPromoFixture(time.Now())
	cd := f.addCd("CD-1", "rock", "10.00")
	promo := f.addPromo(&model.CdPromotion{
		Name:               "2x CDs rock",
		Type:               model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           5,
		Active:             true,
		Articles:           []model.Article{*cd},
	})

	cart := []model.CartItem{cartLine(cd.ID, 3, "10.00")}
	res, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{cd.ID})
	require.NoError(t, err)

	// 10% of 10.00, times 3 units
	assert.True(t, res.PerItem[cd.ID].Equal(decimal.RequireFromString("3.00")),
		"got %s", res.PerItem[cd.ID])
	assert.True(t, res.TotalDiscount.Equal(decimal.RequireFromString("3.00")))
	assert.Equal(t, promo.Name, res.PromotionName)
}

func TestEvaluateRoundsDiscountToCents(t *testing.T) {
	f := newPromoFixture(time.Now())
	cd := f.addCd("CD-1", "jazz", "9.99")
	promo := f.addPromo(&model.CdPromotion{
		Name: "Jazz", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("15"),
		MaxItems:           1, Active: true,
		Articles: []model.Article{*cd},
	})

	cart := []model.CartItem{cartLine(cd.ID, 1, "9.99")}
	res, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{cd.ID})
	require.NoError(t, err)

	// 9.99 * 0.15 = 1.4985 → 1.50
	assert.True(t, res.TotalDiscount.Equal(decimal.RequireFromString("1.50")),
		"got %s", res.TotalDiscount)
}

func TestEvaluateUnknownPromotion(t *testing.T) {
	f := newPromoFixture(time.Now())
	_, err := f.svc.Evaluate(context.Background(), nil, uuid.New(), nil)
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestEvaluateOutsideWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newPromoFixture(now)
	cd := f.addCd("CD-1", "rock", "10.00")

	past := now.Add(-48 * time.Hour)
	end := now.Add(-24 * time.Hour)
	expired := f.addPromo(&model.CdPromotion{
		Name: "Expirada", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           1, Active: true,
		StartDate: &past, EndDate: &end,
		Articles: []model.Article{*cd},
	})

	cart := []model.CartItem{cartLine(cd.ID, 1, "10.00")}
	_, err := f.svc.Evaluate(context.Background(), cart, expired.ID, []uuid.UUID{cd.ID})

	var notApplicable *errs.PromotionNotApplicableError
	require.ErrorAs(t, err, &notApplicable)
	assert.Equal(t, "la promoción no está vigente", notApplicable.Reason)
}

func TestEvaluateEndDateIsExclusive(t *testing.T) {
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f := newPromoFixture(end)
	cd := f.addCd("CD-1", "rock", "10.00")
	start := end.Add(-24 * time.Hour)
	promo := f.addPromo(&model.CdPromotion{
		Name: "Bordes", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           1, Active: true,
		StartDate: &start, EndDate: &end,
		Articles: []model.Article{*cd},
	})

	cart := []model.CartItem{cartLine(cd.ID, 1, "10.00")}
	_, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{cd.ID})

	var notApplicable *errs.PromotionNotApplicableError
	assert.ErrorAs(t, err, &notApplicable)
}

func TestEvaluateInactiveFlag(t *testing.T) {
	f := newPromoFixture(time.Now())
	cd := f.addCd("CD-1", "rock", "10.00")
	promo := f.addPromo(&model.CdPromotion{
		Name: "Apagada", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           1, Active: false,
		Articles: []model.Article{*cd},
	})

	cart := []model.CartItem{cartLine(cd.ID, 1, "10.00")}
	_, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{cd.ID})

	var notApplicable *errs.PromotionNotApplicableError
	assert.ErrorAs(t, err, &notApplicable)
}

func TestEvaluateRejectsArticleNotInCart(t *testing.T) {
	f := newPromoFixture(time.Now())
	cd := f.addCd("CD-1", "rock", "10.00")
	promo := f.addPromo(&model.CdPromotion{
		Name: "Rock", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           2, Active: true,
		Articles: []model.Article{*cd},
	})

	_, err := f.svc.Evaluate(context.Background(), nil, promo.ID, []uuid.UUID{cd.ID})

	var notApplicable *errs.PromotionNotApplicableError
	require.ErrorAs(t, err, &notApplicable)
	assert.Equal(t, "el artículo no está en el carrito", notApplicable.Reason)
}

func TestEvaluateRejectsNonMember(t *testing.T) {
	f := newPromoFixture(time.Now())
	member := f.addCd("CD-1", "rock", "10.00")
	outsider := f.addCd("CD-2", "rock", "12.00")
	promo := f.addPromo(&model.CdPromotion{
		Name: "Rock", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           2, Active: true,
		Articles: []model.Article{*member},
	})

	cart := []model.CartItem{
		cartLine(member.ID, 1, "10.00"),
		cartLine(outsider.ID, 1, "12.00"),
	}
	_, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{member.ID, outsider.ID})

	var notApplicable *errs.PromotionNotApplicableError
	require.ErrorAs(t, err, &notApplicable)
	assert.Equal(t, outsider.ID, notApplicable.ArticleID)
}

func TestEvaluateRejectsNonCd(t *testing.T) {
	f := newPromoFixture(time.Now())
	vinyl := f.articles.add(&model.Article{
		SKU: "VIN-1", Title: "Kind of Blue", Kind: model.KindVinyl,
		Price: decimal.RequireFromString("25.00"),
	})
	promo := f.addPromo(&model.CdPromotion{
		Name: "Paquete", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           2, Active: true,
		Articles: []model.Article{*vinyl},
	})

	cart := []model.CartItem{cartLine(vinyl.ID, 1, "25.00")}
	_, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{vinyl.ID})

	var notApplicable *errs.PromotionNotApplicableError
	require.ErrorAs(t, err, &notApplicable)
	assert.Equal(t, "solo los CDs participan en promociones de paquete", notApplicable.Reason)
}

func TestEvaluateGenreMismatch(t *testing.T) {
	f := newPromoFixture(time.Now())
	jazz := f.addCd("CD-JAZZ", "jazz", "10.00")
	genre := "rock"
	promo := f.addPromo(&model.CdPromotion{
		Name: "Solo rock", Type: model.PromoGenre, Genre: &genre,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           2, Active: true,
		Articles: []model.Article{*jazz},
	})

	cart := []model.CartItem{cartLine(jazz.ID, 1, "10.00")}
	_, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{jazz.ID})

	var notApplicable *errs.PromotionNotApplicableError
	require.ErrorAs(t, err, &notApplicable)
	assert.Equal(t, "el género del CD no coincide con la promoción", notApplicable.Reason)
}

func TestEvaluateAllOrNothing(t *testing.T) {
	// One bad article in the request means no line gets discounted.
	f := newPromoFixture(time.Now())
	good := f.addCd("CD-1", "rock", "10.00")
	bad := f.addCd("CD-2", "rock", "10.00")
	promo := f.addPromo(&model.CdPromotion{
		Name: "Rock", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           5, Active: true,
		Articles: []model.Article{*good}, // bad is not a member
	})

	cart := []model.CartItem{
		cartLine(good.ID, 1, "10.00"),
		cartLine(bad.ID, 1, "10.00"),
	}
	res, err := f.svc.Evaluate(context.Background(), cart, promo.ID, []uuid.UUID{good.ID, bad.ID})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestEvaluateCapsAtMaxItemsByAscendingID(t *testing.T) {
	f := newPromoFixture(time.Now())

	cds := make([]*model.Article, 3)
	ids := make([]uuid.UUID, 3)
	members := make([]model.Article, 3)
	for i := range cds {
		cds[i] = f.addCd("CD-"+string(rune('A'+i)), "rock", "10.00")
		ids[i] = cds[i].ID
		members[i] = *cds[i]
	}
	promo := f.addPromo(&model.CdPromotion{
		Name: "Máximo dos", Type: model.PromoRandom,
		DiscountPercentage: decimal.RequireFromString("10"),
		MaxItems:           2, Active: true,
		Articles: members,
	})

	cart := make([]model.CartItem, 3)
	for i, id := range ids {
		cart[i] = cartLine(id, 1, "10.00")
	}

	res, err := f.svc.Evaluate(context.Background(), cart, promo.ID, ids)
	require.NoError(t, err)
	require.Len(t, res.PerItem, 2)

	// The two lowest ids (string order) win the discount.
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	assert.Contains(t, res.PerItem, sorted[0])
	assert.Contains(t, res.PerItem, sorted[1])
	assert.NotContains(t, res.PerItem, sorted[2])
	assert.True(t, res.TotalDiscount.Equal(decimal.RequireFromString("2.00")))
}
