package service

import (
	"context"
	"testing"

	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogFixture() (CatalogService, *stubArticleRepo, *stubMovementRepo) {
	articles := newStubArticleRepo()
	movements := &stubMovementRepo{}
	inventory := NewInventoryService(articles, movements)
	return NewCatalogService(articles, inventory), articles, movements
}

func cdRequest() dto.CreateArticleRequest {
	genre := "rock"
	return dto.CreateArticleRequest{
		SKU:           "CD-OKC",
		Title:         "OK Computer",
		Artist:        "Radiohead",
		Kind:          "cd",
		Price:         decimal.RequireFromString("14.99"),
		StockQuantity: 10,
		MinStockLevel: 3,
		Genre:         &genre,
	}
}

func TestCreateArticleSeedsStockThroughLedger(t *testing.T) {
	svc, _, movements := newCatalogFixture()
	actor := uuid.New()

	resp, err := svc.CreateArticle(context.Background(), cdRequest(), actor)
	require.NoError(t, err)

	assert.Equal(t, 10, resp.StockQuantity)
	assert.Equal(t, "USD", resp.Currency)
	require.NotNil(t, resp.Genre)
	assert.Equal(t, "rock", *resp.Genre)

	// The initial load is a Reposición movement from zero.
	require.Len(t, movements.movements, 1)
	mov := movements.movements[0]
	assert.Equal(t, model.MovementEntrada, mov.Type)
	assert.Equal(t, model.RefReposicion, mov.ReferenceType)
	assert.Equal(t, 0, mov.PreviousStock)
	assert.Equal(t, 10, mov.NewStock)
	assert.Equal(t, actor, mov.CreatedBy)
}

func TestCreateArticleDuplicateSKU(t *testing.T) {
	svc, _, _ := newCatalogFixture()

	_, err := svc.CreateArticle(context.Background(), cdRequest(), uuid.New())
	require.NoError(t, err)

	_, err = svc.CreateArticle(context.Background(), cdRequest(), uuid.New())
	var valErr *errs.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "sku", valErr.Field)
}

func TestCreateCdRequiresGenre(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	req := cdRequest()
	req.Genre = nil

	_, err := svc.CreateArticle(context.Background(), req, uuid.New())
	var valErr *errs.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "genero", valErr.Field)
}

func TestCreateVinylDetail(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	rpm, size := 45, 7
	resp, err := svc.CreateArticle(context.Background(), dto.CreateArticleRequest{
		SKU: "VIN-SINGLE", Title: "Single", Artist: "Varios", Kind: "vinilo",
		Price: decimal.RequireFromString("9.99"),
		RPM:   &rpm, SizeInches: &size,
	}, uuid.New())
	require.NoError(t, err)

	require.NotNil(t, resp.RPM)
	assert.Equal(t, 45, *resp.RPM)
	require.NotNil(t, resp.SizeInches)
	assert.Equal(t, 7, *resp.SizeInches)
	assert.Equal(t, 0, resp.StockQuantity)
}

func TestUpdateArticleNeverTouchesStock(t *testing.T) {
	svc, articles, movements := newCatalogFixture()
	resp, err := svc.CreateArticle(context.Background(), cdRequest(), uuid.New())
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	newPrice := decimal.RequireFromString("12.50")
	available := false
	updated, err := svc.UpdateArticle(context.Background(), id, dto.UpdateArticleRequest{
		Price:     &newPrice,
		Available: &available,
	})
	require.NoError(t, err)

	assert.True(t, updated.Price.Equal(newPrice))
	assert.False(t, updated.Available)
	assert.Equal(t, 10, updated.StockQuantity)

	stored, err := articles.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.StockQuantity)
	assert.Len(t, movements.movements, 1) // only the initial load
}

func TestPriceCheck(t *testing.T) {
	svc, articles, _ := newCatalogFixture()
	articles.add(&model.Article{
		SKU: "CAS-1", Title: "Thriller", Artist: "Michael Jackson",
		Kind: model.KindCassette, Price: decimal.RequireFromString("8.50"),
		Currency: "USD", StockQuantity: 0, Available: true,
	})

	resp, err := svc.PriceCheck(context.Background(), "CAS-1")
	require.NoError(t, err)
	assert.Equal(t, "Thriller", resp.Title)
	assert.True(t, resp.Price.Equal(decimal.RequireFromString("8.50")))
	assert.False(t, resp.InStock)
	assert.True(t, resp.Available)

	_, err = svc.PriceCheck(context.Background(), "NO-EXISTE")
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
