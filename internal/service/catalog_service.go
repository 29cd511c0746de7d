package service

import (
	"context"
	"errors"

	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService manages the article catalog. Stock is read-only here —
// writes go through the inventory ledger so every unit is accounted for.
type CatalogService interface {
	CreateArticle(ctx context.Context, req dto.CreateArticleRequest, actorID uuid.UUID) (*dto.ArticleResponse, error)
	GetArticle(ctx context.Context, id uuid.UUID) (*dto.ArticleResponse, error)
	GetBySKU(ctx context.Context, sku string) (*dto.ArticleResponse, error)
	ListArticles(ctx context.Context, filter dto.ArticleFilter) (*dto.ArticleListResponse, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, req dto.UpdateArticleRequest) (*dto.ArticleResponse, error)
	PriceCheck(ctx context.Context, sku string) (*dto.PriceCheckResponse, error)
}

type catalogService struct {
	articles  repository.ArticleRepository
	inventory InventoryService
}

func NewCatalogService(articles repository.ArticleRepository, inventory InventoryService) CatalogService {
	return &catalogService{articles: articles, inventory: inventory}
}

func (s *catalogService) CreateArticle(ctx context.Context, req dto.CreateArticleRequest, actorID uuid.UUID) (*dto.ArticleResponse, error) {
	if _, err := s.articles.FindBySKU(ctx, req.SKU); err == nil {
		return nil, &errs.ValidationError{Field: "sku", Reason: "ya existe"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	article := &model.Article{
		SKU:           req.SKU,
		Title:         req.Title,
		Artist:        req.Artist,
		Kind:          model.ArticleKind(req.Kind),
		Price:         req.Price,
		Currency:      req.Currency,
		MinStockLevel: req.MinStockLevel,
		MaxStockLevel: req.MaxStockLevel,
		Available:     true,
		Preorder:      req.Preorder,
	}
	if article.Currency == "" {
		article.Currency = "USD"
	}

	switch article.Kind {
	case model.KindVinyl:
		detail := &model.VinylDetail{}
		if req.RPM != nil {
			detail.RPM = *req.RPM
		}
		if req.SizeInches != nil {
			detail.SizeInches = *req.SizeInches
		}
		article.Vinyl = detail
	case model.KindCassette:
		detail := &model.CassetteDetail{}
		if req.TapeType != nil {
			detail.TapeType = *req.TapeType
			detail.Chrome = *req.TapeType == "chrome"
		}
		article.Cassette = detail
	case model.KindCd:
		if req.Genre == nil || *req.Genre == "" {
			return nil, &errs.ValidationError{Field: "genero", Reason: "requerido para artículos de tipo cd"}
		}
		detail := &model.CdDetail{Genre: *req.Genre, DiscCount: 1}
		if req.DiscCount != nil {
			detail.DiscCount = *req.DiscCount
		}
		article.Cd = detail
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}

	// Initial stock enters through the ledger like any other replenishment,
	// so the movement history starts at zero.
	if req.StockQuantity > 0 {
		_, err := s.inventory.ApplyMovement(ctx, MovementInput{
			ArticleID:     article.ID,
			Type:          model.MovementEntrada,
			Quantity:      req.StockQuantity,
			ReferenceType: model.RefReposicion,
			ActorID:       actorID,
		})
		if err != nil {
			return nil, err
		}
		article.StockQuantity = req.StockQuantity
	}
	return articleToResponse(article), nil
}

func (s *catalogService) GetArticle(ctx context.Context, id uuid.UUID) (*dto.ArticleResponse, error) {
	article, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("artículo", id.String())
	}
	return articleToResponse(article), nil
}

func (s *catalogService) GetBySKU(ctx context.Context, sku string) (*dto.ArticleResponse, error) {
	article, err := s.articles.FindBySKU(ctx, sku)
	if err != nil {
		return nil, errs.NotFound("artículo", sku)
	}
	return articleToResponse(article), nil
}

func (s *catalogService) ListArticles(ctx context.Context, filter dto.ArticleFilter) (*dto.ArticleListResponse, error) {
	articles, total, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.ArticleListResponse{
		Data:  make([]dto.ArticleResponse, 0, len(articles)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range articles {
		out.Data = append(out.Data, *articleToResponse(&articles[i]))
	}
	return out, nil
}

func (s *catalogService) UpdateArticle(ctx context.Context, id uuid.UUID, req dto.UpdateArticleRequest) (*dto.ArticleResponse, error) {
	article, err := s.articles.FindByID(ctx, id)
	if err != nil {
		return nil, errs.NotFound("artículo", id.String())
	}
	if req.Title != nil {
		article.Title = *req.Title
	}
	if req.Artist != nil {
		article.Artist = *req.Artist
	}
	if req.Price != nil {
		article.Price = *req.Price
	}
	if req.MinStockLevel != nil {
		article.MinStockLevel = *req.MinStockLevel
	}
	if req.MaxStockLevel != nil {
		article.MaxStockLevel = *req.MaxStockLevel
	}
	if req.Available != nil {
		article.Available = *req.Available
	}
	if req.Preorder != nil {
		article.Preorder = *req.Preorder
	}
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}
	return articleToResponse(article), nil
}

// PriceCheck backs the public price endpoint; the handler caches the result
// in redis, so this stays a plain catalog read.
func (s *catalogService) PriceCheck(ctx context.Context, sku string) (*dto.PriceCheckResponse, error) {
	article, err := s.articles.FindBySKU(ctx, sku)
	if err != nil {
		return nil, errs.NotFound("artículo", sku)
	}
	return &dto.PriceCheckResponse{
		Title:     article.Title,
		Artist:    article.Artist,
		Kind:      string(article.Kind),
		Price:     article.Price,
		Currency:  article.Currency,
		InStock:   article.StockQuantity > 0,
		Available: article.Available,
	}, nil
}

func articleToResponse(a *model.Article) *dto.ArticleResponse {
	resp := &dto.ArticleResponse{
		ID:            a.ID.String(),
		SKU:           a.SKU,
		Title:         a.Title,
		Artist:        a.Artist,
		Kind:          string(a.Kind),
		Price:         a.Price,
		Currency:      a.Currency,
		StockQuantity: a.StockQuantity,
		MinStockLevel: a.MinStockLevel,
		Available:     a.Available,
		Preorder:      a.Preorder,
	}
	if a.Vinyl != nil {
		rpm, size := a.Vinyl.RPM, a.Vinyl.SizeInches
		resp.RPM, resp.SizeInches = &rpm, &size
	}
	if a.Cassette != nil {
		tape := a.Cassette.TapeType
		resp.TapeType = &tape
	}
	if a.Cd != nil {
		genre, discs := a.Cd.Genre, a.Cd.DiscCount
		resp.Genre, resp.DiscCount = &genre, &discs
	}
	return resp
}
