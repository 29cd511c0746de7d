package repository

import (
	"context"

	"melodia/internal/dto"
	"melodia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArticleRepository defines the data access contract for catalog articles.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
//
// stock_quantity is intentionally NOT writable through Update: the only
// path that mutates it is UpdateStockTx, called by the inventory ledger
// inside a transaction that also records the StockMovement.
type ArticleRepository interface {
	Create(ctx context.Context, a *model.Article) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Article, error)
	FindBySKU(ctx context.Context, sku string) (*model.Article, error)
	List(ctx context.Context, filter dto.ArticleFilter) ([]model.Article, int64, error)
	Update(ctx context.Context, a *model.Article) error
	ListBelowMinStock(ctx context.Context) ([]model.Article, error)

	// Used inside transactions — callers must pass the tx instance.
	// FindByIDForUpdateTx takes a row-level lock (SELECT … FOR UPDATE) so
	// concurrent checkouts against the same article serialize.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Article, error)
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, newStock int) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type articleRepo struct{ db *gorm.DB }

func NewArticleRepository(db *gorm.DB) ArticleRepository { return &articleRepo{db: db} }

func (r *articleRepo) Create(ctx context.Context, a *model.Article) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *articleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	var a model.Article
	err := r.db.WithContext(ctx).
		Preload("Vinyl").Preload("Cassette").Preload("Cd").
		First(&a, "id = ?", id).Error
	return &a, err
}

func (r *articleRepo) FindBySKU(ctx context.Context, sku string) (*model.Article, error) {
	var a model.Article
	err := r.db.WithContext(ctx).
		Preload("Vinyl").Preload("Cassette").Preload("Cd").
		Where("sku = ?", sku).First(&a).Error
	return &a, err
}

func (r *articleRepo) List(ctx context.Context, filter dto.ArticleFilter) ([]model.Article, int64, error) {
	var articles []model.Article
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Article{})

	// Available filter: "false" = hidden, "all" = everything, default = available
	switch filter.Available {
	case "false":
		q = q.Where("available = false")
	case "all":
		// no filter
	default:
		q = q.Where("available = true")
	}

	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Genre != "" {
		q = q.Where("id IN (SELECT article_id FROM cd_details WHERE genre = ?)", filter.Genre)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR artist ILIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Vinyl").Preload("Cassette").Preload("Cd").
		Order("title ASC").Limit(filter.Limit).Offset(offset).Find(&articles).Error
	return articles, total, err
}

func (r *articleRepo) Update(ctx context.Context, a *model.Article) error {
	// Omit stock_quantity — only the ledger writes it
	return r.db.WithContext(ctx).Model(a).
		Omit("stock_quantity").
		Updates(a).Error
}

func (r *articleRepo) ListBelowMinStock(ctx context.Context) ([]model.Article, error) {
	var articles []model.Article
	err := r.db.WithContext(ctx).
		Where("available = true AND stock_quantity <= min_stock_level").
		Order("stock_quantity ASC").
		Find(&articles).Error
	return articles, err
}

func (r *articleRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Article, error) {
	var a model.Article
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	return &a, err
}

func (r *articleRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, newStock int) error {
	return tx.Model(&model.Article{}).Where("id = ?", id).
		Update("stock_quantity", newStock).Error
}

func (r *articleRepo) DB() *gorm.DB { return r.db }
