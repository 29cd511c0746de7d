package repository

import (
	"context"

	"melodia/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromotionRepository interface {
	Create(ctx context.Context, p *model.CdPromotion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CdPromotion, error)
	List(ctx context.Context, onlyActive bool) ([]model.CdPromotion, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	AttachArticles(ctx context.Context, p *model.CdPromotion, articles []model.Article) error
}

type promotionRepo struct{ db *gorm.DB }

func NewPromotionRepository(db *gorm.DB) PromotionRepository { return &promotionRepo{db: db} }

func (r *promotionRepo) Create(ctx context.Context, p *model.CdPromotion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *promotionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CdPromotion, error) {
	var p model.CdPromotion
	err := r.db.WithContext(ctx).Preload("Articles").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *promotionRepo) List(ctx context.Context, onlyActive bool) ([]model.CdPromotion, error) {
	var promos []model.CdPromotion
	q := r.db.WithContext(ctx).Preload("Articles")
	if onlyActive {
		q = q.Where("active = true")
	}
	err := q.Order("created_at DESC").Find(&promos).Error
	return promos, err
}

func (r *promotionRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.CdPromotion{}).
		Where("id = ?", id).Update("active", active).Error
}

func (r *promotionRepo) AttachArticles(ctx context.Context, p *model.CdPromotion, articles []model.Article) error {
	return r.db.WithContext(ctx).Model(p).Association("Articles").Append(articles)
}
