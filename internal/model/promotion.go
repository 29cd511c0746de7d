package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Promotion types.
const (
	PromoGenre  = "genero"
	PromoRandom = "aleatoria"
)

// CdPromotion is a bundle discount rule applicable only to CD articles.
// The eligible set is an explicit many-to-many; the genre filter is an
// additional constraint for genre-typed promotions.
type CdPromotion struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name               string          `gorm:"not null"`
	Type               string          `gorm:"type:varchar(20);not null"` // genero | aleatoria
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MaxItems           int             `gorm:"not null;default:1"`
	Genre              *string         `gorm:"type:varchar(50)"`
	StartDate          *time.Time
	EndDate            *time.Time
	Active             bool `gorm:"not null;default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Articles []Article `gorm:"many2many:promotion_articles;"`
}

func (CdPromotion) TableName() string { return "cd_promotions" }

// ActiveAt reports whether the promotion may be applied at instant t:
// the flag must be on and t must fall in [StartDate, EndDate) when set.
func (p *CdPromotion) ActiveAt(t time.Time) bool {
	if !p.Active {
		return false
	}
	if p.StartDate != nil && t.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && !t.Before(*p.EndDate) {
		return false
	}
	return true
}
