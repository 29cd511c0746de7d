package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ArticleKind discriminates the catalog subtypes. Each kind has a detail
// row in its own table keyed by the article id.
type ArticleKind string

const (
	KindVinyl    ArticleKind = "vinilo"
	KindCassette ArticleKind = "cassette"
	KindCd       ArticleKind = "cd"
)

// Article is a sellable catalog item (vinyl, cassette or CD).
// StockQuantity is mutated ONLY through the inventory ledger — every change
// produces a StockMovement row in the same transaction.
type Article struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU           string          `gorm:"uniqueIndex;not null"`
	Title         string          `gorm:"index;not null"`
	Artist        string          `gorm:"index;not null"`
	Kind          ArticleKind     `gorm:"type:varchar(10);not null;index"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'USD'"`
	StockQuantity int             `gorm:"not null;default:0"`
	MinStockLevel int             `gorm:"not null;default:3"`
	MaxStockLevel int             `gorm:"not null;default:100"`
	Available     bool            `gorm:"not null;default:true"`
	Preorder      bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Vinyl    *VinylDetail    `gorm:"foreignKey:ArticleID"`
	Cassette *CassetteDetail `gorm:"foreignKey:ArticleID"`
	Cd       *CdDetail       `gorm:"foreignKey:ArticleID"`
}

func (Article) TableName() string { return "articles" }

// IsCd reports whether the article is CD-typed — the only kind that bundle
// promotions may discount.
func (a *Article) IsCd() bool { return a.Kind == KindCd }

// VinylDetail holds the vinyl-specific attributes.
type VinylDetail struct {
	ArticleID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	RPM        int       `gorm:"not null;default:33"` // 33 | 45 | 78
	SizeInches int       `gorm:"not null;default:12"` // 7 | 10 | 12
	Colored    bool      `gorm:"not null;default:false"`
}

func (VinylDetail) TableName() string { return "vinyl_details" }

// CassetteDetail holds the cassette-specific attributes.
type CassetteDetail struct {
	ArticleID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TapeType  string    `gorm:"type:varchar(20);not null;default:'normal'"` // normal | chrome | metal
	Chrome    bool      `gorm:"not null;default:false"`
}

func (CassetteDetail) TableName() string { return "cassette_details" }

// CdDetail holds the CD-specific attributes. Genre drives genre-based
// promotions; it is a plain string, not a managed entity.
type CdDetail struct {
	ArticleID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Genre     string    `gorm:"type:varchar(50);index;not null"`
	DiscCount int       `gorm:"not null;default:1"`
}

func (CdDetail) TableName() string { return "cd_details" }
