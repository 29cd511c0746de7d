package infra

import (
	"fmt"

	"melodia/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all entities, then applies the idempotent SQL patches GORM cannot
// express (sequences, partial indexes, check constraints).
//
// TranslateError is enabled so unique-violation races surface as
// gorm.ErrDuplicatedKey — the order-number generator retries on it.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates the schema. NewDatabase runs it on every
// connection, so callers normally never invoke it directly.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Article{},
		&model.VinylDetail{},
		&model.CassetteDetail{},
		&model.CdDetail{},
		&model.StockMovement{},
		&model.Cart{},
		&model.CartItem{},
		&model.CdPromotion{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Invoice{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle:
// the invoice numbering sequence, the non-negative stock check constraint,
// and the partial index backing the invoice retry cron query.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE SEQUENCE IF NOT EXISTS invoices_numero_seq START 1`,
		// Last line of defense for the ledger invariant — the service layer
		// already validates under a row lock.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_articles_stock_nonneg') THEN
		    ALTER TABLE articles ADD CONSTRAINT chk_articles_stock_nonneg CHECK (stock_quantity >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_invoices_pending_retry') THEN
		    CREATE INDEX idx_invoices_pending_retry
		        ON invoices (next_retry_at)
		        WHERE estado = 'pendiente' AND next_retry_at IS NOT NULL;
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
