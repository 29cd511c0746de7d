package service

import (
	"context"
	"fmt"

	"melodia/internal/dto"
	"melodia/internal/errs"
	"melodia/internal/model"
	"melodia/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementInput describes one inventory delta for the ledger.
type MovementInput struct {
	ArticleID     uuid.UUID
	Type          string // model.MovementEntrada | model.MovementSalida
	Quantity      int    // must be positive
	ReferenceType string
	ReferenceID   *uuid.UUID
	ActorID       uuid.UUID
}

// InventoryService is the stock ledger: the ONLY path that mutates
// article stock. Every change reads the current quantity under a row
// lock, validates the bounds, writes the new quantity and appends one
// StockMovement — all inside the same transaction.
type InventoryService interface {
	// ApplyMovement runs the movement in its own transaction.
	ApplyMovement(ctx context.Context, in MovementInput) (*model.StockMovement, error)
	// ApplyMovementTx participates in the caller's transaction — checkout
	// uses it so stock consumption commits (or rolls back) with the order.
	ApplyMovementTx(tx *gorm.DB, in MovementInput) (*model.StockMovement, error)
	// ReserveForOrderTx is the checkout specialization: a Salida that
	// references the order being assembled.
	ReserveForOrderTx(tx *gorm.DB, articleID uuid.UUID, quantity int, orderID, actorID uuid.UUID) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error)
	StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error)
}

type inventoryService struct {
	articles  repository.ArticleRepository
	movements repository.StockMovementRepository
}

func NewInventoryService(articles repository.ArticleRepository, movements repository.StockMovementRepository) InventoryService {
	return &inventoryService{articles: articles, movements: movements}
}

func (s *inventoryService) ApplyMovement(ctx context.Context, in MovementInput) (*model.StockMovement, error) {
	var mov *model.StockMovement
	err := runTx(ctx, s.articles.DB(), func(tx *gorm.DB) error {
		m, err := s.ApplyMovementTx(tx, in)
		if err != nil {
			return err
		}
		mov = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

func (s *inventoryService) ApplyMovementTx(tx *gorm.DB, in MovementInput) (*model.StockMovement, error) {
	if in.Quantity <= 0 {
		return nil, &errs.ValidationError{Field: "cantidad", Reason: "debe ser positiva"}
	}
	if in.Type != model.MovementEntrada && in.Type != model.MovementSalida {
		return nil, &errs.ValidationError{Field: "tipo", Reason: "debe ser Entrada o Salida"}
	}

	// Row lock: concurrent movements on the same article serialize here.
	article, err := s.articles.FindByIDForUpdateTx(tx, in.ArticleID)
	if err != nil {
		return nil, errs.NotFound("artículo", in.ArticleID.String())
	}

	previous := article.StockQuantity
	var newStock int
	switch in.Type {
	case model.MovementEntrada:
		newStock = previous + in.Quantity
	case model.MovementSalida:
		if in.Quantity > previous {
			return nil, &errs.InsufficientStockError{
				ArticleID: article.ID,
				Title:     article.Title,
				Requested: in.Quantity,
				Available: previous,
			}
		}
		newStock = previous - in.Quantity
	}

	if err := s.articles.UpdateStockTx(tx, article.ID, newStock); err != nil {
		return nil, fmt.Errorf("actualizando stock de %s: %w", article.Title, err)
	}

	mov := &model.StockMovement{
		ArticleID:     article.ID,
		Type:          in.Type,
		Quantity:      in.Quantity,
		PreviousStock: previous,
		NewStock:      newStock,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		CreatedBy:     in.ActorID,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, fmt.Errorf("registrando movimiento: %w", err)
	}
	return mov, nil
}

func (s *inventoryService) ReserveForOrderTx(tx *gorm.DB, articleID uuid.UUID, quantity int, orderID, actorID uuid.UUID) (*model.StockMovement, error) {
	ref := orderID
	return s.ApplyMovementTx(tx, MovementInput{
		ArticleID:     articleID,
		Type:          model.MovementSalida,
		Quantity:      quantity,
		ReferenceType: model.RefOrden,
		ReferenceID:   &ref,
		ActorID:       actorID,
	})
}

func (s *inventoryService) ListMovements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	return s.movements.List(ctx, filter)
}

// StockAlerts lists available articles at or below their minimum level.
func (s *inventoryService) StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error) {
	articles, err := s.articles.ListBelowMinStock(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.StockAlertResponse, 0, len(articles))
	for _, a := range articles {
		alerts = append(alerts, dto.StockAlertResponse{
			ArticleID:     a.ID.String(),
			Title:         a.Title,
			StockQuantity: a.StockQuantity,
			MinStockLevel: a.MinStockLevel,
		})
	}
	return alerts, nil
}
