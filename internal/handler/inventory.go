package handler

import (
	"net/http"
	"strconv"
	"time"

	"melodia/internal/apierror"
	"melodia/internal/dto"
	"melodia/internal/middleware"
	"melodia/internal/model"
	"melodia/internal/repository"
	"melodia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler exposes the stock ledger to administrators: manual
// adjustments, the movement history and low-stock alerts.
type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// AdjustStock godoc
// @Summary      Ajuste manual de stock (solo administradores)
// @Description  Registra una Entrada o Salida en el libro de inventario. Una Salida nunca deja el stock negativo.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del artículo"
// @Param        body body dto.AdjustStockRequest true "Tipo, cantidad y motivo"
// @Success      201  {object} dto.StockMovementResponse
// @Failure      409  {object} apierror.APIError "Stock insuficiente"
// @Router       /v1/articulos/{id}/stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	articleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)

	movement, err := h.svc.ApplyMovement(c.Request.Context(), service.MovementInput{
		ArticleID:     articleID,
		Type:          req.Type,
		Quantity:      req.Quantity,
		ReferenceType: model.RefAjuste,
		ActorID:       claims.MustUserID(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movementToResponse(movement))
}

// ListMovements godoc
// @Summary      Historial de movimientos de stock (solo administradores)
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        articulo_id query string false "UUID del artículo"
// @Param        tipo        query string false "Entrada | Salida"
// @Param        referencia  query string false "Orden | Ajuste | Cancelacion | Reposicion"
// @Param        page        query int    false "Página (default 1)"
// @Param        limit       query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.MovementListResponse
// @Router       /v1/inventario/movimientos [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	filter := repository.StockMovementFilter{
		Type:          c.Query("tipo"),
		ReferenceType: c.Query("referencia"),
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 50),
	}
	if raw := c.Query("articulo_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("articulo_id invalido"))
			return
		}
		filter.ArticleID = &id
	}

	movements, total, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.MovementListResponse{
		Data:  make([]dto.StockMovementResponse, 0, len(movements)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range movements {
		resp.Data = append(resp.Data, *movementToResponse(&movements[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// StockAlerts godoc
// @Summary      Artículos en o por debajo del stock mínimo (solo administradores)
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.StockAlertResponse
// @Router       /v1/inventario/alertas [get]
func (h *InventoryHandler) StockAlerts(c *gin.Context) {
	alerts, err := h.svc.StockAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func movementToResponse(m *model.StockMovement) *dto.StockMovementResponse {
	resp := &dto.StockMovementResponse{
		ID:            m.ID.String(),
		ArticleID:     m.ArticleID.String(),
		Type:          m.Type,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		ReferenceType: m.ReferenceType,
		CreatedBy:     m.CreatedBy.String(),
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
