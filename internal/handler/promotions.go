package handler

import (
	"net/http"

	"melodia/internal/apierror"
	"melodia/internal/dto"
	"melodia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PromotionsHandler struct{ svc service.PromotionService }

func NewPromotionsHandler(svc service.PromotionService) *PromotionsHandler {
	return &PromotionsHandler{svc: svc}
}

// List godoc
// @Summary      Listar promociones de CDs
// @Tags         promociones
// @Produce      json
// @Param        activas query bool false "Solo promociones vigentes (default false)"
// @Success      200 {array} dto.PromotionResponse
// @Router       /v1/promociones [get]
func (h *PromotionsHandler) List(c *gin.Context) {
	onlyActive := c.Query("activas") == "true"
	resp, err := h.svc.List(c.Request.Context(), onlyActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Crear una promoción de CDs (solo administradores)
// @Description  Solo artículos de tipo cd pueden integrar el conjunto elegible.
// @Tags         promociones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePromotionRequest true "Datos de la promoción"
// @Success      201  {object} dto.PromotionResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/promociones [post]
func (h *PromotionsHandler) Create(c *gin.Context) {
	var req dto.CreatePromotionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SetActive godoc
// @Summary      Activar o desactivar una promoción (solo administradores)
// @Tags         promociones
// @Security     BearerAuth
// @Param        id     path  string true "UUID de la promoción"
// @Param        activa query bool   true "Estado deseado"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/promociones/{id}/activa [patch]
func (h *PromotionsHandler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	active := c.Query("activa") == "true"
	if err := h.svc.SetActive(c.Request.Context(), id, active); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
