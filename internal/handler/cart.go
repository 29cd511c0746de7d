package handler

import (
	"net/http"

	"melodia/internal/apierror"
	"melodia/internal/dto"
	"melodia/internal/middleware"
	"melodia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CartHandler struct{ svc service.CartService }

func NewCartHandler(svc service.CartService) *CartHandler { return &CartHandler{svc: svc} }

// Get godoc
// @Summary      Carrito del usuario autenticado
// @Tags         carrito
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.CartResponse
// @Router       /v1/carrito [get]
func (h *CartHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GetCart(c.Request.Context(), claims.MustUserID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary      Agregar un artículo al carrito
// @Description  Si el artículo ya está en el carrito las cantidades se combinan y el descuento aplicado se descarta.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AddCartItemRequest true "Artículo y cantidad"
// @Success      200  {object} dto.CartResponse
// @Failure      409  {object} apierror.APIError "Stock insuficiente"
// @Router       /v1/carrito/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.AddItem(c.Request.Context(), claims.MustUserID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary      Cambiar la cantidad de una línea del carrito
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la línea"
// @Param        body body dto.UpdateCartItemRequest true "Nueva cantidad"
// @Success      200  {object} dto.CartResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/carrito/items/{id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.UpdateCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.UpdateQuantity(c.Request.Context(), claims.MustUserID(), itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary      Quitar una línea del carrito
// @Tags         carrito
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la línea"
// @Success      200 {object} dto.CartResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/carrito/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.RemoveItem(c.Request.Context(), claims.MustUserID(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Clear godoc
// @Summary      Vaciar el carrito
// @Tags         carrito
// @Security     BearerAuth
// @Success      204
// @Router       /v1/carrito [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if err := h.svc.Clear(c.Request.Context(), claims.MustUserID()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyPromotion godoc
// @Summary      Aplicar una promoción de CDs al carrito
// @Description  Valida vigencia, elegibilidad y tope de ítems; persiste los descuentos por línea.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ApplyPromotionRequest true "Promoción y artículos"
// @Success      200  {object} dto.CartResponse
// @Failure      422  {object} apierror.APIError "Promoción no aplicable"
// @Router       /v1/carrito/promocion [post]
func (h *CartHandler) ApplyPromotion(c *gin.Context) {
	var req dto.ApplyPromotionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ApplyPromotion(c.Request.Context(), claims.MustUserID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
