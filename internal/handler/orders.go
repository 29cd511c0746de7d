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

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Create godoc
// @Summary      Convertir el carrito en una orden
// @Description  Checkout atómico: reserva stock bajo bloqueo de fila, congela precios y descuentos, deriva impuestos y envío y vacía el carrito.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateOrderRequest true "Direcciones y método de pago"
// @Success      201  {object} dto.OrderResponse
// @Failure      400  {object} apierror.APIError "Carrito vacío"
// @Failure      409  {object} apierror.APIError "Stock insuficiente"
// @Router       /v1/ordenes [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.CreateOrder(c.Request.Context(), claims.MustUserID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      Órdenes del usuario autenticado (los administradores ven todas)
// @Tags         ordenes
// @Produce      json
// @Security     BearerAuth
// @Param        estado query string false "Pendiente | Procesando | Enviado | Entregado | Cancelado | all"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.OrderListResponse
// @Router       /v1/ordenes [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	claims := middleware.GetClaims(c)

	var (
		resp *dto.OrderListResponse
		err  error
	)
	if claims.IsAdmin() {
		resp, err = h.svc.ListAll(c.Request.Context(), filter)
	} else {
		resp, err = h.svc.ListOrders(c.Request.Context(), claims.MustUserID(), filter)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Detalle de una orden
// @Tags         ordenes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la orden"
// @Success      200 {object} dto.OrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ordenes/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GetOrder(c.Request.Context(), claims.MustUserID(), claims.IsAdmin(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByNumber godoc
// @Summary      Buscar una orden por número
// @Tags         ordenes
// @Produce      json
// @Security     BearerAuth
// @Param        numero path string true "Número de orden"
// @Success      200 {object} dto.OrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ordenes/numero/{numero} [get]
func (h *OrdersHandler) GetByNumber(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GetByNumber(c.Request.Context(), claims.MustUserID(), claims.IsAdmin(), c.Param("numero"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus godoc
// @Summary      Cambiar el estado de una orden (solo administradores)
// @Description  Respeta la máquina de estados; cancelar repone el stock con movimientos de entrada.
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la orden"
// @Param        body body dto.UpdateOrderStatusRequest true "Nuevo estado"
// @Success      200  {object} dto.OrderResponse
// @Failure      409  {object} apierror.APIError "Transición inválida"
// @Router       /v1/ordenes/{id}/estado [patch]
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.UpdateOrderStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status, claims.MustUserID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Cancelar una orden propia que aún no fue enviada
// @Tags         ordenes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la orden"
// @Success      200 {object} dto.OrderResponse
// @Failure      409 {object} apierror.APIError "La orden ya fue enviada"
// @Router       /v1/ordenes/{id}/cancelar [post]
func (h *OrdersHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.CancelOrder(c.Request.Context(), claims.MustUserID(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
