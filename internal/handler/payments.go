package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"melodia/internal/apierror"
	"melodia/internal/config"
	"melodia/internal/dto"
	"melodia/internal/middleware"
	"melodia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct {
	svc service.PaymentService
	cfg *config.Config
}

func NewPaymentsHandler(svc service.PaymentService, cfg *config.Config) *PaymentsHandler {
	return &PaymentsHandler{svc: svc, cfg: cfg}
}

// Process godoc
// @Summary      Pagar una orden
// @Description  Cobra a través de la pasarela, emite la factura y pasa la orden a Procesando. Idempotente: un segundo pago sobre la misma orden se rechaza.
// @Tags         pagos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ProcessPaymentRequest true "Orden, método y monto"
// @Success      201  {object} dto.PaymentResponse
// @Failure      409  {object} apierror.APIError "Pago duplicado"
// @Failure      422  {object} apierror.APIError "Monto no coincide"
// @Router       /v1/pagos [post]
func (h *PaymentsHandler) Process(c *gin.Context) {
	var req dto.ProcessPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ProcessPayment(c.Request.Context(), claims.MustUserID(), claims.IsAdmin(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Refund godoc
// @Summary      Reembolsar un pago (solo administradores)
// @Tags         pagos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del pago"
// @Param        body body dto.RefundPaymentRequest true "Monto y motivo"
// @Success      200  {object} dto.PaymentResponse
// @Failure      422  {object} apierror.APIError "Monto excede lo reembolsable"
// @Router       /v1/pagos/{id}/reembolso [post]
func (h *PaymentsHandler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.RefundPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refund(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListByOrder godoc
// @Summary      Historial de pagos de una orden (solo administradores)
// @Tags         pagos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la orden"
// @Success      200 {array} dto.PaymentResponse
// @Router       /v1/ordenes/{id}/pagos [get]
func (h *PaymentsHandler) ListByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetInvoice godoc
// @Summary      Factura de una orden
// @Tags         facturas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la orden"
// @Success      200 {object} dto.InvoiceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ordenes/{id}/factura [get]
func (h *PaymentsHandler) GetInvoice(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.GetInvoice(c.Request.Context(), claims.MustUserID(), claims.IsAdmin(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DownloadInvoicePDF godoc
// @Summary      Descargar el PDF de la factura de una orden
// @Tags         facturas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la orden"
// @Success      200 {file} binary
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ordenes/{id}/factura/pdf [get]
func (h *PaymentsHandler) DownloadInvoicePDF(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	inv, err := h.svc.GetInvoice(c.Request.Context(), claims.MustUserID(), claims.IsAdmin(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if inv.PDFUrl == nil || inv.Estado != "emitida" {
		c.JSON(http.StatusNotFound, apierror.New("la factura aún no fue emitida"))
		return
	}

	path := filepath.Join(h.cfg.PDFStoragePath, "factura_"+inv.InvoiceNumber+".pdf")
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("PDF no disponible"))
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
