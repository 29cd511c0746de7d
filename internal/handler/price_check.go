package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"melodia/internal/dto"
	"melodia/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const priceCacheTTL = 4 * time.Hour

// PriceCheckHandler serves the public price endpoint. No authentication,
// no side effects; responses are cached in redis per SKU.
type PriceCheckHandler struct {
	svc service.CatalogService
	rdb *redis.Client
}

func NewPriceCheckHandler(svc service.CatalogService, rdb *redis.Client) *PriceCheckHandler {
	return &PriceCheckHandler{svc: svc, rdb: rdb}
}

// GetPriceBySKU godoc
// @Summary      Consulta de precio por SKU (sin autenticación)
// @Tags         precio
// @Produce      json
// @Param        sku path string true "SKU del artículo"
// @Success      200 {object} dto.PriceCheckResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/precio/{sku} [get]
func (h *PriceCheckHandler) GetPriceBySKU(c *gin.Context) {
	sku := c.Param("sku")
	ctx := c.Request.Context()
	cacheKey := "precio:" + sku

	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.PriceCheckResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	resp, err := h.svc.PriceCheck(ctx, sku)
	if err != nil {
		respondError(c, err)
		return
	}

	// Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, priceCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
