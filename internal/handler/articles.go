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

type ArticlesHandler struct{ svc service.CatalogService }

func NewArticlesHandler(svc service.CatalogService) *ArticlesHandler {
	return &ArticlesHandler{svc: svc}
}

// List godoc
// @Summary      Listar artículos del catálogo
// @Tags         articulos
// @Produce      json
// @Param        tipo       query string false "vinilo | cassette | cd"
// @Param        genero     query string false "Género (solo CDs)"
// @Param        q          query string false "Búsqueda por título o artista"
// @Param        disponible query string false "true | false | all (default true)"
// @Param        page       query int    false "Página (default 1)"
// @Param        limit      query int    false "Registros por página (default 50)"
// @Success      200 {object} dto.ArticleListResponse
// @Router       /v1/articulos [get]
func (h *ArticlesHandler) List(c *gin.Context) {
	var filter dto.ArticleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListArticles(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Detalle de un artículo
// @Tags         articulos
// @Produce      json
// @Param        id path string true "UUID del artículo"
// @Success      200 {object} dto.ArticleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/articulos/{id} [get]
func (h *ArticlesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetArticle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Crear un artículo (solo administradores)
// @Tags         articulos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateArticleRequest true "Datos del artículo"
// @Success      201  {object} dto.ArticleResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/articulos [post]
func (h *ArticlesHandler) Create(c *gin.Context) {
	var req dto.CreateArticleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.CreateArticle(c.Request.Context(), req, claims.MustUserID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Update godoc
// @Summary      Actualizar un artículo (solo administradores)
// @Description  No modifica el stock: las existencias cambian únicamente a través del libro de inventario.
// @Tags         articulos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del artículo"
// @Param        body body dto.UpdateArticleRequest true "Campos a actualizar"
// @Success      200  {object} dto.ArticleResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/articulos/{id} [patch]
func (h *ArticlesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.UpdateArticleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateArticle(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
