package handler

import (
	"context"
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/permission"

	"github.com/gin-gonic/gin"
)

// SlugCatalog is the shared shape of the genre and category services.
type SlugCatalog interface {
	List(ctx context.Context, params dto.ListParams) ([]dto.SlugResponse, int64, error)
	Create(ctx context.Context, req dto.SlugRequest) (*dto.SlugResponse, error)
	Delete(ctx context.Context, slug string) error
}

// CatalogHandler serves /genres/ and /categories/.
type CatalogHandler struct {
	svc SlugCatalog
}

func NewCatalogHandler(svc SlugCatalog) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.RequirePolicy(permission.AdminOrReadOnly))
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

func (h *CatalogHandler) List(c *gin.Context) {
	params := listParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	list, total, err := h.svc.List(ctx, params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, list, total, params)
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var in dto.SlugRequest
	if !bindJSON(c, &in) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
