package handler

import (
	"net/http"
	"strconv"
	"strings"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/permission"
	"reviewhub/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	svc service.TitleService
}

func NewTitleHandler(svc service.TitleService) *TitleHandler {
	return &TitleHandler{svc: svc}
}

func (h *TitleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	policy := middleware.RequirePolicy(permission.AdminOrReadOnly)
	rg.GET("", policy, h.List)
	rg.POST("", policy, h.Create)
	rg.GET("/:title_id", policy, h.Get)
	rg.PUT("/:title_id", policy, h.Replace)
	rg.PATCH("/:title_id", policy, h.Patch)
	rg.DELETE("/:title_id", policy, h.Delete)
}

// titleFilter reads the list filters; a non-numeric year is a 400 on year.
func titleFilter(c *gin.Context) (repository.TitleFilter, bool) {
	filter := repository.TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     strings.TrimSpace(c.Query("name")),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, apperror.Validation("year", "Enter a number."))
			return filter, false
		}
		filter.Year = &year
	}
	return filter, true
}

// List handles GET /titles/?page=&page_size=&category=&genre=&name=&year=&search=
func (h *TitleHandler) List(c *gin.Context) {
	filter, ok := titleFilter(c)
	if !ok {
		return
	}
	page, ok := pageParams(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	titles, total, err := h.svc.List(ctx, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	if page.Page > 1 && int64(page.Offset()) >= total {
		respondError(c, apperror.NotFound("Invalid page."))
		return
	}
	c.JSON(http.StatusOK, dto.NewPageNumberPage(requestURL(c), titles, total, page))
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) Create(c *gin.Context) {
	var req dto.TitleRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *TitleHandler) Replace(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	var req dto.TitleRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Replace(ctx, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	var patch dto.TitlePatch
	if !bindJSON(c, &patch) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Patch(ctx, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "title_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
