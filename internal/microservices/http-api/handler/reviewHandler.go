package handler

import (
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/permission"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	svc service.ReviewService
}

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// RegisterRoutes mounts the review routes on a /titles/:title_id group.
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	policy := middleware.RequirePolicy(permission.AuthorOrModeratorOrReadOnly)
	rg.GET("/reviews", policy, h.List)
	rg.POST("/reviews", policy, h.Create)
	rg.GET("/reviews/:review_id", policy, h.Get)
	rg.PUT("/reviews/:review_id", policy, h.Replace)
	rg.PATCH("/reviews/:review_id", policy, h.Patch)
	rg.DELETE("/reviews/:review_id", policy, h.Delete)
}

func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	params := listParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	reviews, total, err := h.svc.List(ctx, titleID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, reviews, total, params)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Get(ctx, titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /titles/:title_id/reviews/. Author and title come
// from the request context, never from the body.
func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	var req dto.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, middleware.Actor(c), titleID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Replace handles PUT; every writable field is required.
func (h *ReviewHandler) Replace(c *gin.Context) {
	var req dto.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, dto.ReviewPatch{Text: &req.Text, Score: req.Score})
}

func (h *ReviewHandler) Patch(c *gin.Context) {
	var patch dto.ReviewPatch
	if !bindJSON(c, &patch) {
		return
	}
	h.update(c, patch)
}

func (h *ReviewHandler) update(c *gin.Context, patch dto.ReviewPatch) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Update(ctx, middleware.Actor(c), titleID, reviewID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, ok := pathID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.Actor(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
