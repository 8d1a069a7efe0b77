package handler

import (
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/permission"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc service.CommentService
}

func NewCommentHandler(svc service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// RegisterRoutes mounts the comment routes on a /titles/:title_id group.
func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	policy := middleware.RequirePolicy(permission.AuthorOrModeratorOrReadOnly)
	comments := rg.Group("/reviews/:review_id/comments")
	comments.GET("", policy, h.List)
	comments.POST("", policy, h.Create)
	comments.GET("/:comment_id", policy, h.Get)
	comments.PUT("/:comment_id", policy, h.Replace)
	comments.PATCH("/:comment_id", policy, h.Patch)
	comments.DELETE("/:comment_id", policy, h.Delete)
}

// parents reads title_id and review_id from the path.
func parents(c *gin.Context) (titleID, reviewID int64, ok bool) {
	if titleID, ok = pathID(c, "title_id"); !ok {
		return
	}
	reviewID, ok = pathID(c, "review_id")
	return
}

func (h *CommentHandler) List(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	params := listParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	comments, total, err := h.svc.List(ctx, titleID, reviewID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, comments, total, params)
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Create(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Create(ctx, middleware.Actor(c), titleID, reviewID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CommentHandler) Replace(c *gin.Context) {
	var req dto.CommentRequest
	if !bindJSON(c, &req) {
		return
	}
	h.update(c, dto.CommentPatch{Text: &req.Text})
}

func (h *CommentHandler) Patch(c *gin.Context) {
	var patch dto.CommentPatch
	if !bindJSON(c, &patch) {
		return
	}
	h.update(c, patch)
}

func (h *CommentHandler) update(c *gin.Context, patch dto.CommentPatch) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.svc.Update(ctx, middleware.Actor(c), titleID, reviewID, commentID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, reviewID, ok := parents(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, middleware.Actor(c), titleID, reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
