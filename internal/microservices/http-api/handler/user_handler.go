package handler

import (
	"net/http"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/service"
	"reviewhub/internal/permission"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	self := middleware.RequirePolicy(permission.Authenticated)
	rg.GET("/me", self, h.Me)
	rg.PATCH("/me", self, h.UpdateMe)

	admin := middleware.RequirePolicy(permission.Admin)
	rg.GET("", admin, h.List)
	rg.POST("", admin, h.Create)
	rg.GET("/:username", admin, h.Get)
	rg.PUT("/:username", admin, h.Replace)
	rg.PATCH("/:username", admin, h.Patch)
	rg.DELETE("/:username", admin, h.Delete)
}

// Me handles GET /users/me/
func (h *UserHandler) Me(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	c.JSON(http.StatusOK, h.userService.Me(ctx, middleware.Actor(c)))
}

// UpdateMe handles PATCH /users/me/
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var patch dto.UserPatch
	if !bindJSON(c, &patch) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.userService.UpdateMe(ctx, middleware.Actor(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) List(c *gin.Context) {
	params := listParams(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	users, total, err := h.userService.List(ctx, params)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, users, total, params)
}

func (h *UserHandler) Get(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.userService.Get(ctx, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.UserRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.userService.Create(ctx, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Replace(c *gin.Context) {
	var req dto.UserRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.userService.Replace(ctx, c.Param("username"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Patch(c *gin.Context) {
	var patch dto.UserPatch
	if !bindJSON(c, &patch) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	resp, err := h.userService.Patch(ctx, c.Param("username"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) Delete(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.userService.Delete(ctx, c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
