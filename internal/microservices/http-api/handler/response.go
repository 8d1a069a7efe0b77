package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/microservices/http-api/dto"
	"reviewhub/pkg/apperror"
	"reviewhub/pkg/validator"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 5 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// respondError writes err using its kind's status and body. Internal causes
// are logged and never shown to the client.
func respondError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	if appErr.Kind == apperror.KindInternal {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	c.AbortWithStatusJSON(appErr.Kind.Status(), appErr.Body())
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, validator.BindingError(err))
		return false
	}
	return true
}

// pathID parses a numeric path parameter; anything else is a 404.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperror.NotFound("not found"))
		return 0, false
	}
	return id, true
}

// listParams reads limit, offset and search. Offset only counts when limit is given.
func listParams(c *gin.Context) dto.ListParams {
	params := dto.ListParams{Search: strings.TrimSpace(c.Query("search"))}
	raw, ok := c.GetQuery("limit")
	if !ok {
		return params
	}
	limit := dto.DefaultPageSize
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		limit = min(n, dto.MaxPageSize)
	}
	params.Limit = &limit
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		params.Offset = n
	}
	return params
}

func pageParams(c *gin.Context) (dto.PageParams, bool) {
	params := dto.PageParams{Page: 1, PageSize: dto.DefaultPageSize}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, apperror.NotFound("Invalid page."))
			return params, false
		}
		params.Page = n
	}
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil && n > 0 {
		params.PageSize = min(n, dto.MaxPageSize)
	}
	return params, true
}

// respondList writes a bare array, or the envelope when the client sent a limit.
func respondList[T any](c *gin.Context, results []T, count int64, params dto.ListParams) {
	if !params.Paginated() {
		c.JSON(http.StatusOK, results)
		return
	}
	c.JSON(http.StatusOK, dto.NewLimitOffsetPage(requestURL(c), results, count, *params.Limit, params.Offset))
}

// requestURL rebuilds the absolute URL of the request for pagination links.
func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Scheme = "http"
	if c.Request.TLS != nil {
		u.Scheme = "https"
	} else if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		u.Scheme = proto
	}
	u.Host = c.Request.Host
	return &u
}
