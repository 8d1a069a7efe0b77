package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/permission"
	"reviewhub/internal/shared"
	"reviewhub/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Context keys set by Authenticate.
const (
	ActorKey  = "user"
	UserIDKey = "userID"
)

const actorLookupTimeout = 5 * time.Second

type TokenValidator interface {
	ValidateToken(tokenString string) (*shared.AuthClaims, error)
}

type ActorLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate resolves the bearer token, if any, into the acting user.
// Requests without an Authorization header continue anonymously; a header
// that does not carry a valid token is rejected with 401.
func Authenticate(tokens TokenValidator, users ActorLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// format: "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, apperror.Unauthenticated("invalid authorization header format"))
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			abortWithError(c, apperror.Unauthenticated("Given token not valid for any token type"))
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), actorLookupTimeout)
		defer cancel()
		user, err := users.FindByID(ctx, claims.Subject)
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, apperror.Unauthenticated("User not found"))
			return
		}
		if err != nil {
			abortWithError(c, apperror.Internal(err))
			return
		}

		c.Set(ActorKey, user)
		c.Set(UserIDKey, user.ID)
		c.Next()
	}
}

// Actor returns the authenticated user, or nil for anonymous requests.
func Actor(c *gin.Context) *models.User {
	v, ok := c.Get(ActorKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequirePolicy runs the collection-level permission check for the route.
func RequirePolicy(p permission.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := permission.Evaluate(p, Actor(c), c.Request.Method, "")
		if decision != permission.Allow {
			abortWithError(c, decision.Err())
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	appErr := apperror.As(err)
	c.AbortWithStatusJSON(appErr.Kind.Status(), appErr.Body())
}
