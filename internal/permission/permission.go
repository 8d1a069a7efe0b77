// Package permission decides whether an actor may perform a request.
// Decisions are pure: no store access, no side effects.
package permission

import (
	"net/http"

	"reviewhub/internal/microservices/http-api/models"
	"reviewhub/pkg/apperror"
)

type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "forbidden"
	}
}

// Err converts a deny decision into the matching application error; Allow gives nil.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case Unauthenticated:
		return apperror.ErrUnauthenticated
	default:
		return apperror.ErrPermissionDenied
	}
}

type Policy int

const (
	// AdminOrReadOnly guards the catalog.
	AdminOrReadOnly Policy = iota
	// Admin guards the user collection.
	Admin
	// Authenticated guards /users/me.
	Authenticated
	// AuthorOrModeratorOrReadOnly guards reviews and comments.
	AuthorOrModeratorOrReadOnly
)

func (p Policy) String() string {
	switch p {
	case AdminOrReadOnly:
		return "admin_or_read_only"
	case Admin:
		return "admin"
	case Authenticated:
		return "authenticated"
	case AuthorOrModeratorOrReadOnly:
		return "author_or_moderator_or_read_only"
	default:
		return "unknown"
	}
}

func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Evaluate applies policy p. actor is nil for anonymous requests. ownerID is the
// author of the target object, or empty for collection-level checks.
func Evaluate(p Policy, actor *models.User, method, ownerID string) Decision {
	switch p {
	case AdminOrReadOnly:
		if IsSafeMethod(method) {
			return Allow
		}
		return requireAdmin(actor)
	case Admin:
		return requireAdmin(actor)
	case Authenticated:
		if actor == nil {
			return Unauthenticated
		}
		return Allow
	case AuthorOrModeratorOrReadOnly:
		if IsSafeMethod(method) {
			return Allow
		}
		if actor == nil {
			return Unauthenticated
		}
		if ownerID == "" || ownerID == actor.ID || actor.CanModerate() {
			return Allow
		}
		return Forbidden
	}
	return Forbidden
}

func requireAdmin(actor *models.User) Decision {
	if actor == nil {
		return Unauthenticated
	}
	if actor.CanAdminister() {
		return Allow
	}
	return Forbidden
}
