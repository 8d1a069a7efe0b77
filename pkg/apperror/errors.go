// Package apperror defines the error taxonomy shared by services and
// handlers. Every error carries a Kind that maps to one HTTP status and,
// for validation and conflict errors, a set of field-keyed messages.
package apperror

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindPermissionDenied
	KindUnauthenticated
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindPermissionDenied:
		return "permission_denied"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Status maps a Kind to its HTTP status code. Conflicts answer 400 like
// validation errors; clients tell them apart by the field message.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindValidation:
		return http.StatusBadRequest
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is the application error returned by services.
type Error struct {
	Kind   Kind
	Fields map[string]string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("; ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(e.Fields[k])
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values by Kind, so errors.Is(err, apperror.ErrNotFound)
// works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Detail == "" && len(t.Fields) == 0 && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrUnauthenticated  = &Error{Kind: KindUnauthenticated}
	ErrRateLimited      = &Error{Kind: KindRateLimited}
)

func NotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

func Conflict(field, message string) *Error {
	return &Error{Kind: KindConflict, Fields: map[string]string{field: message}}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Fields: map[string]string{field: message}}
}

// ValidationFields builds a validation error with several failing fields.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

func PermissionDenied(detail string) *Error {
	return &Error{Kind: KindPermissionDenied, Detail: detail}
}

func Unauthenticated(detail string) *Error {
	return &Error{Kind: KindUnauthenticated, Detail: detail}
}

func RateLimited(detail string) *Error {
	return &Error{Kind: KindRateLimited, Detail: detail}
}

// Internal wraps an unexpected failure; the cause is logged, never shown.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// As extracts an *Error from err. Anything else is treated as internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Body renders the JSON body for an error: field messages for validation
// and conflict errors, {"detail": ...} for everything else.
func (e *Error) Body() map[string]string {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	detail := e.Detail
	if detail == "" || e.Kind == KindInternal {
		detail = defaultDetail(e.Kind)
	}
	return map[string]string{"detail": detail}
}

func defaultDetail(k Kind) string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindPermissionDenied:
		return "you do not have permission to perform this action"
	case KindUnauthenticated:
		return "authentication credentials were not provided"
	case KindRateLimited:
		return "request was throttled"
	default:
		return "internal server error"
	}
}
