package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = gorm.ErrRecordNotFound

// pg unique_violation
const pgUniqueViolation = "23505"

// DuplicateError reports a unique index violation. Field names the JSON field
// the index guards, or "non_field_errors" for composite indexes.
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s: %v", e.Field, e.Err)
}

func (e *DuplicateError) Unwrap() error {
	return e.Err
}

// unique index name (postgres) or table.column (sqlite) -> field
var uniqueFields = map[string]string{
	"idx_users_username":      "username",
	"users.username":          "username",
	"idx_users_email":         "email",
	"users.email":             "email",
	"idx_categories_slug":     "slug",
	"categories.slug":         "slug",
	"idx_genres_slug":         "slug",
	"genres.slug":             "slug",
	"idx_review_author_title": "non_field_errors",
	"reviews.author_id":       "non_field_errors",
	"reviews.title_id":        "non_field_errors",
}

// translateError turns driver-level unique violations into *DuplicateError
// and leaves everything else untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateError{Field: fieldFor(pgErr.ConstraintName), Err: err}
	}

	// sqlite: "UNIQUE constraint failed: reviews.author_id, reviews.title_id"
	if _, cols, ok := strings.Cut(err.Error(), "UNIQUE constraint failed: "); ok {
		first, _, _ := strings.Cut(cols, ",")
		return &DuplicateError{Field: fieldFor(strings.TrimSpace(first)), Err: err}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateError{Field: "non_field_errors", Err: err}
	}
	return err
}

func fieldFor(constraint string) string {
	if field, ok := uniqueFields[constraint]; ok {
		return field
	}
	if strings.HasSuffix(constraint, "_pkey") || strings.HasSuffix(constraint, ".id") {
		return "id"
	}
	return "non_field_errors"
}

// containsPattern builds a LIKE pattern for a case-insensitive substring match.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}
