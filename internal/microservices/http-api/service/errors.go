package service

import (
	"errors"
	"fmt"

	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/pkg/apperror"
)

// message for the signup and admin create conflicts; /users/me drops the period
const alreadyRegistered = "%s уже зарегистрирован."

// notFoundOr maps a repository miss to a 404 and anything else to an internal error.
func notFoundOr(err error, detail string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(detail)
	}
	return apperror.Internal(err)
}

// duplicateOr maps a unique violation to a field-tagged conflict. values holds
// the offending input per field and is formatted into the message.
func duplicateOr(err error, values map[string]string, format string) error {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		if v, ok := values[dup.Field]; ok {
			return apperror.Conflict(dup.Field, fmt.Sprintf(format, v))
		}
		return apperror.Conflict(dup.Field, "Объект с таким значением уже существует.")
	}
	return apperror.Internal(err)
}
