package user

import (
	"fmt"
	"strings"

	appErrors "account-service/pkg/errors"
)

var (
	ErrUserNotFound      = appErrors.ErrUserNotFound
	ErrUserAlreadyExists = appErrors.ErrUserAlreadyExists
	ErrAccountDisabled   = appErrors.ErrAccountDisabled
)

// ConflictError reports which unique identifier is already taken.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("user with this %s already exists", strings.ReplaceAll(e.Field, "_", " "))
}

// Message is the client-facing wording for the conflicting field.
func (e *ConflictError) Message() string {
	return "A " + e.Error() + "."
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrUserAlreadyExists
}
