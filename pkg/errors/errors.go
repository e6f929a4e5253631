package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrAccountDisabled    = errors.New("user account is disabled")
	ErrUnauthorized       = errors.New("unauthorized access")

	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	ErrTokenInvalid     = errors.New("token is invalid or expired")
	ErrTokenBlacklisted = errors.New("token is blacklisted")
	ErrTokenWrongType   = errors.New("token has wrong type")

	ErrInvalidResetToken = errors.New("invalid token")
	ErrExpiredResetToken = errors.New("token is invalid or has expired")
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInternal   = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg = fmt.Sprintf("%s (%s)", msg, e.fieldSummary())
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) fieldSummary() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return strings.Join(parts, ", ")
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewFieldError builds a validation error reported against a single request field.
func NewFieldError(field string, messages ...string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "Invalid input",
		Fields:  map[string][]string{field: messages},
	}
}

// NewValidationError wraps a set of field violations.
func NewValidationError(fields map[string][]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "Invalid input",
		Fields:  fields,
	}
}

// FieldErrors returns the field map carried by err, if any.
func FieldErrors(err error) (map[string][]string, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
		return appErr.Fields, true
	}
	return nil, false
}
