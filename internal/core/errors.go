// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
	ErrTokenInvalid = errors.New("token invalid")

	ErrValidation          = errors.New("validation failed")
	ErrAlreadyExists       = errors.New("already exists")
	ErrDuplicateIngredient = errors.New("duplicate ingredient")
	ErrSelfSubscription    = errors.New("cannot subscribe to yourself")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrWeakPassword        = errors.New("weak password")
	ErrNoOpChange          = errors.New("new value equals current value")
	ErrIngredientNotFound  = errors.New("ingredient not found")
)

// ValidationError reports a rejected input field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type WeakPasswordError struct {
	Reasons []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Reasons, "; ")
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}

type AppError struct {
	Err     error
	Message string
	Status  int
	Code    string
	Field   string
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Status:  status,
		Code:    code,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"DUPLICATE",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "token is invalid", http.StatusUnauthorized, "TOKEN_INVALID")
}

// ToAppError maps domain errors onto the HTTP error envelope. Unknown errors
// become a 500 with the cause kept for logging.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		e := NewAppError(err, valErr.Message, http.StatusBadRequest, "VALIDATION_ERROR")
		e.Field = valErr.Field
		return e
	}

	var weakErr *WeakPasswordError
	if errors.As(err, &weakErr) {
		e := NewAppError(err, strings.Join(weakErr.Reasons, "; "), http.StatusBadRequest, "WEAK_PASSWORD")
		e.Field = "password"
		return e
	}

	switch {
	case errors.Is(err, ErrDuplicateIngredient):
		return NewAppError(err, "ingredients must be unique", http.StatusBadRequest, "DUPLICATE_INGREDIENT")
	case errors.Is(err, ErrIngredientNotFound):
		return NewAppError(err, "ingredient does not exist", http.StatusBadRequest, "INGREDIENT_NOT_FOUND")
	case errors.Is(err, ErrSelfSubscription):
		return NewAppError(err, "you cannot subscribe to yourself", http.StatusBadRequest, "SELF_SUBSCRIPTION")
	case errors.Is(err, ErrNoOpChange):
		return NewAppError(err, "new password must differ from the current one", http.StatusBadRequest, "NO_OP_CHANGE")
	case errors.Is(err, ErrWeakPassword):
		return NewAppError(err, "password is too weak", http.StatusBadRequest, "WEAK_PASSWORD")
	case errors.Is(err, ErrInvalidCredentials):
		return NewAppError(err, "invalid credentials", http.StatusBadRequest, "INVALID_CREDENTIALS")
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return NewAppError(err, "invalid input", http.StatusBadRequest, "VALIDATION_ERROR")
	case errors.Is(err, ErrAlreadyExists):
		return NewAppError(err, "already exists", http.StatusBadRequest, "ALREADY_EXISTS")
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, "not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrConflict):
		return NewAppError(err, "conflicting state", http.StatusConflict, "CONFLICT")
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("")
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	}

	return NewAppError(err, "internal server error", http.StatusInternalServerError, "INTERNAL_ERROR")
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

func IsDuplicateKeyError(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func IsCheckViolation(err error) bool {
	return pgErrorCode(err) == pgCheckViolation
}

// MapStoreError translates constraint violations the repositories did not
// anticipate into the generic taxonomy.
func MapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, ErrDuplicateKey)
	case pgForeignKeyViolation:
		return fmt.Errorf("%s: referenced row missing: %w", op, ErrNotFound)
	case pgCheckViolation:
		return fmt.Errorf("%s: check constraint: %w", op, ErrValidation)
	case pgInvalidText:
		return fmt.Errorf("%s: malformed id: %w", op, ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
