// AngelaMos | 2026
// errors_test.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation field", fmt.Errorf("create: %w", NewValidationError("name", "required")), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"weak password", &WeakPasswordError{Reasons: []string{"too short"}}, http.StatusBadRequest, "WEAK_PASSWORD"},
		{"duplicate ingredient", fmt.Errorf("x: %w", ErrDuplicateIngredient), http.StatusBadRequest, "DUPLICATE_INGREDIENT"},
		{"self subscription", ErrSelfSubscription, http.StatusBadRequest, "SELF_SUBSCRIPTION"},
		{"already exists", fmt.Errorf("add favorite: %w", ErrAlreadyExists), http.StatusBadRequest, "ALREADY_EXISTS"},
		{"no-op", ErrNoOpChange, http.StatusBadRequest, "NO_OP_CHANGE"},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"revoked", ErrTokenRevoked, http.StatusUnauthorized, "TOKEN_REVOKED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ToAppError(tt.err)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestToAppError_CarriesField(t *testing.T) {
	appErr := ToAppError(NewValidationError("tags", "tag t9 does not exist"))
	assert.Equal(t, "tags", appErr.Field)
	assert.Equal(t, "tag t9 does not exist", appErr.Message)
}

func TestMapStoreError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	fk := &pgconn.PgError{Code: "23503"}
	check := &pgconn.PgError{Code: "23514"}

	assert.True(t, IsDuplicateKeyError(fmt.Errorf("insert: %w", unique)))
	assert.True(t, IsCheckViolation(check))

	assert.ErrorIs(t, MapStoreError("insert", unique), ErrDuplicateKey)
	assert.ErrorIs(t, MapStoreError("insert", unique), ErrConflict)
	assert.ErrorIs(t, MapStoreError("insert", fk), ErrNotFound)
	assert.ErrorIs(t, MapStoreError("insert", check), ErrValidation)
	assert.ErrorIs(t, MapStoreError("get", &pgconn.PgError{Code: "22P02"}), ErrNotFound)
	assert.NoError(t, MapStoreError("insert", nil))
}

func TestUUIDsOnly(t *testing.T) {
	good := "3f2504e0-4f89-41d3-9a0c-0305e82c3301"

	assert.True(t, IsUUID(good))
	assert.False(t, IsUUID("abc"))
	assert.False(t, IsUUID(""))
	assert.Equal(t, []string{good}, UUIDsOnly([]string{"abc", good, "i-egg"}))
	assert.Empty(t, UUIDsOnly([]string{"1; DROP"}))
}
