// AngelaMos | 2026
// request.go

package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 10 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeAndValidate reads a JSON body into dst and runs its validate tags.
// The returned error is already an *AppError suitable for JSONError.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return NewAppError(
			fmt.Errorf("decode body: %w", ErrInvalidInput),
			"invalid request body",
			http.StatusBadRequest,
			"BAD_REQUEST",
		)
	}

	if err := validate.Struct(dst); err != nil {
		return NewAppError(
			fmt.Errorf("validate body: %w", ErrValidation),
			FormatValidationError(err),
			http.StatusBadRequest,
			"VALIDATION_ERROR",
		)
	}

	return nil
}

func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// QueryIntPtr returns nil when key is absent or not a non-negative integer.
func QueryIntPtr(r *http.Request, key string) *int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return nil
	}

	return &parsed
}

// QueryBool accepts 1/true/yes the way browser filters send them.
func QueryBool(r *http.Request, key string) bool {
	switch r.URL.Query().Get(key) {
	case "1", "true", "True", "yes":
		return true
	}
	return false
}
