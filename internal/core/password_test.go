// AngelaMos | 2026
// password_test.go

package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		attrs    []string
		wantWeak bool
	}{
		{name: "strong", password: "braised-greens-77", attrs: []string{"cook", "cook@example.com"}},
		{name: "too short", password: "a1b2c3", wantWeak: true},
		{name: "all digits", password: "4815162342", wantWeak: true},
		{name: "common", password: "Password123", wantWeak: true},
		{name: "contains username", password: "gordon-2026!", attrs: []string{"gordon"}, wantWeak: true},
		{name: "contains email local part", password: "xx-chef.anna-xx", attrs: []string{"chef.anna@example.com"}, wantWeak: true},
		{name: "short attributes ignored", password: "braised-greens-77", attrs: []string{"br", "77"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordStrength(tt.password, tt.attrs...)
			if !tt.wantWeak {
				assert.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrWeakPassword)
			var weak *WeakPasswordError
			require.True(t, errors.As(err, &weak))
			assert.NotEmpty(t, weak.Reasons)
		})
	}
}

func TestCheckPasswordStrength_CollectsEveryReason(t *testing.T) {
	err := CheckPasswordStrength("1234")

	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.Len(t, weak.Reasons, 2)
}
