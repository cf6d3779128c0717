// AngelaMos | 2026
// password.go

package core

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const MinPasswordLength = 8

var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"sunshine":    {},
	"princess":    {},
	"football":    {},
	"baseball":    {},
	"welcome1":    {},
	"letmein1":    {},
	"trustno1":    {},
	"superman":    {},
	"11111111":    {},
	"00000000":    {},
	"abc12345":    {},
	"passw0rd":    {},
	"admin123":    {},
}

// CheckPasswordStrength applies the password policy. attrs are user
// attributes (username, email, names) the password must not resemble.
func CheckPasswordStrength(password string, attrs ...string) error {
	var reasons []string

	if utf8.RuneCountInString(password) < MinPasswordLength {
		reasons = append(reasons, "password must contain at least 8 characters")
	}

	if isAllDigits(password) {
		reasons = append(reasons, "password cannot be entirely numeric")
	}

	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		reasons = append(reasons, "password is too common")
	}

	if resemblesAttribute(password, attrs) {
		reasons = append(reasons, "password is too similar to your personal information")
	}

	if len(reasons) > 0 {
		return &WeakPasswordError{Reasons: reasons}
	}

	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func resemblesAttribute(password string, attrs []string) bool {
	lower := strings.ToLower(password)

	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if local, _, ok := strings.Cut(attr, "@"); ok {
			attr = local
		}
		if utf8.RuneCountInString(attr) < 3 {
			continue
		}
		if strings.Contains(lower, attr) || strings.Contains(attr, lower) {
			return true
		}
	}

	return false
}
