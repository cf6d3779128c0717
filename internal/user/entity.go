// AngelaMos | 2026
// entity.go

package user

import (
	"regexp"
	"time"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	TokenVersion int       `db:"token_version"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UsernamePattern accepts letters and digits from any script plus _.@+-.
var UsernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// Usernames that collide with routes under /users.
var reservedUsernames = map[string]struct{}{
	"me":            {},
	"set_password":  {},
	"subscriptions": {},
	"subscribe":     {},
}

func IsReservedUsername(username string) bool {
	_, ok := reservedUsernames[username]
	return ok
}
