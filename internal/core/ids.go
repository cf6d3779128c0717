// AngelaMos | 2026
// ids.go

package core

import "github.com/google/uuid"

// IsUUID reports whether id can be bound to a UUID column.
func IsUUID(id string) bool {
	return uuid.Validate(id) == nil
}

// UUIDsOnly drops ids that no UUID column could ever hold, so a lookup
// treats them as unresolved instead of failing the whole query.
func UUIDsOnly(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if IsUUID(id) {
			out = append(out, id)
		}
	}
	return out
}
