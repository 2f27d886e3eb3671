package service

import "github.com/google/uuid"

// newID returns a time-ordered identifier with the given prefix.
func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return prefix + uuid.NewString()
	}
	return prefix + id.String()
}
