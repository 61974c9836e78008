// Package id provides UUIDv7 generation for definition identifiers.
// UUIDv7 is time-ordered, allowing natural sorting by creation time.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// ID is a type alias for UUID.
type ID = uuid.UUID

// New generates a new UUIDv7 (time-ordered UUID).
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		return uuid.New()
	}
	return id
}

// NewString returns a fresh identifier in its canonical string form.
// Definitions keep ids as opaque strings so client-supplied ids survive untouched.
func NewString() string {
	return New().String()
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// IsBlank reports whether s carries no identifier.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
