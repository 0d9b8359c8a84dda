package element

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a time-ordered element identifier: a UUIDv7 whose leading
// 48 bits are a millisecond timestamp, so ids sort lexically in generation
// order. The remaining bits come from crypto/rand.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating element id: %w", err)
	}
	return id.String(), nil
}

// ValidID reports whether s parses as a UUID.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
