package uid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// RequestNumber generates a human-readable exchange request number,
// e.g. "EXR-20260831-7F3A2C". Uniqueness comes from the random suffix.
func RequestNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("EXR-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
