// Package ids mints and validates the ULIDs used as contest primary keys.
package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID = errors.New("invalid ULID")
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID generates a new ULID string for the current time.
func NewULID() (string, error) {
	return NewULIDAt(time.Now())
}

// NewULIDAt generates a ULID whose timestamp component is t. IDs minted in
// the same millisecond stay sortable.
func NewULIDAt(t time.Time) (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsULID reports whether value is a well-formed ULID.
func IsULID(value string) bool {
	return ulidRegex.MatchString(strings.TrimSpace(value))
}

// ValidateULID returns ErrInvalidULID when value is not a ULID.
func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}
