package account

import (
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// NewID returns a time-ordered identifier. V7 ids sort by creation time,
// which keeps index pages warm for recent accounts and requests.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the entropy source does; fall back to v4
		// rather than propagating an error through every call site.
		return uuid.New()
	}
	return id
}

// DeterministicID derives a stable id from an identifier such as an email
// address. Used when callers want idempotent registration ids.
func DeterministicID(identifier string) (uuid.UUID, error) {
	return hashid.NewUUID(identifier)
}

// ParseID parses a textual account id.
func ParseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
