package auth

import (
	"slices"
	"time"
)

// Identity is an authenticated caller.
type Identity struct {
	// Subject is the sub claim.
	Subject string

	// Scopes are the granted scopes.
	Scopes []string

	// Claims holds every claim of the token.
	Claims map[string]any

	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasScope reports whether the identity was granted scope.
func (id *Identity) HasScope(scope string) bool {
	return id != nil && slices.Contains(id.Scopes, scope)
}

// IsExpired reports whether the identity expired at now.
func (id *Identity) IsExpired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && now.After(id.ExpiresAt)
}
