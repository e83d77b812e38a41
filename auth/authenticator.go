package auth

import (
	"context"
	"net/http"
)

// Authenticator validates the credentials carried by request headers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: credential problems are reported with the sentinel errors of
//   this package; anything else is an internal failure.
type Authenticator interface {
	Authenticate(ctx context.Context, header http.Header) (*Identity, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, header http.Header) (*Identity, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, header http.Header) (*Identity, error) {
	return f(ctx, header)
}
