package secret

import "errors"

// Sentinel errors.
var (
	ErrMissingEnv      = errors.New("secret: missing required environment variables")
	ErrInvalidRef      = errors.New("secret: invalid secret reference")
	ErrUnknownProvider = errors.New("secret: provider is not registered")
	ErrEmptySecret     = errors.New("secret: provider returned empty value")
	ErrNotFound        = errors.New("secret: not found")
)
