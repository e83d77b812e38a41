package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/l1fee/observe"
)

// RequireAuth rejects requests that a does not authenticate and stores the
// identity in the request context. Its signature matches mux.MiddlewareFunc.
func RequireAuth(a Authenticator, logger observe.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Authenticate(r.Context(), r.Header)
			if err != nil {
				status := http.StatusUnauthorized
				if !isCredentialError(err) {
					status = http.StatusInternalServerError
					logger.Error(r.Context(), "authentication failed", observe.F("error", err), observe.F("path", r.URL.Path))
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="l1fee"`)
				writeError(w, status, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireScope rejects authenticated requests lacking scope.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFromContext(r.Context()).HasScope(scope) {
				writeError(w, http.StatusForbidden, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
