// Package auth authenticates callers of the fee service with JWT bearer
// tokens.
//
// [JWTAuthenticator] validates an HMAC-signed token (issuer, audience,
// expiry) and turns its claims into an [Identity]. [RequireAuth] is HTTP
// middleware that rejects requests without a valid token and stores the
// identity in the request context; [RequireScope] additionally checks one
// scope, for example "fee:watch" on the streaming endpoint.
package auth
