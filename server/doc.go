// Package server exposes a fee.Estimator over HTTP.
//
// Routes, below the /v1 prefix:
//
//	POST   /l1-security-fee        {"chainId":10,"transactionRequest":{...}} -> {"l1Gas":"123"|null}
//	DELETE /l1-security-fee        same body; drops the cached fee
//	GET    /l1-security-fee/watch  websocket; the client sends request frames,
//	                               the server sends one observation frame per result
//
// When an authenticator is configured the routes require a bearer token
// with the fee:read, fee:admin and fee:watch scopes respectively. Health
// probes and /metrics are mounted at the root without authentication.
package server
