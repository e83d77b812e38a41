package ethrpc

import "errors"

// Sentinel errors.
var (
	ErrUnknownChain   = errors.New("ethrpc: no endpoint configured for chain")
	ErrNoEndpoints    = errors.New("ethrpc: no endpoints configured")
	ErrChainMismatch  = errors.New("ethrpc: endpoint serves a different chain")
	ErrUnexpectedType = errors.New("ethrpc: unexpected oracle return type")
)
