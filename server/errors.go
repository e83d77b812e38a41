package server

import "errors"

// Sentinel errors.
var (
	ErrNilEstimator = errors.New("server: estimator is nil")
	ErrMissingChain = errors.New("server: chainId is required")
)
