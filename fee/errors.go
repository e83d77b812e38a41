package fee

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrInvalidChainID   = errors.New("fee: invalid chain id")
	ErrNegativeAmount   = errors.New("fee: amount is negative")
	ErrAmountOverflow   = errors.New("fee: amount exceeds 256 bits")
	ErrInvalidAmount    = errors.New("fee: invalid amount")
	ErrNilProvider      = errors.New("fee: price provider is nil")
	ErrNilCalculator    = errors.New("fee: calculator is nil")
	ErrMissingUnitPrice = errors.New("fee: provider returned no unit price")
)

// TransportError reports a failed call to an external collaborator, such as
// an unreachable or rate-limited RPC endpoint.
type TransportError struct {
	ChainID ChainID
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fee: %s on chain %s: %v", e.Op, e.ChainID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
