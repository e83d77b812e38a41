package fee

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jonwraymond/l1fee/cache"
)

// Cache key identity of the L1 security fee computation.
const (
	Namespace = "optimismL1SecurityFee"

	// KeyVersion is bumped whenever the meaning or encoding of a cached Fee
	// changes. Entries built under another version become unreachable.
	KeyVersion = 1
)

const (
	fieldChainID     = "chainId"
	fieldTransaction = "transactionRequest"
)

// PriceProvider supplies the current unit price for settlement gas.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: transport and rate-limit failures are returned, never hidden.
type PriceProvider interface {
	CurrentUnitPrice(ctx context.Context, chainID ChainID) (*big.Int, error)
}

// Calculator converts a unit price and a pending transaction into a fee.
// A nil amount with a nil error means the calculation produced no result.
type Calculator interface {
	ComputeFee(ctx context.Context, chainID ChainID, unitPrice *big.Int, tx TransactionRequest) (*big.Int, error)
}

// PriceProviderFunc adapts a function to PriceProvider.
type PriceProviderFunc func(ctx context.Context, chainID ChainID) (*big.Int, error)

// CurrentUnitPrice calls f.
func (f PriceProviderFunc) CurrentUnitPrice(ctx context.Context, chainID ChainID) (*big.Int, error) {
	return f(ctx, chainID)
}

// CalculatorFunc adapts a function to Calculator.
type CalculatorFunc func(ctx context.Context, chainID ChainID, unitPrice *big.Int, tx TransactionRequest) (*big.Int, error)

// ComputeFee calls f.
func (f CalculatorFunc) ComputeFee(ctx context.Context, chainID ChainID, unitPrice *big.Int, tx TransactionRequest) (*big.Int, error) {
	return f(ctx, chainID, unitPrice, tx)
}

// QueryKey builds the cache key for args under the given schema version.
// Zero-valued transaction fields are keyed as if omitted.
func QueryKey(args Args, version int) (cache.Key, error) {
	return cache.BuildKey(Namespace, map[string]any{
		fieldChainID:     args.ChainID,
		fieldTransaction: args.TransactionRequest.normalized(),
	}, version)
}

// ArgsFromKey decodes the inputs a key was built from.
func ArgsFromKey(key cache.Key) (Args, error) {
	if key.Namespace() != Namespace {
		return Args{}, fmt.Errorf("%w: namespace %q", cache.ErrInvalidKey, key.Namespace())
	}
	var args Args
	if err := key.Field(fieldChainID, &args.ChainID); err != nil {
		return Args{}, err
	}
	if err := key.Field(fieldTransaction, &args.TransactionRequest); err != nil {
		return Args{}, err
	}
	return args, nil
}

// Compute returns the cache computation for L1 security fees. The inputs
// are decoded from the key, so the function is shared by every key.
func Compute(gate Gate, provider PriceProvider, calc Calculator) cache.ComputeFunc[Fee] {
	if gate == nil {
		gate = NeedsL1SecurityFee
	}
	return func(ctx context.Context, key cache.Key) (Fee, error) {
		args, err := ArgsFromKey(key)
		if err != nil {
			return Fee{}, err
		}
		return estimate(ctx, gate, provider, calc, args)
	}
}

// estimate consults the gate and, when it applies, the provider and the
// calculator. An absent calculation result becomes ZeroFee.
func estimate(ctx context.Context, gate Gate, provider PriceProvider, calc Calculator, args Args) (Fee, error) {
	if !gate(args.ChainID) {
		return NoFee(), nil
	}
	if provider == nil {
		return Fee{}, ErrNilProvider
	}
	if calc == nil {
		return Fee{}, ErrNilCalculator
	}

	price, err := provider.CurrentUnitPrice(ctx, args.ChainID)
	if err != nil {
		return Fee{}, asTransportError(args.ChainID, "current unit price", err)
	}
	if price == nil {
		return Fee{}, ErrMissingUnitPrice
	}

	amount, err := calc.ComputeFee(ctx, args.ChainID, price, args.TransactionRequest)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return Fee{}, err
		}
		return Fee{}, fmt.Errorf("fee: compute fee: %w", err)
	}
	if amount == nil {
		return ZeroFee(), nil
	}
	return NewFee(amount)
}

func asTransportError(chainID ChainID, op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{ChainID: chainID, Op: op, Err: err}
}
