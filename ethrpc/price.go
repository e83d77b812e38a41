package ethrpc

import (
	"context"
	"math/big"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/l1fee/fee"
)

// PriceProvider implements fee.PriceProvider with eth_gasPrice.
type PriceProvider struct {
	clients *Clients
	group   singleflight.Group
}

var _ fee.PriceProvider = (*PriceProvider)(nil)

const opSuggestGasPrice = "suggest gas price"

// NewPriceProvider creates a PriceProvider over clients.
func NewPriceProvider(clients *Clients) *PriceProvider {
	return &PriceProvider{clients: clients}
}

// CurrentUnitPrice returns the suggested gas price of chainID. Concurrent
// calls for the same chain share one RPC round trip. The shared call runs
// detached from every caller's cancellation and is bounded by the chain's
// resilience timeout; a caller whose ctx ends stops waiting on its own.
func (p *PriceProvider) CurrentUnitPrice(ctx context.Context, chainID fee.ChainID) (*big.Int, error) {
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(strconv.FormatUint(uint64(chainID), 10), func() (any, error) {
		return call(shared, p.clients, chainID, opSuggestGasPrice, func(ctx context.Context, b Backend) (*big.Int, error) {
			return b.SuggestGasPrice(ctx)
		})
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, &fee.TransportError{ChainID: chainID, Op: opSuggestGasPrice, Err: ctx.Err()}
	}
	if res.Err != nil {
		return nil, res.Err
	}
	price, _ := res.Val.(*big.Int)
	if price == nil {
		return nil, nil
	}
	// Shared callers must not alias one another's result.
	return new(big.Int).Set(price), nil
}
