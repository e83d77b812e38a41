package fee

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// fakeProvider returns a fixed price per chain and counts calls.
type fakeProvider struct {
	prices map[ChainID]*big.Int
	err    error
	calls  atomic.Int64
	gate   chan struct{} // when non-nil, calls block until it is closed
}

func (p *fakeProvider) CurrentUnitPrice(ctx context.Context, chainID ChainID) (*big.Int, error) {
	p.calls.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	if price, ok := p.prices[chainID]; ok {
		return new(big.Int).Set(price), nil
	}
	return big.NewInt(1), nil
}

// fakeCalculator returns amounts from a table keyed by chain.
type fakeCalculator struct {
	mu      sync.Mutex
	amounts map[ChainID]*big.Int
	err     error
	calls   atomic.Int64
	seen    []TransactionRequest
}

func (c *fakeCalculator) ComputeFee(_ context.Context, chainID ChainID, _ *big.Int, tx TransactionRequest) (*big.Int, error) {
	c.calls.Add(1)
	c.mu.Lock()
	c.seen = append(c.seen, tx)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	amount, ok := c.amounts[chainID]
	if !ok {
		return nil, nil
	}
	return new(big.Int).Set(amount), nil
}

func (c *fakeCalculator) setAmount(chainID ChainID, amount int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.amounts == nil {
		c.amounts = map[ChainID]*big.Int{}
	}
	c.amounts[chainID] = big.NewInt(amount)
}

func testTx() TransactionRequest {
	to := common.HexToAddress("0x4200000000000000000000000000000000000006")
	return TransactionRequest{
		To:    &to,
		Value: (*hexutil.Big)(big.NewInt(1_000_000)),
		Data:  hexutil.Bytes{0xa9, 0x05, 0x9c, 0xbb},
	}
}
