package ethrpc

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/observe"
	"github.com/jonwraymond/l1fee/resilience"
)

// Backend is the subset of an Ethereum JSON-RPC client used here.
// *ethclient.Client satisfies it.
type Backend interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type options struct {
	resilience  resilience.Config
	logger      observe.Logger
	verifyChain bool
}

// Option configures Clients.
type Option func(*options)

// WithResilience guards every call with an executor built from cfg. Each
// chain gets its own breaker and limiter.
func WithResilience(cfg resilience.Config) Option {
	return func(o *options) { o.resilience = cfg }
}

// WithLogger sets the logger for breaker transitions.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithoutChainCheck skips the eth_chainId check in Dial.
func WithoutChainCheck() Option {
	return func(o *options) { o.verifyChain = false }
}

// Clients maps chain IDs to RPC backends.
type Clients struct {
	backends  map[fee.ChainID]Backend
	executors map[fee.ChainID]*resilience.Executor
	closers   []func()
}

// Dial connects to every endpoint and, unless WithoutChainCheck is given,
// verifies that each endpoint serves the chain it is configured for.
func Dial(ctx context.Context, endpoints map[fee.ChainID]string, opts ...Option) (*Clients, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	o := newOptions(opts)

	backends := make(map[fee.ChainID]Backend, len(endpoints))
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for id, url := range endpoints {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			closeAll()
			return nil, &fee.TransportError{ChainID: id, Op: "dial", Err: err}
		}
		closers = append(closers, client.Close)

		if o.verifyChain {
			served, err := client.ChainID(ctx)
			if err != nil {
				closeAll()
				return nil, &fee.TransportError{ChainID: id, Op: "chain id", Err: err}
			}
			if !served.IsUint64() || fee.ChainID(served.Uint64()) != id {
				closeAll()
				return nil, fmt.Errorf("%w: configured %s, endpoint reports %v", ErrChainMismatch, id, served)
			}
		}
		backends[id] = client
	}

	c := newClients(backends, o)
	c.closers = closers
	return c, nil
}

// NewClients wraps existing backends.
func NewClients(backends map[fee.ChainID]Backend, opts ...Option) *Clients {
	return newClients(backends, newOptions(opts))
}

func newOptions(opts []Option) options {
	o := options{logger: observe.NopLogger(), verifyChain: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newClients(backends map[fee.ChainID]Backend, o options) *Clients {
	c := &Clients{
		backends:  make(map[fee.ChainID]Backend, len(backends)),
		executors: make(map[fee.ChainID]*resilience.Executor, len(backends)),
	}
	for id, b := range backends {
		c.backends[id] = b
		c.executors[id] = resilience.NewExecutorFromConfig(chainResilience(id, o))
	}
	return c
}

// chainResilience copies cfg so that breaker transitions are logged with
// the chain they belong to.
func chainResilience(id fee.ChainID, o options) resilience.Config {
	cfg := o.resilience
	if cfg.CircuitBreaker == nil {
		return cfg
	}
	cb := *cfg.CircuitBreaker
	logger := o.logger.With(observe.F("chain", id.String()))
	next := cb.OnStateChange
	cb.OnStateChange = func(from, to resilience.State) {
		logger.Warn(context.Background(), "circuit breaker state changed",
			observe.F("from", from.String()),
			observe.F("to", to.String()))
		if next != nil {
			next(from, to)
		}
	}
	cfg.CircuitBreaker = &cb
	return cfg
}

// Backend returns the backend for id.
func (c *Clients) Backend(id fee.ChainID) (Backend, error) {
	b, ok := c.backends[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}
	return b, nil
}

// Executor returns the resilience executor guarding id, or nil.
func (c *Clients) Executor(id fee.ChainID) *resilience.Executor {
	return c.executors[id]
}

// Chains returns the configured chain IDs in ascending order.
func (c *Clients) Chains() []fee.ChainID {
	ids := make([]fee.ChainID, 0, len(c.backends))
	for id := range c.backends {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Close closes every dialed connection.
func (c *Clients) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
	c.closers = nil
}

// call runs op against the backend of id through its executor. Failures
// are reported as *fee.TransportError.
func call[T any](ctx context.Context, c *Clients, id fee.ChainID, op string, fn func(context.Context, Backend) (T, error)) (T, error) {
	var zero T
	b, err := c.Backend(id)
	if err != nil {
		return zero, err
	}
	v, err := resilience.Do(ctx, c.executors[id], func(ctx context.Context) (T, error) {
		return fn(ctx, b)
	})
	if err != nil {
		return zero, &fee.TransportError{ChainID: id, Op: op, Err: err}
	}
	return v, nil
}
