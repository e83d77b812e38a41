package ethrpc

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/resilience"
)

func TestDial_NoEndpoints(t *testing.T) {
	if _, err := Dial(context.Background(), nil); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("err = %v, want ErrNoEndpoints", err)
	}
}

func TestDial_VerifiesChain(t *testing.T) {
	srv := newRPCServer(t, map[string]string{
		"eth_chainId":  "0xa",
		"eth_gasPrice": "0x3b9aca00",
	})
	ctx := context.Background()

	clients, err := Dial(ctx, map[fee.ChainID]string{fee.Optimism: srv.URL})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer clients.Close()

	if got := clients.Chains(); len(got) != 1 || got[0] != fee.Optimism {
		t.Fatalf("Chains() = %v", got)
	}
	price, err := NewPriceProvider(clients).CurrentUnitPrice(ctx, fee.Optimism)
	if err != nil {
		t.Fatalf("CurrentUnitPrice: %v", err)
	}
	if price.Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Errorf("price = %v, want 1 gwei", price)
	}
}

func TestDial_ChainMismatch(t *testing.T) {
	srv := newRPCServer(t, map[string]string{"eth_chainId": "0x1"})

	_, err := Dial(context.Background(), map[fee.ChainID]string{fee.Base: srv.URL})
	if !errors.Is(err, ErrChainMismatch) {
		t.Fatalf("err = %v, want ErrChainMismatch", err)
	}
}

func TestDial_WithoutChainCheck(t *testing.T) {
	srv := newRPCServer(t, map[string]string{"eth_chainId": "0x1"})

	clients, err := Dial(context.Background(), map[fee.ChainID]string{fee.Base: srv.URL}, WithoutChainCheck())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	clients.Close()
}

func TestDial_ChainIDFailureIsTransportError(t *testing.T) {
	srv := newRPCServer(t, nil)

	_, err := Dial(context.Background(), map[fee.ChainID]string{fee.Zora: srv.URL})
	var te *fee.TransportError
	if !errors.As(err, &te) || te.ChainID != fee.Zora || te.Op != "chain id" {
		t.Fatalf("err = %v, want chain id TransportError for zora", err)
	}
}

func TestClients_UnknownChain(t *testing.T) {
	clients := NewClients(map[fee.ChainID]Backend{fee.Optimism: &fakeBackend{}})
	if _, err := clients.Backend(fee.Base); !errors.Is(err, ErrUnknownChain) {
		t.Fatalf("err = %v, want ErrUnknownChain", err)
	}
	if clients.Executor(fee.Base) != nil {
		t.Error("executor for unknown chain")
	}
}

func TestClients_BreakerIsPerChain(t *testing.T) {
	down := &fakeBackend{priceErr: errors.New("503")}
	up := &fakeBackend{price: big.NewInt(7)}
	var transitions []string
	clients := NewClients(map[fee.ChainID]Backend{
		fee.Optimism: down,
		fee.Base:     up,
	}, WithResilience(resilience.Config{
		CircuitBreaker: &resilience.CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Hour,
			OnStateChange: func(from, to resilience.State) {
				transitions = append(transitions, to.String())
			},
		},
	}))
	p := NewPriceProvider(clients)
	ctx := context.Background()

	if _, err := p.CurrentUnitPrice(ctx, fee.Optimism); err == nil {
		t.Fatal("expected failure")
	}
	_, err := p.CurrentUnitPrice(ctx, fee.Optimism)
	if !errors.Is(err, resilience.ErrCircuitOpen) || !fee.IsTransportError(err) {
		t.Fatalf("err = %v, want ErrCircuitOpen wrapped in TransportError", err)
	}
	if down.priceCalls.Load() != 1 {
		t.Errorf("calls to open chain = %d, want 1", down.priceCalls.Load())
	}

	if _, err := p.CurrentUnitPrice(ctx, fee.Base); err != nil {
		t.Fatalf("healthy chain: %v", err)
	}
	if st := clients.Executor(fee.Base).CircuitBreaker().State(); st != resilience.StateClosed {
		t.Errorf("base breaker = %v, want closed", st)
	}
	if len(transitions) != 1 || transitions[0] != "open" {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}
