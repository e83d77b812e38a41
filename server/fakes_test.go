package server

import (
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/l1fee/fee"
)

var errRPC = errors.New("connection refused")

// newTestEstimator prices every chain at 1 gwei and charges price*1000.
func newTestEstimator(t *testing.T, providerErr error) *fee.Estimator {
	t.Helper()
	provider := fee.PriceProviderFunc(func(context.Context, fee.ChainID) (*big.Int, error) {
		if providerErr != nil {
			return nil, providerErr
		}
		return big.NewInt(1_000_000_000), nil
	})
	calc := fee.CalculatorFunc(func(_ context.Context, _ fee.ChainID, price *big.Int, _ fee.TransactionRequest) (*big.Int, error) {
		return new(big.Int).Mul(price, big.NewInt(1000)), nil
	})
	est, err := fee.NewEstimator(provider, calc)
	if err != nil {
		t.Fatal(err)
	}
	return est
}

func newTestServer(t *testing.T, est *fee.Estimator, opts ...Option) *httptest.Server {
	t.Helper()
	s, err := New(est, opts...)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

const (
	optimismBody = `{"chainId":10,"transactionRequest":{"to":"0x00000000000000000000000000000000000000aa","data":"0x1234"}}`
	mainnetBody  = `{"chainId":1,"transactionRequest":{"to":"0x00000000000000000000000000000000000000aa","data":"0x1234"}}`
)
