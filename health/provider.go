package health

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/l1fee/fee"
)

// ProviderChecker asks a price provider for the unit price of every chain.
// It bypasses the computation cache so the probe reflects the endpoint.
type ProviderChecker struct {
	provider fee.PriceProvider
	chains   []fee.ChainID
}

// NewProviderChecker creates a ProviderChecker for chains.
func NewProviderChecker(provider fee.PriceProvider, chains []fee.ChainID) *ProviderChecker {
	return &ProviderChecker{provider: provider, chains: append([]fee.ChainID(nil), chains...)}
}

// Name returns "price_provider".
func (p *ProviderChecker) Name() string { return "price_provider" }

// Check is healthy when every chain answers, degraded when some do and
// unhealthy when none do.
func (p *ProviderChecker) Check(ctx context.Context) Result {
	if len(p.chains) == 0 {
		return Unhealthy("no chains configured", ErrNoChains)
	}

	var (
		mu      sync.Mutex
		details = make(map[string]any, len(p.chains))
		failed  []error
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range p.chains {
		g.Go(func() error {
			price, err := p.provider.CurrentUnitPrice(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				details[id.String()] = err.Error()
				failed = append(failed, err)
			case price == nil:
				details[id.String()] = "no price"
				failed = append(failed, fmt.Errorf("%s: %w", id, fee.ErrMissingUnitPrice))
			default:
				details[id.String()] = price.String()
			}
			return nil
		})
	}
	_ = g.Wait()

	switch {
	case len(failed) == 0:
		return Healthy(fmt.Sprintf("%d chains reachable", len(p.chains))).WithDetails(details)
	case len(failed) < len(p.chains):
		return Degraded(fmt.Sprintf("%d of %d chains unreachable", len(failed), len(p.chains))).WithDetails(details)
	default:
		return Unhealthy("no chain reachable", failed[0]).WithDetails(details)
	}
}
