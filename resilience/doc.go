// Package resilience guards calls to upstream RPC endpoints.
//
// Each pattern works on a func(context.Context) error and can be used on its
// own or composed by an Executor:
//
//   - RateLimiter: token bucket that rejects or delays calls over budget.
//   - CircuitBreaker: stops calling an endpoint after repeated failures and
//     probes it again after a cool-down.
//   - Retry: retries transient failures in the foreground with backoff.
//   - Timeout: bounds each attempt.
//
// Executors are usually built from a Config loaded with the rest of the
// service configuration:
//
//	exec := resilience.NewExecutorFromConfig(resilience.Config{
//	    Timeout: 5 * time.Second,
//	    Retry:   &resilience.RetryConfig{MaxAttempts: 2},
//	})
//	price, err := resilience.Do(ctx, exec, func(ctx context.Context) (*big.Int, error) {
//	    return client.SuggestGasPrice(ctx)
//	})
//
// Nothing here retries in the background: every attempt happens inside the
// caller's Execute.
package resilience
