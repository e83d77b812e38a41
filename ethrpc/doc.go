// Package ethrpc implements the fee collaborators on top of go-ethereum.
//
// [Clients] holds one RPC backend per chain, each guarded by its own
// [resilience.Executor] so a failing endpoint trips only its own breaker.
// [PriceProvider] reads the suggested gas price and collapses concurrent
// reads for the same chain. [OracleCalculator] asks the OP-stack
// GasPriceOracle predeploy for the L1 fee of a serialized transaction.
//
//	clients, err := ethrpc.Dial(ctx, map[fee.ChainID]string{
//		fee.Optimism: "https://mainnet.optimism.io",
//	}, ethrpc.WithResilience(cfg.Resilience))
//	if err != nil {
//		return err
//	}
//	defer clients.Close()
//
//	est, err := fee.NewEstimator(ethrpc.NewPriceProvider(clients), ethrpc.NewOracleCalculator(clients))
package ethrpc
