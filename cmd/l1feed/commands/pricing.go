package commands

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/jonwraymond/l1fee/ethrpc"
)

// newPricing builds the RPC-backed price provider and oracle calculator. A
// zero oracle address keeps the predeploy.
func newPricing(clients *ethrpc.Clients, oracle common.Address) (*ethrpc.PriceProvider, *ethrpc.OracleCalculator) {
	var opts []ethrpc.CalculatorOption
	if oracle != (common.Address{}) {
		opts = append(opts, ethrpc.WithOracleAddress(oracle))
	}
	return ethrpc.NewPriceProvider(clients), ethrpc.NewOracleCalculator(clients, opts...)
}
