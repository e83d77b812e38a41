package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/l1fee/ethrpc"
	"github.com/jonwraymond/l1fee/fee"
	"github.com/jonwraymond/l1fee/resilience"
	"github.com/jonwraymond/l1fee/server"
)

var errMissingRPC = errors.New("--rpc is required")

type quoteFlags struct {
	rpc        string
	chain      string
	from       string
	to         string
	data       string
	value      string
	oracle     string
	timeout    time.Duration
	noCheck    bool
	jsonOutput bool
}

func (c *CLI) newQuoteCmd() *cobra.Command {
	var f quoteFlags
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Estimate the L1 security fee of one transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.quote(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.rpc, "rpc", "", "JSON-RPC endpoint of the chain")
	fl.StringVar(&f.chain, "chain", "optimism", "chain name or id")
	fl.StringVar(&f.from, "from", "", "sender address")
	fl.StringVar(&f.to, "to", "", "recipient address")
	fl.StringVar(&f.data, "data", "", "hex calldata")
	fl.StringVar(&f.value, "value", "", "value in wei, decimal or 0x-hex")
	fl.StringVar(&f.oracle, "oracle", "", "GasPriceOracle address override")
	fl.DurationVar(&f.timeout, "timeout", 10*time.Second, "per-call RPC timeout")
	fl.BoolVar(&f.noCheck, "no-chain-check", false, "skip eth_chainId verification")
	fl.BoolVar(&f.jsonOutput, "json", false, "print the estimate as JSON")
	return cmd
}

func (c *CLI) quote(ctx context.Context, f quoteFlags) error {
	if f.rpc == "" {
		return errMissingRPC
	}
	args, err := f.args()
	if err != nil {
		return err
	}
	var oracle common.Address
	if f.oracle != "" {
		if oracle, err = parseAddress("oracle", f.oracle); err != nil {
			return err
		}
	}

	opts := []ethrpc.Option{ethrpc.WithResilience(resilience.Config{Timeout: f.timeout})}
	if f.noCheck {
		opts = append(opts, ethrpc.WithoutChainCheck())
	}
	clients, err := ethrpc.Dial(ctx, map[fee.ChainID]string{args.ChainID: f.rpc}, opts...)
	if err != nil {
		return err
	}
	defer clients.Close()

	provider, calc := newPricing(clients, oracle)
	est, err := fee.NewEstimator(provider, calc)
	if err != nil {
		return err
	}
	amount, err := est.Fetch(ctx, args)
	if err != nil {
		return err
	}

	if f.jsonOutput {
		return json.NewEncoder(c.out).Encode(server.EstimateResponse{L1Gas: amount})
	}
	if !amount.Applicable() {
		_, err = fmt.Fprintf(c.out, "%s does not charge an L1 security fee\n", args.ChainID)
		return err
	}
	_, err = fmt.Fprintf(c.out, "%s wei\n", amount)
	return err
}

func (f quoteFlags) args() (fee.Args, error) {
	id, err := fee.ParseChainID(f.chain)
	if err != nil {
		return fee.Args{}, err
	}
	var tx fee.TransactionRequest
	if f.from != "" {
		addr, err := parseAddress("from", f.from)
		if err != nil {
			return fee.Args{}, err
		}
		tx.From = &addr
	}
	if f.to != "" {
		addr, err := parseAddress("to", f.to)
		if err != nil {
			return fee.Args{}, err
		}
		tx.To = &addr
	}
	if f.data != "" {
		data, err := hexutil.Decode(f.data)
		if err != nil {
			return fee.Args{}, fmt.Errorf("--data: %w", err)
		}
		tx.Data = data
	}
	if f.value != "" {
		v, ok := new(big.Int).SetString(f.value, 0)
		if !ok || v.Sign() < 0 {
			return fee.Args{}, fmt.Errorf("--value: invalid amount %q", f.value)
		}
		tx.Value = (*hexutil.Big)(v)
	}
	return fee.Args{TransactionRequest: tx, ChainID: id}, nil
}

func parseAddress(flag, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", flag, s)
	}
	return common.HexToAddress(s), nil
}
