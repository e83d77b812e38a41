package ethrpc

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/jonwraymond/l1fee/fee"
)

// GasPriceOracleAddress is the OP-stack GasPriceOracle predeploy.
var GasPriceOracleAddress = common.HexToAddress("0x420000000000000000000000000000000000000F")

const getL1FeeMethod = "getL1Fee"

const gasPriceOracleABI = `[{"inputs":[{"internalType":"bytes","name":"_data","type":"bytes"}],"name":"getL1Fee","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var oracleABI = mustParseABI(gasPriceOracleABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// OracleCalculator implements fee.Calculator by calling getL1Fee on the
// GasPriceOracle of the target chain.
type OracleCalculator struct {
	clients *Clients
	oracle  common.Address
}

var _ fee.Calculator = (*OracleCalculator)(nil)

// CalculatorOption configures an OracleCalculator.
type CalculatorOption func(*OracleCalculator)

// WithOracleAddress overrides the oracle contract address.
func WithOracleAddress(addr common.Address) CalculatorOption {
	return func(c *OracleCalculator) { c.oracle = addr }
}

// NewOracleCalculator creates an OracleCalculator over clients.
func NewOracleCalculator(clients *Clients, opts ...CalculatorOption) *OracleCalculator {
	c := &OracleCalculator{clients: clients, oracle: GasPriceOracleAddress}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ComputeFee returns the L1 fee of tx priced at unitPrice. An empty
// response yields a nil amount.
func (c *OracleCalculator) ComputeFee(ctx context.Context, chainID fee.ChainID, unitPrice *big.Int, tx fee.TransactionRequest) (*big.Int, error) {
	raw, err := SerializeUnsigned(unitPrice, tx)
	if err != nil {
		return nil, err
	}
	input, err := oracleABI.Pack(getL1FeeMethod, raw)
	if err != nil {
		return nil, fmt.Errorf("ethrpc: pack %s: %w", getL1FeeMethod, err)
	}

	oracle := c.oracle
	out, err := call(ctx, c.clients, chainID, getL1FeeMethod, func(ctx context.Context, b Backend) ([]byte, error) {
		return b.CallContract(ctx, ethereum.CallMsg{To: &oracle, Data: input}, nil)
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	values, err := oracleABI.Unpack(getL1FeeMethod, out)
	if err != nil {
		return nil, fmt.Errorf("ethrpc: unpack %s: %w", getL1FeeMethod, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: %d values", ErrUnexpectedType, len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedType, values[0])
	}
	return amount, nil
}

// SerializeUnsigned encodes tx as an unsigned legacy transaction priced at
// unitPrice, the form the oracle charges calldata for.
func SerializeUnsigned(unitPrice *big.Int, tx fee.TransactionRequest) ([]byte, error) {
	legacy := &types.LegacyTx{
		GasPrice: unitPrice,
		To:       tx.To,
		Data:     tx.Data,
	}
	if tx.Nonce != nil {
		legacy.Nonce = uint64(*tx.Nonce)
	}
	if tx.Gas != nil {
		legacy.Gas = uint64(*tx.Gas)
	}
	if tx.Value != nil {
		legacy.Value = tx.Value.ToInt()
	}
	raw, err := types.NewTx(legacy).MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("ethrpc: serialize transaction: %w", err)
	}
	return raw, nil
}
