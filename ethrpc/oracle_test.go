package ethrpc

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/jonwraymond/l1fee/fee"
)

func encodeFee(t *testing.T, amount *big.Int) []byte {
	t.Helper()
	out, err := oracleABI.Methods[getL1FeeMethod].Outputs.Pack(amount)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func oracleTx() fee.TransactionRequest {
	to := common.HexToAddress("0x4200000000000000000000000000000000000006")
	nonce := hexutil.Uint64(3)
	gas := hexutil.Uint64(21_000)
	return fee.TransactionRequest{
		To:    &to,
		Value: (*hexutil.Big)(big.NewInt(5)),
		Data:  hexutil.Bytes{0xde, 0xad, 0xbe, 0xef},
		Gas:   &gas,
		Nonce: &nonce,
	}
}

func TestOracleCalculator_ComputeFee(t *testing.T) {
	b := &fakeBackend{}
	b.callOut = encodeFee(t, big.NewInt(123_456))
	calc := NewOracleCalculator(NewClients(map[fee.ChainID]Backend{fee.Optimism: b}))

	tx := oracleTx()
	amount, err := calc.ComputeFee(context.Background(), fee.Optimism, big.NewInt(1_000_000_000), tx)
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	if amount.Int64() != 123_456 {
		t.Errorf("amount = %v, want 123456", amount)
	}

	msg := b.lastCall(t)
	if msg.To == nil || *msg.To != GasPriceOracleAddress {
		t.Fatalf("call target = %v, want oracle predeploy", msg.To)
	}
	method := oracleABI.Methods[getL1FeeMethod]
	if !bytes.HasPrefix(msg.Data, method.ID) {
		t.Fatalf("calldata selector = %x, want %x", msg.Data[:4], method.ID)
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		t.Fatalf("unpack calldata: %v", err)
	}
	raw, ok := args[0].([]byte)
	if !ok {
		t.Fatalf("argument type = %T", args[0])
	}

	var decoded types.Transaction
	if err := decoded.UnmarshalBinary(raw); err != nil {
		t.Fatalf("decode serialized tx: %v", err)
	}
	if decoded.GasPrice().Int64() != 1_000_000_000 {
		t.Errorf("gas price = %v, want unit price", decoded.GasPrice())
	}
	if decoded.Nonce() != 3 || decoded.Gas() != 21_000 || decoded.Value().Int64() != 5 {
		t.Errorf("decoded tx = nonce %d gas %d value %v", decoded.Nonce(), decoded.Gas(), decoded.Value())
	}
	if *decoded.To() != *tx.To || !bytes.Equal(decoded.Data(), tx.Data) {
		t.Errorf("decoded tx to/data mismatch")
	}
}

func TestOracleCalculator_EmptyResultIsAbsent(t *testing.T) {
	calc := NewOracleCalculator(NewClients(map[fee.ChainID]Backend{fee.Base: &fakeBackend{}}))
	amount, err := calc.ComputeFee(context.Background(), fee.Base, big.NewInt(1), fee.TransactionRequest{})
	if err != nil || amount != nil {
		t.Fatalf("got %v, %v; want nil, nil", amount, err)
	}
}

func TestOracleCalculator_CustomAddress(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	b := &fakeBackend{}
	calc := NewOracleCalculator(NewClients(map[fee.ChainID]Backend{fee.Zora: b}), WithOracleAddress(addr))
	if _, err := calc.ComputeFee(context.Background(), fee.Zora, big.NewInt(1), fee.TransactionRequest{}); err != nil {
		t.Fatal(err)
	}
	if got := b.lastCall(t).To; got == nil || *got != addr {
		t.Errorf("call target = %v, want %v", got, addr)
	}
}

func TestOracleCalculator_Errors(t *testing.T) {
	cause := errors.New("execution reverted")
	calc := NewOracleCalculator(NewClients(map[fee.ChainID]Backend{
		fee.Optimism: &fakeBackend{callErr: cause},
		fee.Base:     &fakeBackend{callOut: []byte{0x01, 0x02}},
	}))
	ctx := context.Background()

	_, err := calc.ComputeFee(ctx, fee.Optimism, big.NewInt(1), fee.TransactionRequest{})
	var te *fee.TransportError
	if !errors.As(err, &te) || te.Op != getL1FeeMethod || !errors.Is(err, cause) {
		t.Errorf("call failure err = %v", err)
	}

	if _, err := calc.ComputeFee(ctx, fee.Base, big.NewInt(1), fee.TransactionRequest{}); err == nil || fee.IsTransportError(err) {
		t.Errorf("malformed output err = %v, want decode error", err)
	}

	if _, err := calc.ComputeFee(ctx, fee.Mainnet, big.NewInt(1), fee.TransactionRequest{}); !errors.Is(err, ErrUnknownChain) {
		t.Errorf("unknown chain err = %v", err)
	}
}

func TestSerializeUnsigned_Deterministic(t *testing.T) {
	a, err := SerializeUnsigned(big.NewInt(9), oracleTx())
	if err != nil {
		t.Fatal(err)
	}
	b, err := SerializeUnsigned(big.NewInt(9), oracleTx())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("serialization differs between identical inputs")
	}
	c, _ := SerializeUnsigned(big.NewInt(10), oracleTx())
	if bytes.Equal(a, c) {
		t.Error("unit price does not affect serialization")
	}
}
