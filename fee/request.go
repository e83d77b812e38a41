package fee

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransactionRequest is a pending transaction as submitted by a wallet.
// Fields use go-ethereum's JSON encodings so two equal requests always
// serialize identically.
type TransactionRequest struct {
	From     *common.Address `json:"from,omitempty"`
	To       *common.Address `json:"to,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Nonce    *hexutil.Uint64 `json:"nonce,omitempty"`
}

// normalized returns tx with zero-valued numeric fields and empty data
// cleared, so a request that spells out a zero and one that omits it build
// the same key. The serialized transaction treats both alike.
func (tx TransactionRequest) normalized() TransactionRequest {
	if tx.Value != nil && tx.Value.ToInt().Sign() == 0 {
		tx.Value = nil
	}
	if tx.GasPrice != nil && tx.GasPrice.ToInt().Sign() == 0 {
		tx.GasPrice = nil
	}
	if tx.Gas != nil && *tx.Gas == 0 {
		tx.Gas = nil
	}
	if tx.Nonce != nil && *tx.Nonce == 0 {
		tx.Nonce = nil
	}
	if len(tx.Data) == 0 {
		tx.Data = nil
	}
	return tx
}

// Args are the inputs of one fee estimate.
type Args struct {
	TransactionRequest TransactionRequest `json:"transactionRequest"`
	ChainID            ChainID            `json:"chainId"`
}
