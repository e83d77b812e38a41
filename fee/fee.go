package fee

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Fee is an L1 security fee in wei, or the "no fee" sentinel for chains
// that do not charge one. The zero value is the sentinel.
//
// A Fee is immutable; accessors return copies.
type Fee struct {
	amount *uint256.Int
}

// NoFee returns the "not applicable" sentinel. It is distinct from ZeroFee.
func NoFee() Fee { return Fee{} }

// ZeroFee returns an applicable fee of zero wei.
func ZeroFee() Fee { return Fee{amount: new(uint256.Int)} }

// FromUint64 returns an applicable fee of n wei.
func FromUint64(n uint64) Fee { return Fee{amount: uint256.NewInt(n)} }

// NewFee converts a big integer amount. Nil yields NoFee.
func NewFee(v *big.Int) (Fee, error) {
	if v == nil {
		return NoFee(), nil
	}
	if v.Sign() < 0 {
		return Fee{}, fmt.Errorf("%w: %s", ErrNegativeAmount, v)
	}
	amount, overflow := uint256.FromBig(v)
	if overflow {
		return Fee{}, fmt.Errorf("%w: %s", ErrAmountOverflow, v)
	}
	return Fee{amount: amount}, nil
}

// ParseFee parses a decimal or 0x-prefixed hex amount.
func ParseFee(s string) (Fee, error) {
	s = strings.TrimSpace(s)
	var (
		amount *uint256.Int
		err    error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		amount, err = uint256.FromHex(s)
	} else {
		amount, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return Fee{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return Fee{amount: amount}, nil
}

// Applicable reports whether f carries an amount.
func (f Fee) Applicable() bool { return f.amount != nil }

// IsZero reports whether f is an applicable fee of zero wei.
func (f Fee) IsZero() bool { return f.amount != nil && f.amount.IsZero() }

// Amount returns a copy of the amount, or nil for NoFee.
func (f Fee) Amount() *uint256.Int {
	if f.amount == nil {
		return nil
	}
	return f.amount.Clone()
}

// Wei returns the amount as a big integer, or nil for NoFee.
func (f Fee) Wei() *big.Int {
	if f.amount == nil {
		return nil
	}
	return f.amount.ToBig()
}

// String returns the decimal amount, or "none" for NoFee.
func (f Fee) String() string {
	if f.amount == nil {
		return "none"
	}
	return f.amount.Dec()
}

// Equal reports whether f and other are both NoFee or carry equal amounts.
func (f Fee) Equal(other Fee) bool {
	if f.amount == nil || other.amount == nil {
		return f.amount == nil && other.amount == nil
	}
	return f.amount.Eq(other.amount)
}

// MarshalJSON encodes NoFee as null and amounts as decimal strings.
func (f Fee) MarshalJSON() ([]byte, error) {
	if f.amount == nil {
		return []byte("null"), nil
	}
	return json.Marshal(f.amount.Dec())
}

// UnmarshalJSON accepts null, a decimal or hex string, or a bare number.
func (f *Fee) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = NoFee()
		return nil
	}

	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}

	parsed, err := ParseFee(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
