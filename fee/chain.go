package fee

import (
	"fmt"
	"strconv"
	"strings"
)

// ChainID identifies an EVM chain by its EIP-155 chain id.
type ChainID uint64

// Known chains.
const (
	Mainnet         ChainID = 1
	Optimism        ChainID = 10
	BSC             ChainID = 56
	Polygon         ChainID = 137
	Base            ChainID = 8453
	Arbitrum        ChainID = 42161
	Avalanche       ChainID = 43114
	Zora            ChainID = 7777777
	Sepolia         ChainID = 11155111
	OptimismSepolia ChainID = 11155420
	BaseSepolia     ChainID = 84532
	ZoraSepolia     ChainID = 999999999
)

var chainNames = map[ChainID]string{
	Mainnet:         "mainnet",
	Optimism:        "optimism",
	BSC:             "bsc",
	Polygon:         "polygon",
	Base:            "base",
	Arbitrum:        "arbitrum",
	Avalanche:       "avalanche",
	Zora:            "zora",
	Sepolia:         "sepolia",
	OptimismSepolia: "optimism-sepolia",
	BaseSepolia:     "base-sepolia",
	ZoraSepolia:     "zora-sepolia",
}

// String returns the chain name, or the decimal id for unknown chains.
func (c ChainID) String() string {
	if name, ok := chainNames[c]; ok {
		return name
	}
	return strconv.FormatUint(uint64(c), 10)
}

// ParseChainID parses a chain name, a decimal id or a 0x-prefixed hex id.
func ParseChainID(s string) (ChainID, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for id, name := range chainNames {
		if name == s {
			return id, nil
		}
	}
	base := 10
	if strings.HasPrefix(s, "0x") {
		s, base = s[2:], 16
	}
	n, err := strconv.ParseUint(s, base, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChainID, s)
	}
	return ChainID(n), nil
}

// Gate reports whether a chain requires the L1 security fee. It must be pure
// and perform no I/O.
type Gate func(ChainID) bool

// l1FeeChains are OP-stack rollups that post transaction data to Ethereum.
var l1FeeChains = map[ChainID]struct{}{
	Optimism:        {},
	Base:            {},
	Zora:            {},
	OptimismSepolia: {},
	BaseSepolia:     {},
	ZoraSepolia:     {},
}

// NeedsL1SecurityFee is the default Gate.
func NeedsL1SecurityFee(id ChainID) bool {
	_, ok := l1FeeChains[id]
	return ok
}

// NewGate returns a Gate that applies to exactly the given chains.
func NewGate(ids ...ChainID) Gate {
	set := make(map[ChainID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id ChainID) bool {
		_, ok := set[id]
		return ok
	}
}
