package domain

import "strings"

type ChainID string

const (
	// Network identifiers used in config and logs
	ChainEthereum ChainID = "ethereum"
	ChainArbitrum ChainID = "arbitrum"

	// Numeric EVM chain ids
	EVMChainIDEthereum uint64 = 1
	EVMChainIDArbitrum uint64 = 42161
)

// WrappedNative maps a network to the address of its wrapped native token.
// Quote legs in this token carry an ETH value in notifications.
var WrappedNative = map[ChainID]string{
	ChainEthereum: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
	ChainArbitrum: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1",
}

// IsWrappedNative reports whether address is the wrapped native token of chain.
func IsWrappedNative(chain ChainID, address string) bool {
	known, ok := WrappedNative[chain]
	if !ok {
		return false
	}
	return strings.EqualFold(known, address)
}
