package domain

import (
	"fmt"
	"strings"
)

type PoolKind string

const (
	PoolKindUniswapV2 PoolKind = "uniswap_v2"
	PoolKindUniswapV3 PoolKind = "uniswap_v3"
)

// TokenSide selects token0 or token1 of a pair.
type TokenSide string

const (
	Token0 TokenSide = "token0"
	Token1 TokenSide = "token1"
)

// TokenMeta describes one leg of a pool.
type TokenMeta struct {
	Symbol        string `yaml:"symbol"         json:"symbol"`
	Address       string `yaml:"address"        json:"address"`
	Decimals      int32  `yaml:"decimals"       json:"decimals"`
	WrappedNative bool   `yaml:"wrapped_native" json:"wrapped_native"`
}

// PoolConfig is the static description of a watched pool.
// It is copied into each monitor and never mutated afterwards.
type PoolConfig struct {
	ID            string    `yaml:"id"              json:"id"`
	Network       ChainID   `yaml:"network"         json:"network"`
	Address       string    `yaml:"address"         json:"address"`
	Kind          PoolKind  `yaml:"kind"            json:"kind"`
	Base          TokenSide `yaml:"base"            json:"base"`
	Token0        TokenMeta `yaml:"token0"          json:"token0"`
	Token1        TokenMeta `yaml:"token1"          json:"token1"`
	ExplorerTxURL string    `yaml:"explorer_tx_url" json:"explorer_tx_url"`
}

// BaseToken returns the tracked token.
func (p PoolConfig) BaseToken() TokenMeta {
	if p.Base == Token1 {
		return p.Token1
	}
	return p.Token0
}

// QuoteToken returns the counter token.
func (p PoolConfig) QuoteToken() TokenMeta {
	if p.Base == Token1 {
		return p.Token0
	}
	return p.Token1
}

// ExplorerURL builds the transaction link for txHash.
// A "{tx}" placeholder in the template is substituted, otherwise "/tx/<hash>" is appended.
func (p PoolConfig) ExplorerURL(txHash string) string {
	if strings.Contains(p.ExplorerTxURL, "{tx}") {
		return strings.ReplaceAll(p.ExplorerTxURL, "{tx}", txHash)
	}
	return fmt.Sprintf("%s/tx/%s", strings.TrimRight(p.ExplorerTxURL, "/"), txHash)
}

// IsQuoteWrappedNative reports whether the quote leg is the network's wrapped native token.
func (p PoolConfig) IsQuoteWrappedNative() bool {
	q := p.QuoteToken()
	return q.WrappedNative || IsWrappedNative(p.Network, q.Address)
}

// IsBaseWrappedNative reports whether the base leg is the network's wrapped native token.
func (p PoolConfig) IsBaseWrappedNative() bool {
	b := p.BaseToken()
	return b.WrappedNative || IsWrappedNative(p.Network, b.Address)
}
