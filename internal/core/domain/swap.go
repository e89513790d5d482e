package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// TxID identifies a single swap log. A transaction can carry several
// swaps against the same pool, so the log index is part of the identity.
type TxID struct {
	TxHash   string
	LogIndex uint
}

func (id TxID) String() string {
	return fmt.Sprintf("%s:%d", id.TxHash, id.LogIndex)
}

// SwapRecord is a decoded swap with unsigned per-token flows as seen by the pool.
type SwapRecord struct {
	TxHash      string
	BlockNumber uint64
	LogIndex    uint
	Sender      string
	Recipient   string
	Amount0In   *big.Int
	Amount1In   *big.Int
	Amount0Out  *big.Int
	Amount1Out  *big.Int
	Timestamp   time.Time
}

func (s *SwapRecord) ID() TxID {
	return TxID{TxHash: s.TxHash, LogIndex: s.LogIndex}
}

// ClassifiedSwap is a SwapRecord with direction and display amounts.
type ClassifiedSwap struct {
	SwapRecord

	PoolID      string
	Network     ChainID
	Direction   Direction
	BaseSymbol  string
	QuoteSymbol string
	BaseAmount  decimal.Decimal
	QuoteAmount decimal.Decimal
	// ETHValue is nil unless one leg is the wrapped native token.
	ETHValue *decimal.Decimal
	// USDValue is ETHValue at the ETH/USD rate of processing time, nil when unknown.
	USDValue *decimal.Decimal
}
