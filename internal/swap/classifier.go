package swap

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// Classifier derives direction and display amounts for decoded swaps.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify labels rec as BUY when the base token left the pool and none
// entered it, SELL otherwise.
func (c *Classifier) Classify(pool domain.PoolConfig, rec *domain.SwapRecord) *domain.ClassifiedSwap {
	baseIn, baseOut := rec.Amount0In, rec.Amount0Out
	quoteIn, quoteOut := rec.Amount1In, rec.Amount1Out
	if pool.Base == domain.Token1 {
		baseIn, baseOut = rec.Amount1In, rec.Amount1Out
		quoteIn, quoteOut = rec.Amount0In, rec.Amount0Out
	}

	direction := domain.DirectionSell
	if sign(baseOut) > 0 && sign(baseIn) == 0 {
		direction = domain.DirectionBuy
	}

	base, quote := pool.BaseToken(), pool.QuoteToken()
	out := &domain.ClassifiedSwap{
		SwapRecord:  *rec,
		PoolID:      pool.ID,
		Network:     pool.Network,
		Direction:   direction,
		BaseSymbol:  base.Symbol,
		QuoteSymbol: quote.Symbol,
		BaseAmount:  Scale(netDelta(baseIn, baseOut), base.Decimals),
		QuoteAmount: Scale(netDelta(quoteIn, quoteOut), quote.Decimals),
	}

	switch {
	case pool.IsQuoteWrappedNative():
		v := out.QuoteAmount
		out.ETHValue = &v
	case pool.IsBaseWrappedNative():
		v := out.BaseAmount
		out.ETHValue = &v
	}
	return out
}

// Price returns quote per base, or zero when the base amount is zero.
func Price(s *domain.ClassifiedSwap) decimal.Decimal {
	if s.BaseAmount.IsZero() {
		return decimal.Zero
	}
	return s.QuoteAmount.DivRound(s.BaseAmount, 18)
}

// Scale divides raw by 10^decimals exactly.
func Scale(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// netDelta is |in - out|.
func netDelta(in, out *big.Int) *big.Int {
	d := new(big.Int)
	if in != nil {
		d.Add(d, in)
	}
	if out != nil {
		d.Sub(d, out)
	}
	return d.Abs(d)
}

func sign(v *big.Int) int {
	if v == nil {
		return 0
	}
	return v.Sign()
}
