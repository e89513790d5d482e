package swap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

const (
	amountDigits = 3
	priceDigits  = 8
	usdDigits    = 2
	timeLayout   = "2006-01-02 15:04:05"

	usdPerEmoji   = 50
	maxSizeEmojis = 40
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// Format renders the notification text for one swap (Telegram Markdown).
func Format(pool domain.PoolConfig, s *domain.ClassifiedSwap) string {
	base := markdownEscaper.Replace(s.BaseSymbol)
	quote := markdownEscaper.Replace(s.QuoteSymbol)

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s %s*\n\n", directionEmoji(s.Direction), s.Direction, base)
	if s.USDValue != nil {
		b.WriteString(sizeRow(s.Direction, *s.USDValue) + "\n\n")
	}
	fmt.Fprintf(&b, "💎 %s %s\n", formatAmount(s.BaseAmount), base)
	fmt.Fprintf(&b, "💰 %s %s\n", formatAmount(s.QuoteAmount), quote)
	switch {
	case s.USDValue != nil && s.ETHValue != nil:
		fmt.Fprintf(&b, "💲 $%s (%s ETH)\n", formatUSD(*s.USDValue), formatAmount(*s.ETHValue))
	case s.ETHValue != nil:
		fmt.Fprintf(&b, "Ξ %s ETH\n", formatAmount(*s.ETHValue))
	}
	if price := Price(s); !price.IsZero() {
		fmt.Fprintf(&b, "💵 %s %s per %s\n", formatPrice(price), quote, base)
	}
	if s.USDValue != nil && s.BaseAmount.IsPositive() {
		fmt.Fprintf(&b, "🏷 $%s per %s\n", formatPrice(s.USDValue.Div(s.BaseAmount)), base)
	}
	fmt.Fprintf(&b, "👤 %s → %s\n", ShortAddress(s.Sender), ShortAddress(s.Recipient))
	fmt.Fprintf(&b, "🔗 [View TX](%s)\n", pool.ExplorerURL(s.TxHash))
	fmt.Fprintf(&b, "⏰ %s", formatTime(s.Timestamp))
	return b.String()
}

// FormatRecent renders a most-recent-first list of swaps with a buy/sell summary.
func FormatRecent(pool domain.PoolConfig, swaps []*domain.ClassifiedSwap) string {
	symbol := markdownEscaper.Replace(pool.BaseToken().Symbol)
	if len(swaps) == 0 {
		return fmt.Sprintf("📊 No %s swaps recorded yet", symbol)
	}

	var buys, sells int
	ethBought, ethSold := decimal.Zero, decimal.Zero
	for _, s := range swaps {
		if s.Direction == domain.DirectionBuy {
			buys++
			if s.ETHValue != nil {
				ethBought = ethBought.Add(*s.ETHValue)
			}
		} else {
			sells++
			if s.ETHValue != nil {
				ethSold = ethSold.Add(*s.ETHValue)
			}
		}
	}
	buyPct := float64(buys) / float64(len(swaps)) * 100

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *LAST %d %s SWAPS*\n\n", len(swaps), symbol)
	fmt.Fprintf(&b, "🟢 *%d Buys* (%.1f%%)\n", buys, buyPct)
	fmt.Fprintf(&b, "🔴 *%d Sells* (%.1f%%)\n", sells, 100-buyPct)
	if !ethBought.IsZero() || !ethSold.IsZero() {
		fmt.Fprintf(&b, "Ξ %s ETH bought / %s ETH sold\n", formatAmount(ethBought), formatAmount(ethSold))
	}
	b.WriteString("\n")

	for i, s := range swaps {
		fmt.Fprintf(&b, "%d. %s %s 💎 %s %s | 💰 %s %s\n",
			i+1,
			directionEmoji(s.Direction),
			s.Direction,
			formatAmount(s.BaseAmount),
			markdownEscaper.Replace(s.BaseSymbol),
			formatAmount(s.QuoteAmount),
			markdownEscaper.Replace(s.QuoteSymbol),
		)
		fmt.Fprintf(&b, "   ⏰ %s | [View TX](%s)\n", formatTime(s.Timestamp), pool.ExplorerURL(s.TxHash))
	}
	return strings.TrimRight(b.String(), "\n")
}

// ShortAddress keeps the first 6 and last 4 hex digits of addr.
func ShortAddress(addr string) string {
	hex := strings.TrimPrefix(addr, "0x")
	prefix := addr[:len(addr)-len(hex)]
	if len(hex) <= 10 {
		return addr
	}
	return prefix + hex[:6] + "..." + hex[len(hex)-4:]
}

// sizeRow repeats the direction's pair of emojis once per usdPerEmoji traded.
func sizeRow(d domain.Direction, usd decimal.Decimal) string {
	pair := [2]string{"🍑", "🍒"}
	if d == domain.DirectionSell {
		pair = [2]string{"🍆", "🍌"}
	}

	n := int(usd.Div(decimal.NewFromInt(usdPerEmoji)).IntPart())
	n = max(1, min(n, maxSizeEmojis))

	var b strings.Builder
	for i := range n {
		b.WriteString(pair[i%2])
	}
	return b.String()
}

func directionEmoji(d domain.Direction) string {
	if d == domain.DirectionBuy {
		return "🟢"
	}
	return "🔴"
}

func formatAmount(d decimal.Decimal) string {
	return humanize.CommafWithDigits(d.InexactFloat64(), amountDigits)
}

func formatPrice(d decimal.Decimal) string {
	return humanize.CommafWithDigits(d.InexactFloat64(), priceDigits)
}

func formatUSD(d decimal.Decimal) string {
	return humanize.CommafWithDigits(d.Round(usdDigits).InexactFloat64(), usdDigits)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout) + " UTC"
}
