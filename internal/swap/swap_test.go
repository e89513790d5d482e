package swap

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

var (
	sender    = common.HexToAddress("0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD")
	recipient = common.HexToAddress("0x1111111254EEB25477B68fb85Ed929f73A960582")
)

func testPool(kind domain.PoolKind) domain.PoolConfig {
	return domain.PoolConfig{
		ID:      "emp-eth",
		Network: domain.ChainEthereum,
		Address: "0xe092769bc1fa5262D4f48353f90890Dcc339BF80",
		Kind:    kind,
		Base:    domain.Token0,
		Token0: domain.TokenMeta{
			Symbol:   "EMP",
			Address:  "0x39D5313C3750140E5042887413bA8AA6145a9bd2",
			Decimals: 18,
		},
		Token1: domain.TokenMeta{
			Symbol:   "WETH",
			Address:  "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			Decimals: 18,
		},
		ExplorerTxURL: "https://etherscan.io",
	}
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func v3Log(t *testing.T, amount0, amount1 *big.Int, block uint64, index uint) types.Log {
	t.Helper()
	data, err := swapV3Event.Inputs.NonIndexed().Pack(
		amount0, amount1, big.NewInt(1<<40), big.NewInt(1_000_000), big.NewInt(-887),
	)
	require.NoError(t, err)
	return types.Log{
		Address:     common.HexToAddress(testPool(domain.PoolKindUniswapV3).Address),
		Topics:      []common.Hash{swapV3Event.ID, common.BytesToHash(sender.Bytes()), common.BytesToHash(recipient.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block))),
		Index:       index,
	}
}

func v2Log(t *testing.T, a0In, a1In, a0Out, a1Out *big.Int) types.Log {
	t.Helper()
	data, err := swapV2Event.Inputs.NonIndexed().Pack(a0In, a1In, a0Out, a1Out)
	require.NoError(t, err)
	return types.Log{
		Topics:      []common.Hash{swapV2Event.ID, common.BytesToHash(sender.Bytes()), common.BytesToHash(recipient.Bytes())},
		Data:        data,
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xabc"),
		Index:       7,
	}
}

func assertBig(t *testing.T, want, got *big.Int) {
	t.Helper()
	require.NotNil(t, got)
	assert.Zero(t, want.Cmp(got), "want %s, got %s", want, got)
}

func TestSwapTopic(t *testing.T) {
	v3, err := SwapTopic(domain.PoolKindUniswapV3)
	require.NoError(t, err)
	assert.Equal(t, "0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67", v3.Hex())

	v2, err := SwapTopic(domain.PoolKindUniswapV2)
	require.NoError(t, err)
	assert.Equal(t, "0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822", v2.Hex())

	_, err = SwapTopic("curve")
	assert.Error(t, err)
}

func TestDecoder_V3(t *testing.T) {
	d := NewDecoder()
	pool := testPool(domain.PoolKindUniswapV3)

	rec, err := d.Decode(pool, v3Log(t, new(big.Int).Neg(eth(100)), eth(2), 97, 3))
	require.NoError(t, err)

	assert.Equal(t, uint64(97), rec.BlockNumber)
	assert.Equal(t, uint(3), rec.LogIndex)
	assert.Equal(t, sender.Hex(), rec.Sender)
	assert.Equal(t, recipient.Hex(), rec.Recipient)
	assert.Equal(t, 0, rec.Amount0In.Sign())
	assertBig(t, eth(100), rec.Amount0Out)
	assertBig(t, eth(2), rec.Amount1In)
	assert.Equal(t, 0, rec.Amount1Out.Sign())
	assert.Equal(t, domain.TxID{TxHash: rec.TxHash, LogIndex: 3}, rec.ID())
}

func TestDecoder_V2(t *testing.T) {
	d := NewDecoder()
	pool := testPool(domain.PoolKindUniswapV2)

	rec, err := d.Decode(pool, v2Log(t, big.NewInt(0), big.NewInt(50), big.NewInt(100), big.NewInt(0)))
	require.NoError(t, err)

	assertBig(t, big.NewInt(0), rec.Amount0In)
	assertBig(t, big.NewInt(50), rec.Amount1In)
	assertBig(t, big.NewInt(100), rec.Amount0Out)
	assertBig(t, big.NewInt(0), rec.Amount1Out)
	assert.Equal(t, uint(7), rec.LogIndex)
}

func TestDecoder_Malformed(t *testing.T) {
	d := NewDecoder()
	pool := testPool(domain.PoolKindUniswapV3)
	good := v3Log(t, eth(1), new(big.Int).Neg(eth(1)), 10, 0)

	tests := []struct {
		name   string
		mutate func(l *types.Log)
		pool   domain.PoolConfig
	}{
		{"wrong signature", func(l *types.Log) { l.Topics[0] = common.HexToHash("0xdead") }, pool},
		{"missing topics", func(l *types.Log) { l.Topics = l.Topics[:1] }, pool},
		{"short data", func(l *types.Log) { l.Data = l.Data[:64] }, pool},
		{"trailing data", func(l *types.Log) { l.Data = append(l.Data, make([]byte, 32)...) }, pool},
		{"v2 log on v3 pool", func(l *types.Log) { *l = v2Log(t, eth(1), eth(0), eth(0), eth(1)) }, pool},
		{"unknown kind", func(l *types.Log) {}, domain.PoolConfig{Kind: "balancer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := good
			l.Topics = append([]common.Hash(nil), good.Topics...)
			l.Data = append([]byte(nil), good.Data...)
			tt.mutate(&l)

			_, err := d.Decode(tt.pool, l)
			assert.ErrorIs(t, err, domain.ErrMalformedEvent)
		})
	}
}

func TestClassifier_Direction(t *testing.T) {
	c := NewClassifier()
	pool := testPool(domain.PoolKindUniswapV2)

	buy := c.Classify(pool, &domain.SwapRecord{
		Amount0In: big.NewInt(0), Amount0Out: big.NewInt(100),
		Amount1In: big.NewInt(7), Amount1Out: big.NewInt(0),
	})
	assert.Equal(t, domain.DirectionBuy, buy.Direction)

	sell := c.Classify(pool, &domain.SwapRecord{
		Amount0In: big.NewInt(50), Amount0Out: big.NewInt(0),
		Amount1In: big.NewInt(0), Amount1Out: big.NewInt(3),
	})
	assert.Equal(t, domain.DirectionSell, sell.Direction)

	// base both in and out is not a clean buy
	mixed := c.Classify(pool, &domain.SwapRecord{
		Amount0In: big.NewInt(10), Amount0Out: big.NewInt(100),
		Amount1In: big.NewInt(0), Amount1Out: big.NewInt(0),
	})
	assert.Equal(t, domain.DirectionSell, mixed.Direction)
}

func TestClassifier_BaseToken1(t *testing.T) {
	c := NewClassifier()
	pool := testPool(domain.PoolKindUniswapV3)
	pool.Base = domain.Token1
	pool.Token0, pool.Token1 = pool.Token1, pool.Token0

	// token1 (EMP) leaves the pool
	got := c.Classify(pool, &domain.SwapRecord{
		Amount0In: eth(1), Amount0Out: big.NewInt(0),
		Amount1In: big.NewInt(0), Amount1Out: eth(2500),
	})

	assert.Equal(t, domain.DirectionBuy, got.Direction)
	assert.Equal(t, "EMP", got.BaseSymbol)
	assert.Equal(t, "WETH", got.QuoteSymbol)
	assert.True(t, got.BaseAmount.Equal(decimal.NewFromInt(2500)))
	assert.True(t, got.QuoteAmount.Equal(decimal.NewFromInt(1)))
	require.NotNil(t, got.ETHValue)
	assert.True(t, got.ETHValue.Equal(decimal.NewFromInt(1)))
}

func TestClassifier_ScalingAndETHValue(t *testing.T) {
	c := NewClassifier()
	pool := testPool(domain.PoolKindUniswapV3)
	pool.Token1 = domain.TokenMeta{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6}

	got := c.Classify(pool, &domain.SwapRecord{
		Amount0In: big.NewInt(0), Amount0Out: big.NewInt(1_500_000_000_000_000_000),
		Amount1In: big.NewInt(2_500_000), Amount1Out: big.NewInt(0),
	})

	assert.True(t, got.BaseAmount.Equal(decimal.RequireFromString("1.5")), got.BaseAmount.String())
	assert.True(t, got.QuoteAmount.Equal(decimal.RequireFromString("2.5")), got.QuoteAmount.String())
	assert.Nil(t, got.ETHValue)
	assert.True(t, Price(got).Equal(decimal.RequireFromString("1.666666666666666667")), Price(got).String())
}

func TestClassifier_FlaggedWrappedNative(t *testing.T) {
	c := NewClassifier()
	pool := testPool(domain.PoolKindUniswapV3)
	pool.Network = domain.ChainArbitrum
	pool.Token1 = domain.TokenMeta{Symbol: "WETH", Address: "0x0000000000000000000000000000000000000001", Decimals: 18, WrappedNative: true}

	got := c.Classify(pool, &domain.SwapRecord{
		Amount0In: eth(5), Amount0Out: big.NewInt(0),
		Amount1In: big.NewInt(0), Amount1Out: eth(1),
	})
	assert.Equal(t, domain.DirectionSell, got.Direction)
	require.NotNil(t, got.ETHValue)
	assert.True(t, got.ETHValue.Equal(decimal.NewFromInt(1)))
}

func TestFormat(t *testing.T) {
	pool := testPool(domain.PoolKindUniswapV3)
	eth := decimal.RequireFromString("0.5")
	s := &domain.ClassifiedSwap{
		SwapRecord: domain.SwapRecord{
			TxHash:    "0xdeadbeef",
			Sender:    "0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD",
			Recipient: "0x1111111254EEB25477B68fb85Ed929f73A960582",
			Timestamp: time.Date(2024, 1, 12, 3, 20, 0, 0, time.UTC),
		},
		Direction:   domain.DirectionBuy,
		BaseSymbol:  "EMP",
		QuoteSymbol: "WETH",
		BaseAmount:  decimal.RequireFromString("1234.5"),
		QuoteAmount: eth,
		ETHValue:    &eth,
	}

	got := Format(pool, s)
	lines := strings.Split(got, "\n")

	assert.Equal(t, "🟢 *BUY EMP*", lines[0])
	assert.Contains(t, got, "💎 1,234.5 EMP\n")
	assert.Contains(t, got, "💰 0.5 WETH\n")
	assert.Contains(t, got, "Ξ 0.5 ETH\n")
	assert.Contains(t, got, "👤 0x3fC91A...7FAD → 0x111111...0582\n")
	assert.Contains(t, got, "🔗 [View TX](https://etherscan.io/tx/0xdeadbeef)\n")
	assert.Equal(t, "⏰ 2024-01-12 03:20:00 UTC", lines[len(lines)-1])

	s.Direction = domain.DirectionSell
	s.ETHValue = nil
	got = Format(pool, s)
	assert.True(t, strings.HasPrefix(got, "🔴 *SELL EMP*"))
	assert.NotContains(t, got, "Ξ")
	assert.NotContains(t, got, "$")
}

func TestFormat_USDValue(t *testing.T) {
	pool := testPool(domain.PoolKindUniswapV3)
	eth := decimal.RequireFromString("0.5")
	usd := decimal.RequireFromString("1500")
	s := &domain.ClassifiedSwap{
		SwapRecord:  domain.SwapRecord{TxHash: "0xdeadbeef"},
		Direction:   domain.DirectionBuy,
		BaseSymbol:  "EMP",
		QuoteSymbol: "WETH",
		BaseAmount:  decimal.RequireFromString("1000"),
		QuoteAmount: eth,
		ETHValue:    &eth,
		USDValue:    &usd,
	}

	got := Format(pool, s)
	lines := strings.Split(got, "\n")
	assert.Equal(t, "🟢 *BUY EMP*", lines[0])
	// $1500 is 30 steps of $50
	assert.Equal(t, strings.Repeat("🍑🍒", 15), lines[2])
	assert.Contains(t, got, "💲 $1,500 (0.5 ETH)\n")
	assert.Contains(t, got, "🏷 $1.5 per EMP\n")
	assert.NotContains(t, got, "Ξ")

	small := decimal.RequireFromString("12.34")
	s.Direction = domain.DirectionSell
	s.USDValue = &small
	got = Format(pool, s)
	assert.Equal(t, "🍆", strings.Split(got, "\n")[2])
	assert.Contains(t, got, "💲 $12.34 (0.5 ETH)\n")

	whale := decimal.NewFromInt(1_000_000)
	s.USDValue = &whale
	row := strings.Split(Format(pool, s), "\n")[2]
	assert.Equal(t, maxSizeEmojis, len([]rune(row)))
}

func TestFormatRecent(t *testing.T) {
	pool := testPool(domain.PoolKindUniswapV3)

	assert.Equal(t, "📊 No EMP swaps recorded yet", FormatRecent(pool, nil))

	one := decimal.NewFromInt(1)
	swaps := []*domain.ClassifiedSwap{
		{SwapRecord: domain.SwapRecord{TxHash: "0x02"}, Direction: domain.DirectionSell, BaseSymbol: "EMP", QuoteSymbol: "WETH", BaseAmount: decimal.NewFromInt(10), QuoteAmount: one, ETHValue: &one},
		{SwapRecord: domain.SwapRecord{TxHash: "0x01"}, Direction: domain.DirectionBuy, BaseSymbol: "EMP", QuoteSymbol: "WETH", BaseAmount: decimal.NewFromInt(20), QuoteAmount: one, ETHValue: &one},
		{SwapRecord: domain.SwapRecord{TxHash: "0x00"}, Direction: domain.DirectionBuy, BaseSymbol: "EMP", QuoteSymbol: "WETH", BaseAmount: decimal.NewFromInt(30), QuoteAmount: one, ETHValue: &one},
	}

	got := FormatRecent(pool, swaps)
	assert.True(t, strings.HasPrefix(got, "📊 *LAST 3 EMP SWAPS*"))
	assert.Contains(t, got, "🟢 *2 Buys* (66.7%)")
	assert.Contains(t, got, "🔴 *1 Sells* (33.3%)")
	assert.Contains(t, got, "Ξ 2 ETH bought / 1 ETH sold")
	assert.Less(t, strings.Index(got, "tx/0x02"), strings.Index(got, "tx/0x00"))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0xe09276...BF80", ShortAddress("0xe092769bc1fa5262D4f48353f90890Dcc339BF80"))
	assert.Equal(t, "0x1234", ShortAddress("0x1234"))
	assert.Equal(t, "0x0123456789", ShortAddress("0x0123456789"))
}
