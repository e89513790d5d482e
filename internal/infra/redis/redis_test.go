package redis

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

func setupTestClient(t *testing.T) *Client {
	t.Helper()

	url := os.Getenv("SWAPWATCH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SWAPWATCH_TEST_REDIS_URL not set")
	}

	c, err := NewClient(Config{URL: url, KeyPrefix: "swapwatch-test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKeys(t *testing.T) {
	c := &Client{prefix: defaultKeyPrefix}
	assert.Equal(t, "swapwatch:checkpoint:42:emp-eth", c.checkpointKey("42", "emp-eth"))
	assert.Equal(t, "swapwatch:swaps:emp-eth", c.swapsKey("emp-eth"))
	assert.Equal(t, "swapwatch:swap_ids:emp-eth", c.swapIDsKey("emp-eth"))
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient(Config{URL: "://nope"})
	assert.Error(t, err)
}

func TestCheckpointRepo(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()
	repo := NewCheckpointRepo(c)

	_, ok, err := repo.Get(ctx, "42", "emp-eth")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, "42", "emp-eth", 18_000_000))
	block, ok, err := repo.Get(ctx, "42", "emp-eth")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(18_000_000), block)
}

func testSwap(block uint64, idx uint) *domain.ClassifiedSwap {
	eth := decimal.RequireFromString("0.5")
	return &domain.ClassifiedSwap{
		SwapRecord: domain.SwapRecord{
			TxHash:      "0xabc",
			BlockNumber: block,
			LogIndex:    idx,
			Amount0In:   big.NewInt(0),
			Amount1In:   big.NewInt(500),
			Amount0Out:  new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil),
			Amount1Out:  big.NewInt(0),
			Timestamp:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		PoolID:      "emp-eth",
		Network:     domain.ChainEthereum,
		Direction:   domain.DirectionBuy,
		BaseSymbol:  "EMP",
		QuoteSymbol: "WETH",
		BaseAmount:  decimal.RequireFromString("1000000"),
		QuoteAmount: eth,
		ETHValue:    &eth,
	}
}

func TestSwapRepo_CappedHistory(t *testing.T) {
	c := setupTestClient(t)
	ctx := context.Background()
	repo := NewSwapRepo(c, 2)

	require.NoError(t, repo.Save(ctx, testSwap(10, 0)))
	require.NoError(t, repo.Save(ctx, testSwap(11, 0)))
	require.NoError(t, repo.Save(ctx, testSwap(11, 0)))
	require.NoError(t, repo.Save(ctx, testSwap(12, 1)))

	got, err := repo.ListRecent(ctx, "emp-eth", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(12), got[0].BlockNumber)
	assert.Equal(t, uint64(11), got[1].BlockNumber)

	assert.Equal(t, 0, got[0].Amount0Out.Cmp(new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)))
	require.NotNil(t, got[0].ETHValue)
	assert.True(t, got[0].ETHValue.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, got[0].Timestamp.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
}
