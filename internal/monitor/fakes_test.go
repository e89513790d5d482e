package monitor

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/swap"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeAdapter struct {
	mu          sync.Mutex
	latest      uint64
	latestErr   error
	logs        []types.Log
	logsErr     map[uint64]error // keyed by range start
	ignoreRange bool
	timestamps  map[uint64]time.Time
	queries     []chain.LogQuery

	// headGate and logsGate, when set, hold calls until closed.
	headGate    chan struct{}
	logsGate    chan struct{}
	waiting     int
	invalidated int
}

func (f *fakeAdapter) GetLatestBlock(ctx context.Context) (uint64, error) {
	f.wait(f.headGate)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.latestErr
}

func (f *fakeAdapter) GetLogs(ctx context.Context, q chain.LogQuery) ([]types.Log, error) {
	f.wait(f.logsGate)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.logsErr[q.FromBlock]; err != nil {
		return nil, err
	}
	var out []types.Log
	for _, l := range f.logs {
		if f.ignoreRange || (l.BlockNumber >= q.FromBlock && l.BlockNumber <= q.ToBlock) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeAdapter) GetBlockTimestamps(ctx context.Context, blocks []uint64) (map[uint64]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint64]time.Time)
	var err error
	for _, b := range blocks {
		if ts, ok := f.timestamps[b]; ok {
			out[b] = ts
		} else {
			err = fmt.Errorf("%w: block %d", domain.ErrNetwork, b)
		}
	}
	return out, err
}

func (f *fakeAdapter) GetChainID() domain.ChainID { return domain.ChainEthereum }
func (f *fakeAdapter) MaxBlockRange() uint64      { return 2000 }

func (f *fakeAdapter) Invalidate() {
	f.mu.Lock()
	f.invalidated++
	f.mu.Unlock()
}

func (f *fakeAdapter) wait(gate chan struct{}) {
	if gate == nil {
		return
	}
	f.mu.Lock()
	f.waiting++
	f.mu.Unlock()
	<-gate
}

func (f *fakeAdapter) blocked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting > 0
}

func (f *fakeAdapter) invalidations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidated
}

func (f *fakeAdapter) setLatest(n uint64) {
	f.mu.Lock()
	f.latest = n
	f.mu.Unlock()
}

func (f *fakeAdapter) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakePrices struct {
	price string
	err   error
}

func (p *fakePrices) ETHUSD(ctx context.Context) (decimal.Decimal, error) {
	if p.err != nil {
		return decimal.Zero, p.err
	}
	return decimal.RequireFromString(p.price), nil
}

type sentMessage struct {
	chatID string
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

func testPool() domain.PoolConfig {
	return domain.PoolConfig{
		ID:      "emp-eth",
		Network: domain.ChainEthereum,
		Address: "0xe092769bc1fa5262D4f48353f90890Dcc339BF80",
		Kind:    domain.PoolKindUniswapV3,
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

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func word(v *big.Int) []byte {
	return math.U256Bytes(new(big.Int).Set(v))
}

// swapLog builds a Uniswap V3 Swap log for testPool. Negative amounts leave the pool.
func swapLog(t *testing.T, block uint64, index uint, amount0, amount1 *big.Int) types.Log {
	t.Helper()
	topic, err := swap.SwapTopic(domain.PoolKindUniswapV3)
	require.NoError(t, err)

	var data []byte
	data = append(data, word(amount0)...)
	data = append(data, word(amount1)...)
	data = append(data, word(big.NewInt(1<<40))...)
	data = append(data, word(big.NewInt(1_000_000))...)
	data = append(data, word(big.NewInt(-120))...)

	return types.Log{
		Address: common.HexToAddress(testPool().Address),
		Topics: []common.Hash{
			topic,
			common.HexToHash("0x3fC91A3afd70395Cd496C647d5a6CC9D4B2b7FAD"),
			common.HexToHash("0x1111111254EEB25477B68fb85Ed929f73A960582"),
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block*1000 + uint64(index))),
		Index:       index,
	}
}

// buyLog: EMP leaves the pool, WETH enters.
func buyLog(t *testing.T, block uint64, index uint) types.Log {
	return swapLog(t, block, index, new(big.Int).Neg(ether(100)), ether(2))
}

// sellLog: EMP enters the pool, WETH leaves.
func sellLog(t *testing.T, block uint64, index uint) types.Log {
	return swapLog(t, block, index, ether(50), new(big.Int).Neg(ether(1)))
}

func newTestLoop(t *testing.T, adapter *fakeAdapter, notifier *fakeNotifier, mutate ...func(*Config)) *Loop {
	t.Helper()
	cfg := Config{
		ID:           "test",
		ChatID:       "-1001",
		Pool:         testPool(),
		Adapter:      adapter,
		Notifier:     notifier,
		ScanInterval: time.Hour,
		Lookback:     5,
		Now:          func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	loop, err := NewLoop(cfg)
	require.NoError(t, err)
	return loop
}
