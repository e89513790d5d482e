package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/checkpoint"
	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/storage"
	"github.com/vietddude/swapwatch/internal/metrics"
	"github.com/vietddude/swapwatch/internal/swap"
)

// PriceSource values swaps in USD. Failures only drop the valuation.
type PriceSource interface {
	ETHUSD(ctx context.Context) (decimal.Decimal, error)
}

// Notifier delivers formatted text to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Config holds everything one monitor needs.
type Config struct {
	ID     string
	ChatID string
	Pool   domain.PoolConfig

	Adapter     chain.Adapter
	Notifier    Notifier
	Checkpoints storage.CheckpointRepository // optional
	Swaps       storage.SwapRepository       // optional
	Prices      PriceSource                  // optional

	ScanInterval   time.Duration
	Lookback       uint64
	MaxBlockRange  uint64 // 0 uses the adapter's limit
	SeenCapacity   int
	RecentCapacity int

	Now func() time.Time
}

// Loop polls one pool for swaps and notifies one chat.
type Loop struct {
	cfg        Config
	poolAddr   common.Address
	topic      common.Hash
	decoder    *swap.Decoder
	classifier *swap.Classifier
	checkpoint *checkpoint.Tracker
	seen       *SeenSet
	recent     *RecentBuffer
	log        *slog.Logger

	// tickMu serializes ticks
	tickMu sync.Mutex

	mu         sync.RWMutex
	state      domain.MonitorState
	degraded   bool
	lastErr    error
	chainHead  uint64
	startedAt  time.Time
	lastTickAt time.Time
	notified   int

	stop chan struct{}
	done chan struct{}
}

// NewLoop validates cfg and builds a stopped loop.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.Adapter == nil {
		return nil, errors.New("monitor: adapter is required")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("monitor: notifier is required")
	}
	if !common.IsHexAddress(cfg.Pool.Address) {
		return nil, fmt.Errorf("monitor: invalid pool address %q", cfg.Pool.Address)
	}
	topic, err := swap.SwapTopic(cfg.Pool.Kind)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 12 * time.Second
	}
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = cfg.Adapter.MaxBlockRange()
	}
	if cfg.SeenCapacity <= 0 {
		cfg.SeenCapacity = 500
	}
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = 50
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Loop{
		cfg:        cfg,
		poolAddr:   common.HexToAddress(cfg.Pool.Address),
		topic:      topic,
		decoder:    swap.NewDecoder(),
		classifier: swap.NewClassifier(),
		checkpoint: checkpoint.New(cfg.ChatID, cfg.Pool.ID, cfg.Checkpoints),
		seen:       NewSeenSet(cfg.SeenCapacity),
		recent:     NewRecentBuffer(cfg.RecentCapacity),
		log: slog.Default().With(
			"chain", cfg.Pool.Network,
			"pool", cfg.Pool.ID,
			"chat", cfg.ChatID,
		),
		state: domain.MonitorStopped,
	}, nil
}

// Start initializes the checkpoint from the chain head and begins ticking.
// The loop keeps running until Stop is called or ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != domain.MonitorStopped {
		l.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	l.state = domain.MonitorStarting
	l.mu.Unlock()

	latest, err := l.cfg.Adapter.GetLatestBlock(ctx)
	if err != nil {
		l.setState(domain.MonitorStopped)
		return fmt.Errorf("fetch chain head: %w", err)
	}

	start, err := l.checkpoint.Resume(ctx, latest, l.cfg.Lookback)
	if err != nil {
		l.log.Warn("Checkpoint store unavailable, using lookback", "error", err)
	}

	l.mu.Lock()
	l.chainHead = latest
	l.startedAt = l.cfg.Now()
	l.degraded = false
	l.lastErr = nil
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.state = domain.MonitorRunning
	stop, done := l.stop, l.done
	l.mu.Unlock()

	l.recordCheckpoint(start)
	l.log.Info("Monitor started", "latest", latest, "checkpoint", start, "interval", l.cfg.ScanInterval)

	go l.run(ctx, stop, done)
	return nil
}

func (l *Loop) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	defer l.setState(domain.MonitorStopped)

	ticker := time.NewTicker(l.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := l.Poll(ctx); err != nil && !errors.Is(err, domain.ErrNotRunning) {
				l.log.Warn("Tick failed, retrying next interval", "error", err)
			}
		}
	}
}

// Stop ends the loop. An in-flight tick may finish; no new tick starts.
// It waits for the loop to exit or ctx to expire.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.state != domain.MonitorRunning {
		l.mu.Unlock()
		return domain.ErrNotRunning
	}
	l.state = domain.MonitorStopping
	close(l.stop)
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
		l.log.Info("Monitor stopped", "checkpoint", l.checkpoint.Current())
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for monitor to stop: %w", ctx.Err())
	}
}

// Poll runs one tick and returns how many swaps were emitted.
// A network error leaves the checkpoint where the last completed chunk put it.
func (l *Loop) Poll(ctx context.Context) (int, error) {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	if l.State() != domain.MonitorRunning {
		return 0, domain.ErrNotRunning
	}

	chainID := string(l.cfg.Pool.Network)

	latest, err := l.cfg.Adapter.GetLatestBlock(ctx)
	if err != nil {
		l.markFailure(err)
		return 0, err
	}
	metrics.ChainLatestBlock.WithLabelValues(chainID).Set(float64(latest))

	l.mu.Lock()
	l.chainHead = latest
	l.lastTickAt = l.cfg.Now()
	l.mu.Unlock()

	emitted := 0
	for _, r := range chain.ChunkRanges(l.checkpoint.Current()+1, latest, l.cfg.MaxBlockRange) {
		if l.stopping() {
			break
		}

		n, err := l.processRange(ctx, r)
		emitted += n
		if err != nil {
			l.markFailure(err)
			return emitted, err
		}

		if err := l.checkpoint.Advance(ctx, r.To); err != nil {
			if errors.Is(err, checkpoint.ErrRewind) {
				return emitted, err
			}
			l.log.Warn("Failed to persist checkpoint", "block", r.To, "error", err)
		}
		l.recordCheckpoint(r.To)
		metrics.BlocksProcessed.WithLabelValues(chainID, l.cfg.Pool.ID).Add(float64(r.Size()))
	}

	l.mu.Lock()
	if l.degraded {
		l.log.Info("Monitor recovered", "checkpoint", l.checkpoint.Current())
	}
	l.degraded = false
	l.lastErr = nil
	l.mu.Unlock()

	return emitted, nil
}

func (l *Loop) processRange(ctx context.Context, r chain.BlockRange) (int, error) {
	logs, err := l.cfg.Adapter.GetLogs(ctx, chain.LogQuery{
		PoolID:    l.cfg.Pool.ID,
		Address:   l.poolAddr,
		Topics:    [][]common.Hash{{l.topic}},
		FromBlock: r.From,
		ToBlock:   r.To,
	})
	if err != nil {
		return 0, err
	}
	if len(logs) == 0 {
		return 0, nil
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})

	fresh := make([]*domain.SwapRecord, 0, len(logs))
	blocks := make([]uint64, 0, len(logs))
	for _, lg := range logs {
		rec, ok := l.decode(lg)
		if !ok {
			continue
		}
		if l.seen.HasSeen(rec.ID()) {
			l.log.Debug("Skipping already reported swap", "tx", rec.TxHash, "log_index", rec.LogIndex)
			continue
		}
		l.seen.MarkSeen(rec.ID())
		fresh = append(fresh, rec)
		blocks = append(blocks, rec.BlockNumber)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	timestamps, err := l.cfg.Adapter.GetBlockTimestamps(ctx, blocks)
	if err != nil {
		l.log.Debug("Some block timestamps unavailable, using processing time", "error", err)
	}

	for _, rec := range fresh {
		if ts, ok := timestamps[rec.BlockNumber]; ok {
			rec.Timestamp = ts
		} else {
			rec.Timestamp = l.cfg.Now().UTC()
		}
		l.emit(ctx, l.classifier.Classify(l.cfg.Pool, rec))
	}
	return len(fresh), nil
}

func (l *Loop) decode(lg types.Log) (*domain.SwapRecord, bool) {
	chainID := string(l.cfg.Pool.Network)

	if lg.Address != l.poolAddr {
		metrics.MalformedEvents.WithLabelValues(chainID, l.cfg.Pool.ID).Inc()
		l.log.Warn("Dropping log from unexpected contract", "address", lg.Address.Hex(), "tx", lg.TxHash.Hex())
		return nil, false
	}
	rec, err := l.decoder.Decode(l.cfg.Pool, lg)
	if err != nil {
		metrics.MalformedEvents.WithLabelValues(chainID, l.cfg.Pool.ID).Inc()
		l.log.Warn("Dropping malformed swap log",
			"tx", lg.TxHash.Hex(),
			"block", lg.BlockNumber,
			"log_index", lg.Index,
			"error", err,
		)
		return nil, false
	}
	return rec, true
}

func (l *Loop) valueInUSD(ctx context.Context, s *domain.ClassifiedSwap) {
	if l.cfg.Prices == nil || s.ETHValue == nil {
		return
	}
	ethUSD, err := l.cfg.Prices.ETHUSD(ctx)
	if err != nil {
		l.log.Debug("ETH price unavailable, sending without USD value", "error", err)
		return
	}
	usd := s.ETHValue.Mul(ethUSD)
	s.USDValue = &usd
}

// emit fans a classified swap out to the recent buffer, the swap store and the chat.
func (l *Loop) emit(ctx context.Context, s *domain.ClassifiedSwap) {
	chainID := string(l.cfg.Pool.Network)

	l.valueInUSD(ctx, s)
	l.recent.Add(s)

	if l.cfg.Swaps != nil {
		if err := l.cfg.Swaps.Save(ctx, s); err != nil {
			l.log.Warn("Failed to store swap", "tx", s.TxHash, "error", err)
		}
	}

	if err := l.cfg.Notifier.SendMessage(ctx, l.cfg.ChatID, swap.Format(l.cfg.Pool, s)); err != nil {
		metrics.DeliveryErrors.WithLabelValues(chainID, l.cfg.Pool.ID).Inc()
		l.log.Error("Failed to deliver swap notification",
			"tx", s.TxHash,
			"direction", s.Direction,
			"error", err,
		)
		return
	}

	metrics.SwapsNotified.WithLabelValues(chainID, l.cfg.Pool.ID, string(s.Direction)).Inc()
	l.mu.Lock()
	l.notified++
	l.mu.Unlock()

	l.log.Info("Swap notified",
		"direction", s.Direction,
		"base_amount", s.BaseAmount.String(),
		"quote_amount", s.QuoteAmount.String(),
		"block", s.BlockNumber,
		"tx", s.TxHash,
	)
}

// Recent returns up to n recent swaps, most recent first.
func (l *Loop) Recent(n int) []*domain.ClassifiedSwap {
	return l.recent.Last(n)
}

// Status returns a snapshot of the loop.
func (l *Loop) Status() domain.MonitorStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := domain.MonitorStatus{
		ID:            l.cfg.ID,
		ChatID:        l.cfg.ChatID,
		PoolID:        l.cfg.Pool.ID,
		Network:       l.cfg.Pool.Network,
		State:         l.state,
		Degraded:      l.degraded,
		Checkpoint:    l.checkpoint.Current(),
		CheckpointAt:  l.checkpoint.UpdatedAt(),
		ChainHead:     l.chainHead,
		SeenCount:     l.seen.Size(),
		StartedAt:     l.startedAt,
		LastTickAt:    l.lastTickAt,
		SwapsNotified: l.notified,
	}
	if l.lastErr != nil {
		st.LastError = l.lastErr.Error()
	}
	return st
}

// Pool returns the pool this loop watches.
func (l *Loop) Pool() domain.PoolConfig {
	return l.cfg.Pool
}

// markFailure flags the monitor degraded. A cached chain head is dropped so
// the next tick asks the chain again.
func (l *Loop) markFailure(err error) {
	metrics.TickErrors.WithLabelValues(string(l.cfg.Pool.Network), l.cfg.Pool.ID).Inc()
	if c, ok := l.cfg.Adapter.(interface{ Invalidate() }); ok {
		c.Invalidate()
	}
	l.mu.Lock()
	l.degraded = true
	l.lastErr = err
	l.mu.Unlock()
}

func (l *Loop) recordCheckpoint(block uint64) {
	metrics.MonitorCheckpoint.
		WithLabelValues(string(l.cfg.Pool.Network), l.cfg.Pool.ID, l.cfg.ChatID).
		Set(float64(block))
}

func (l *Loop) setState(s domain.MonitorState) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// State returns the lifecycle state.
func (l *Loop) State() domain.MonitorState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loop) stopping() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == domain.MonitorStopping
}
