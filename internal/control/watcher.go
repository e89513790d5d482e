package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/vietddude/swapwatch/internal/core/config"
	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/health"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/chain/evm"
	"github.com/vietddude/swapwatch/internal/infra/price"
	redisclient "github.com/vietddude/swapwatch/internal/infra/redis"
	"github.com/vietddude/swapwatch/internal/infra/rpc"
	"github.com/vietddude/swapwatch/internal/infra/storage"
	"github.com/vietddude/swapwatch/internal/infra/storage/memory"
	"github.com/vietddude/swapwatch/internal/infra/storage/postgres"
	"github.com/vietddude/swapwatch/internal/monitor"
	"github.com/vietddude/swapwatch/internal/notifier"
)

// Watcher is the main application struct that wires adapters, storage and
// the monitor registry together.
type Watcher struct {
	cfg          *config.AppConfig
	registry     *monitor.Registry
	adapters     map[domain.ChainID]chain.Adapter
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	prices       monitor.PriceSource
	log          *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Storage groups the repositories a watcher runs on.
type Storage struct {
	Checkpoints storage.CheckpointRepository
	Swaps       storage.SwapRepository
}

// NewWatcher creates a new Watcher with all dependencies initialized.
func NewWatcher(cfg *config.AppConfig) (*Watcher, error) {
	w := &Watcher{
		cfg:      cfg,
		adapters: make(map[domain.ChainID]chain.Adapter),
		log:      slog.Default(),
	}

	// 1. Initialize Storage
	store, err := w.initStorage(context.Background())
	if err != nil {
		return nil, err
	}

	// 2. Initialize RPC clients and adapters per network
	retry := rpc.RetryConfig{
		MaxAttempts:     cfg.Monitor.Retry.MaxAttempts,
		InitialDelay:    cfg.Monitor.Retry.InitialDelay,
		MaxDelay:        cfg.Monitor.Retry.MaxDelay,
		BackoffMultiple: cfg.Monitor.Retry.BackoffMultiple,
	}
	for _, netCfg := range cfg.Networks {
		router := rpc.NewRouter()
		for _, p := range netCfg.Providers {
			prov := rpc.NewHTTPProvider(p.Name, p.URL, p.Timeout)
			prov.SetCostLimit(p.CostLimit)
			router.AddProvider(netCfg.ID, prov)
		}
		client := rpc.NewClient(netCfg.ID, router, retry)
		adapter := evm.NewEVMAdapter(netCfg.ID, client, netCfg.MaxBlockRange)

		// monitors on the same network share one head lookup per interval
		w.adapters[netCfg.ID] = chain.NewHeadCache(adapter, netCfg.ScanInterval/2)
		w.log.Info("Network configured", "chain", netCfg.ID, "providers", len(netCfg.Providers))
	}

	// 3. Initialize Notifier
	var sender monitor.Notifier
	if cfg.Telegram.Token != "" {
		tg, err := notifier.NewTelegramNotifier(notifier.TelegramConfig{
			APIURL:  cfg.Telegram.APIURL,
			Token:   cfg.Telegram.Token,
			Timeout: cfg.Telegram.Timeout,
		})
		if err != nil {
			_ = w.closeStorage()
			return nil, err
		}
		sender = tg
	} else {
		w.log.Warn("No telegram token configured, notifications go to the log")
		sender = notifier.NewLogNotifier(w.log)
	}

	if cfg.Prices.APIKey != "" {
		w.prices = price.NewCache(price.NewEtherscanSource(cfg.Prices), cfg.Prices.CacheTTL)
	} else {
		w.log.Info("No etherscan API key configured, swaps are sent without USD values")
	}

	// 4. Initialize Registry
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.registry = monitor.NewRegistry(w.ctx, w.loopFactory(sender, store))

	// 5. Initialize Health + API server
	healthMon := health.NewMonitor(w.registry, 5*time.Second)
	if w.db != nil {
		healthMon.AddDependency("postgres", w.db)
	}
	if w.redisClient != nil {
		healthMon.AddDependency("redis", w.redisClient)
	}
	w.healthServer = health.NewServer(healthMon, cfg.Server.Port)
	NewAPI(w.registry, cfg, store.Swaps).Routes(w.healthServer.Handle)

	return w, nil
}

// initStorage picks repositories: Redis for checkpoints and Postgres for swap
// history when configured, memory otherwise.
func (w *Watcher) initStorage(ctx context.Context) (Storage, error) {
	mem := memory.NewMemoryStorage()
	store := Storage{
		Checkpoints: memory.NewCheckpointRepo(mem),
		Swaps:       memory.NewSwapRepo(mem),
	}

	if w.cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, w.cfg.Database)
		if err != nil {
			return store, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return store, fmt.Errorf("failed to migrate db: %w", err)
		}
		w.db = db
		store.Checkpoints = postgres.NewCheckpointRepo(db)
		store.Swaps = postgres.NewSwapRepo(db)
		w.log.Info("Using PostgreSQL storage")
	}

	if w.cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(w.cfg.Redis)
		if err != nil {
			w.log.Warn("Failed to connect to Redis, keeping current storage", "error", err)
			return store, nil
		}
		w.redisClient = client
		store.Checkpoints = redisclient.NewCheckpointRepo(client)
		if w.db == nil {
			store.Swaps = redisclient.NewSwapRepo(client, w.cfg.Redis.HistorySize)
		}
		w.log.Info("Using Redis storage")
	}

	if w.db == nil && w.redisClient == nil {
		w.log.Info("Using Memory storage")
	}
	return store, nil
}

func (w *Watcher) loopFactory(sender monitor.Notifier, store Storage) monitor.LoopFactory {
	return func(id, chatID string, pool domain.PoolConfig) (*monitor.Loop, error) {
		adapter, ok := w.adapters[pool.Network]
		if !ok {
			return nil, fmt.Errorf("%w: network %q of pool %q is not configured", domain.ErrUnknownPool, pool.Network, pool.ID)
		}
		netCfg, _ := w.cfg.Network(pool.Network)

		return monitor.NewLoop(monitor.Config{
			ID:             id,
			ChatID:         chatID,
			Pool:           pool,
			Adapter:        adapter,
			Notifier:       sender,
			Checkpoints:    store.Checkpoints,
			Swaps:          store.Swaps,
			Prices:         w.prices,
			ScanInterval:   netCfg.ScanInterval,
			Lookback:       w.cfg.Monitor.LookbackBlocks,
			MaxBlockRange:  netCfg.MaxBlockRange,
			SeenCapacity:   w.cfg.Monitor.SeenCapacity,
			RecentCapacity: w.cfg.Monitor.RecentCapacity,
		})
	}
}

// Registry exposes the monitor registry.
func (w *Watcher) Registry() *monitor.Registry {
	return w.registry
}

// Handler returns the HTTP handler serving health, metrics and the monitor API.
func (w *Watcher) Handler() http.Handler {
	return w.healthServer.Handler()
}

// Start starts the HTTP server and the configured autostart monitors.
func (w *Watcher) Start(ctx context.Context) error {
	go func() {
		if err := w.healthServer.Start(); err != nil {
			w.log.Error("Health server failed", "error", err)
		}
	}()

	if w.db != nil {
		w.db.StartMetricsCollector(ctx)
	}

	for _, a := range w.cfg.Autostart {
		pool, ok := w.cfg.Pool(a.Pool)
		if !ok {
			w.log.Warn("Autostart pool not found", "pool", a.Pool)
			continue
		}
		if _, err := w.registry.Start(a.ChatID, pool); err != nil {
			// the chain may be briefly unreachable; the monitor can be started later
			w.log.Error("Failed to autostart monitor", "chat", a.ChatID, "pool", a.Pool, "error", err)
			continue
		}
	}
	return nil
}

// Stop stops every monitor and releases connections.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info("Stopping Watcher...")

	var result *multierror.Error
	if err := w.registry.StopAll(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	w.cancel()

	if err := w.healthServer.Stop(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("health server: %w", err))
	}
	if err := w.closeStorage(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (w *Watcher) closeStorage() error {
	var result *multierror.Error
	if w.redisClient != nil {
		if err := w.redisClient.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("redis: %w", err))
		}
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("postgres: %w", err))
		}
	}
	return result.ErrorOrNil()
}
