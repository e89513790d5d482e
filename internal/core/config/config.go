package config

import (
	"time"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/infra/price"
	redisclient "github.com/vietddude/swapwatch/internal/infra/redis"
	"github.com/vietddude/swapwatch/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig        `yaml:"server"`
	Logging   LoggingConfig       `yaml:"logging"`
	Telegram  TelegramConfig      `yaml:"telegram"`
	Sentry    SentryConfig        `yaml:"sentry"`
	Prices    price.Config        `yaml:"prices"`
	Redis     redisclient.Config  `yaml:"redis"`
	Database  postgres.Config     `yaml:"database"`
	Monitor   MonitorConfig       `yaml:"monitor"`
	Networks  []NetworkConfig     `yaml:"networks"`
	Pools     []domain.PoolConfig `yaml:"pools"`
	Autostart []AutostartConfig   `yaml:"autostart"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// TelegramConfig holds bot credentials. An empty token logs notifications instead of sending them.
type TelegramConfig struct {
	Token   string        `yaml:"token"`
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// MonitorConfig holds defaults shared by every pool monitor.
type MonitorConfig struct {
	ScanInterval   time.Duration `yaml:"scan_interval"`
	LookbackBlocks uint64        `yaml:"lookback_blocks"`
	MaxBlockRange  uint64        `yaml:"max_block_range"`
	SeenCapacity   int           `yaml:"seen_capacity"`
	RecentCapacity int           `yaml:"recent_capacity"`
	Retry          RetryConfig   `yaml:"retry"`
}

// RetryConfig bounds RPC retries within one tick.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// NetworkConfig holds settings for a specific blockchain.
type NetworkConfig struct {
	ID            domain.ChainID   `yaml:"id"`
	ChainID       uint64           `yaml:"chain_id"`
	ScanInterval  time.Duration    `yaml:"scan_interval"`   // overrides monitor.scan_interval
	MaxBlockRange uint64           `yaml:"max_block_range"` // overrides monitor.max_block_range
	Providers     []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// CostLimit caps compute units spent per hour; eth_getLogs costs 5, other calls 1. Zero is unlimited.
	CostLimit int `yaml:"cost_limit"`
}

// AutostartConfig starts a monitor at boot.
type AutostartConfig struct {
	ChatID string `yaml:"chat_id"`
	Pool   string `yaml:"pool"`
}

// Pool returns the pool with the given id.
func (c *AppConfig) Pool(id string) (domain.PoolConfig, bool) {
	for _, p := range c.Pools {
		if p.ID == id {
			return p, true
		}
	}
	return domain.PoolConfig{}, false
}

// Network returns the network with the given id.
func (c *AppConfig) Network(id domain.ChainID) (NetworkConfig, bool) {
	for _, n := range c.Networks {
		if n.ID == id {
			return n, true
		}
	}
	return NetworkConfig{}, false
}
