package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config, expanding ${ENV} references and applying defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Telegram.APIURL == "" {
		cfg.Telegram.APIURL = "https://api.telegram.org"
	}
	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 10 * time.Second
	}

	m := &cfg.Monitor
	if m.ScanInterval == 0 {
		m.ScanInterval = 12 * time.Second
	}
	if m.LookbackBlocks == 0 {
		m.LookbackBlocks = 5
	}
	if m.MaxBlockRange == 0 {
		m.MaxBlockRange = 2000
	}
	if m.SeenCapacity == 0 {
		m.SeenCapacity = 500
	}
	if m.RecentCapacity == 0 {
		m.RecentCapacity = 50
	}
	if m.Retry.MaxAttempts == 0 {
		m.Retry.MaxAttempts = 3
	}
	if m.Retry.InitialDelay == 0 {
		m.Retry.InitialDelay = 500 * time.Millisecond
	}
	if m.Retry.MaxDelay == 0 {
		m.Retry.MaxDelay = 5 * time.Second
	}
	if m.Retry.BackoffMultiple == 0 {
		m.Retry.BackoffMultiple = 2.0
	}

	for i := range cfg.Networks {
		n := &cfg.Networks[i]
		if n.ScanInterval == 0 {
			n.ScanInterval = m.ScanInterval
		}
		if n.MaxBlockRange == 0 {
			n.MaxBlockRange = m.MaxBlockRange
		}
		for j := range n.Providers {
			if n.Providers[j].Timeout == 0 {
				n.Providers[j].Timeout = 10 * time.Second
			}
			if n.Providers[j].Name == "" {
				n.Providers[j].Name = fmt.Sprintf("%s-%d", n.ID, j)
			}
		}
	}

	for i := range cfg.Pools {
		p := &cfg.Pools[i]
		if p.Kind == "" {
			p.Kind = domain.PoolKindUniswapV3
		}
		// unset decimals default to 18
		if p.Token0.Decimals == 0 {
			p.Token0.Decimals = 18
		}
		if p.Token1.Decimals == 0 {
			p.Token1.Decimals = 18
		}
	}
}

// Validate reports every configuration problem at once.
func (c *AppConfig) Validate() error {
	var result *multierror.Error

	networks := make(map[domain.ChainID]bool, len(c.Networks))
	for _, n := range c.Networks {
		if n.ID == "" {
			result = multierror.Append(result, fmt.Errorf("network without id"))
			continue
		}
		if networks[n.ID] {
			result = multierror.Append(result, fmt.Errorf("duplicate network %q", n.ID))
		}
		networks[n.ID] = true
		if len(n.Providers) == 0 {
			result = multierror.Append(result, fmt.Errorf("network %q has no providers", n.ID))
		}
		for _, p := range n.Providers {
			if p.URL == "" {
				result = multierror.Append(result, fmt.Errorf("network %q provider %q has no url", n.ID, p.Name))
			}
		}
	}

	pools := make(map[string]bool, len(c.Pools))
	for _, p := range c.Pools {
		if p.ID == "" {
			result = multierror.Append(result, fmt.Errorf("pool without id"))
			continue
		}
		if pools[p.ID] {
			result = multierror.Append(result, fmt.Errorf("duplicate pool %q", p.ID))
		}
		pools[p.ID] = true
		if !networks[p.Network] {
			result = multierror.Append(result, fmt.Errorf("pool %q references unknown network %q", p.ID, p.Network))
		}
		if !common.IsHexAddress(p.Address) {
			result = multierror.Append(result, fmt.Errorf("pool %q has invalid address %q", p.ID, p.Address))
		}
		if p.Kind != domain.PoolKindUniswapV2 && p.Kind != domain.PoolKindUniswapV3 {
			result = multierror.Append(result, fmt.Errorf("pool %q has unsupported kind %q", p.ID, p.Kind))
		}
		if p.Base != domain.Token0 && p.Base != domain.Token1 {
			result = multierror.Append(result, fmt.Errorf("pool %q base must be token0 or token1, got %q", p.ID, p.Base))
		}
		if p.Token0.Decimals < 0 || p.Token0.Decimals > 77 || p.Token1.Decimals < 0 || p.Token1.Decimals > 77 {
			result = multierror.Append(result, fmt.Errorf("pool %q has out of range decimals", p.ID))
		}
		if p.ExplorerTxURL == "" {
			result = multierror.Append(result, fmt.Errorf("pool %q has no explorer_tx_url", p.ID))
		}
	}

	for _, a := range c.Autostart {
		if a.ChatID == "" {
			result = multierror.Append(result, fmt.Errorf("autostart entry for pool %q has no chat_id", a.Pool))
		}
		if !pools[a.Pool] {
			result = multierror.Append(result, fmt.Errorf("autostart references unknown pool %q", a.Pool))
		}
	}

	return result.ErrorOrNil()
}
