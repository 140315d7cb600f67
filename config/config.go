package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"stakevault/crypto"
)

// Config captures the daemon settings loaded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	// LogFile enables rotating file output when set; empty logs to stdout.
	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxBackups int    `toml:"LogMaxBackups"`

	// PriceAdmin is the bech32 address allowed to write price entries.
	PriceAdmin string `toml:"PriceAdmin"`

	// Staking pool bootstrap parameters; the pool is created on first start.
	PoolAsset             string `toml:"PoolAsset"`
	RewardRatePerInterval uint64 `toml:"RewardRatePerInterval"`
	RewardIntervalMs      uint64 `toml:"RewardIntervalMs"`

	// PausedModules lists modules rejected by the pause guard.
	PausedModules []string `toml:"PausedModules"`

	// EventRingSize bounds the in-memory event stream exposed over RPC.
	EventRingSize int `toml:"EventRingSize"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		ListenAddress:         "127.0.0.1:8547",
		DataDir:               "./data",
		Environment:           "local",
		LogMaxSizeMB:          64,
		LogMaxBackups:         4,
		PoolAsset:             "STK",
		RewardRatePerInterval: 1_000_000, // 0.1% per interval at 1e9 scale
		RewardIntervalMs:      60_000,
		EventRingSize:         1024,
	}
}

// Load reads the configuration from path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies before wiring.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: DataDir required")
	}
	if strings.TrimSpace(c.PoolAsset) == "" {
		return fmt.Errorf("config: PoolAsset required")
	}
	if c.RewardIntervalMs == 0 {
		return fmt.Errorf("config: RewardIntervalMs must be positive")
	}
	if admin := strings.TrimSpace(c.PriceAdmin); admin != "" {
		if _, err := crypto.DecodeAddress(admin); err != nil {
			return fmt.Errorf("config: invalid PriceAdmin: %w", err)
		}
	}
	if c.EventRingSize < 0 {
		return fmt.Errorf("config: EventRingSize must not be negative")
	}
	return nil
}

// PriceAdminAddress decodes the configured administrator, or a zero address
// when unset (price writes are then rejected for every caller).
func (c *Config) PriceAdminAddress() crypto.Address {
	admin := strings.TrimSpace(c.PriceAdmin)
	if admin == "" {
		return crypto.NewAddress(crypto.AccountPrefix, make([]byte, 20))
	}
	addr, err := crypto.DecodeAddress(admin)
	if err != nil {
		return crypto.NewAddress(crypto.AccountPrefix, make([]byte, 20))
	}
	return addr
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
