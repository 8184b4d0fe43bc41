package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Tier is a staking ladder entry as written in the config file.
type Tier struct {
	LockDays uint64 `toml:"LockDays"`
	APYBps   uint64 `toml:"APYBps"`
}

// Vesting is the presale unlock schedule.
type Vesting struct {
	StartAt          int64  `toml:"StartAt"`
	InitialUnlockBps uint64 `toml:"InitialUnlockBps"`
	MonthlyUnlockBps uint64 `toml:"MonthlyUnlockBps"`
}

// Oracle selects the ETH/USD price source. URL empty means the static
// dev price is used.
type Oracle struct {
	URL           string `toml:"URL"`
	TTLSeconds    int64  `toml:"TTLSeconds"`
	StaticPrice   string `toml:"StaticPrice"`
	PriceDecimals uint8  `toml:"PriceDecimals"`
}

// Exchange seeds the dev constant-product pair backing pool listing.
type Exchange struct {
	EthReserve   string `toml:"EthReserve"`
	TokenReserve string `toml:"TokenReserve"`
}

type Config struct {
	RPCAddress     string   `toml:"RPCAddress"`
	DataDir        string   `toml:"DataDir"`
	AuthToken      string   `toml:"AuthToken"`
	LogFile        string   `toml:"LogFile"`
	PausedModules  []string `toml:"PausedModules"`
	LiquidityVault string   `toml:"LiquidityVault"`
	Treasury       string   `toml:"Treasury"`
	StakingVault   string   `toml:"StakingVault"`
	ClaimingVault  string   `toml:"ClaimingVault"`
	StakingTiers   []Tier   `toml:"StakingTiers"`
	Vesting        Vesting  `toml:"Vesting"`
	Oracle         Oracle   `toml:"Oracle"`
	Exchange       Exchange `toml:"Exchange"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./minepool-data"
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
	if c.Oracle.TTLSeconds <= 0 {
		c.Oracle.TTLSeconds = 60
	}
	if strings.TrimSpace(c.Oracle.StaticPrice) == "" {
		c.Oracle.StaticPrice = "3000"
	}
	if strings.TrimSpace(c.Exchange.EthReserve) == "" {
		c.Exchange.EthReserve = "1000000000000000000000"
	}
	if strings.TrimSpace(c.Exchange.TokenReserve) == "" {
		c.Exchange.TokenReserve = "3000000000000000000000000"
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"LiquidityVault": c.LiquidityVault,
		"Treasury":       c.Treasury,
		"StakingVault":   c.StakingVault,
		"ClaimingVault":  c.ClaimingVault,
	} {
		if _, err := ParseAddress(value); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	for i, tier := range c.StakingTiers {
		if tier.LockDays == 0 || tier.APYBps == 0 {
			return fmt.Errorf("config: StakingTiers[%d]: LockDays and APYBps must be positive", i)
		}
	}
	if c.Vesting.InitialUnlockBps > 10_000 || c.Vesting.MonthlyUnlockBps > 10_000 {
		return fmt.Errorf("config: Vesting unlock rates exceed 10000 bps")
	}
	return nil
}

// ParseAddress decodes a 20-byte hex address, with or without 0x prefix.
func ParseAddress(value string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return out, fmt.Errorf("invalid address %q", value)
	}
	copy(out[:], raw)
	return out, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:     ":8545",
		DataDir:        "./minepool-data",
		PausedModules:  []string{},
		LiquidityVault: "0x" + strings.Repeat("00", 19) + "01",
		Treasury:       "0x" + strings.Repeat("00", 19) + "02",
		StakingVault:   "0x" + strings.Repeat("00", 19) + "03",
		ClaimingVault:  "0x" + strings.Repeat("00", 19) + "04",
		StakingTiers: []Tier{
			{LockDays: 30, APYBps: 600},
			{LockDays: 90, APYBps: 1200},
			{LockDays: 180, APYBps: 1800},
			{LockDays: 365, APYBps: 2400},
		},
		Vesting: Vesting{InitialUnlockBps: 1000, MonthlyUnlockBps: 1500},
	}
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
