package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	if cfg.RPCAddress != ":8545" {
		t.Fatalf("rpc address = %q", cfg.RPCAddress)
	}
	if len(cfg.StakingTiers) != 4 {
		t.Fatalf("tiers = %d, want default ladder", len(cfg.StakingTiers))
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	// Reloading the persisted default round-trips.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.LiquidityVault != cfg.LiquidityVault {
		t.Fatalf("vault = %q, want %q", again.LiquidityVault, cfg.LiquidityVault)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
RPCAddress = ""
LiquidityVault = "0x0000000000000000000000000000000000000001"
Treasury = "0x0000000000000000000000000000000000000002"
StakingVault = "0x0000000000000000000000000000000000000003"
ClaimingVault = "0x0000000000000000000000000000000000000004"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":8545" {
		t.Fatalf("rpc address = %q", cfg.RPCAddress)
	}
	if cfg.Oracle.TTLSeconds != 60 {
		t.Fatalf("oracle ttl = %d", cfg.Oracle.TTLSeconds)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			LiquidityVault: "0x0000000000000000000000000000000000000001",
			Treasury:       "0x0000000000000000000000000000000000000002",
			StakingVault:   "0x0000000000000000000000000000000000000003",
			ClaimingVault:  "0x0000000000000000000000000000000000000004",
		}
	}

	cfg := base()
	cfg.Treasury = "not-an-address"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad address accepted")
	}

	cfg = base()
	cfg.StakingTiers = []Tier{{LockDays: 0, APYBps: 600}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero lock tier accepted")
	}

	cfg = base()
	cfg.Vesting.InitialUnlockBps = 20_000
	if err := cfg.Validate(); err == nil {
		t.Fatal("oversized unlock rate accepted")
	}
}

func TestParseAddress(t *testing.T) {
	want := [20]byte{19: 0xAB}
	for _, input := range []string{
		"0x00000000000000000000000000000000000000ab",
		"00000000000000000000000000000000000000ab",
		"  0x00000000000000000000000000000000000000ab  ",
	} {
		got, err := ParseAddress(input)
		if err != nil || got != want {
			t.Fatalf("ParseAddress(%q) = (%v, %v)", input, got, err)
		}
	}
	for _, input := range []string{"", "0x1234", "zz"} {
		if _, err := ParseAddress(input); err == nil {
			t.Fatalf("ParseAddress(%q) accepted", input)
		}
	}
}
