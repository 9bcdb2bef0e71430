package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"--testnet", "--rpc-port=9000", "--metrics", "--inmemory", "--log-json=false"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if f.Network != "testnet" || f.RPCPort != 9000 || !f.Metrics || !f.SetMetrics || !f.InMemory {
		t.Errorf("flags = %+v", f)
	}
	if !f.SetLogJSON || f.LogJSON {
		t.Error("--log-json=false should be recorded as an explicit false")
	}
	if f.SetRPC {
		t.Error("--rpc was not passed")
	}
}

func TestParseFlags_Errors(t *testing.T) {
	if _, err := ParseFlags([]string{"--bogus"}); err == nil {
		t.Error("unknown flag should fail")
	}
	if _, err := ParseFlags([]string{"stray", "--metrics"}); err == nil {
		t.Error("flag after positional argument should fail")
	}
	f, err := ParseFlags([]string{"-h"})
	if err != nil || !f.Help {
		t.Errorf("-h = %+v, %v", f, err)
	}
}

func TestLoadFile_Apply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "klingswap.conf")
	content := `# comment
network = testnet
rpc.port = 7000
rpc.allowed = 127.0.0.1, 10.0.0.1
metrics = yes
db.inmemory = "true"
log.level = debug
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.Network != Testnet || cfg.RPC.Port != 7000 || !cfg.Metrics.Enabled || !cfg.DB.InMemory || cfg.Log.Level != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.RPC.AllowedIPs) != 2 || cfg.RPC.AllowedIPs[1] != "10.0.0.1" {
		t.Errorf("allowed = %v", cfg.RPC.AllowedIPs)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil || len(values) != 0 {
		t.Errorf("missing file = %v, %v; want empty map", values, err)
	}

	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("no equals sign\n"), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Error("malformed line should fail")
	}

	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, map[string]string{"rpc.port": "abc"}); err == nil {
		t.Error("non-numeric port should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad network", func(c *Config) { c.Network = "devnet" }, false},
		{"bad rpc port", func(c *Config) { c.RPC.Port = 70000 }, false},
		{"bad metrics port", func(c *Config) { c.Metrics.Port = -1 }, false},
		{"port clash", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = c.RPC.Port }, false},
		{"bad allowed ip", func(c *Config) { c.RPC.AllowedIPs = []string{"localhost"} }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, false},
		{"no datadir in memory", func(c *Config) { c.DataDir = ""; c.DB.InMemory = true }, true},
		{"no datadir", func(c *Config) { c.DataDir = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := Load([]string{"--datadir", dir, "--testnet", "--rpc-port", "9100"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != Testnet || cfg.RPC.Port != 9100 {
		t.Errorf("cfg network %s port %d", cfg.Network, cfg.RPC.Port)
	}
	for _, d := range []string{cfg.LedgerDir(), cfg.KeystoreDir(), cfg.LogsDir()} {
		if _, err := os.Stat(d); err != nil {
			t.Errorf("%s not created: %v", d, err)
		}
	}
	if _, err := os.Stat(cfg.ConfigFile()); err != nil {
		t.Errorf("default config not written: %v", err)
	}

	// The written default config must load cleanly.
	again, _, err := Load([]string{"--datadir", dir, "--testnet"})
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again.RPC.Port != 8655 {
		t.Errorf("rpc port from default file = %d, want 8655", again.RPC.Port)
	}

	if _, _, err := Load([]string{"--version"}); !errors.Is(err, ErrHelp) {
		t.Errorf("--version error = %v, want ErrHelp", err)
	}
}
