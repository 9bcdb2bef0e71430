// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Exchange rules: Defined in genesis, fixed for the life of the ledger
//   - Node settings: Runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Genesis file overriding the built-in genesis for Network.
	GenesisFile string `conf:"genesis"`

	// RPC server
	RPC RPCConfig

	// Prometheus endpoint
	Metrics MetricsConfig

	// Storage
	DB DBConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // Allowed CORS origins ("*" = all).
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `conf:"metrics.enabled"`
	Addr    string `conf:"metrics.addr"`
	Port    int    `conf:"metrics.port"`
}

// DBConfig holds storage settings.
type DBConfig struct {
	// InMemory keeps the ledger in memory only. State is lost on exit.
	InMemory bool `conf:"db.inmemory"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingswap
//	macOS:   ~/Library/Application Support/Klingswap
//	Windows: %APPDATA%\Klingswap
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingswap"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingswap")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingswap")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingswap")
	default:
		return filepath.Join(home, ".klingswap")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// LedgerDir returns the ledger database directory.
func (c *Config) LedgerDir() string {
	return filepath.Join(c.NetworkDataDir(), "ledger")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "klingswap.conf")
}

// RPCEndpoint returns the URL clients use to reach the RPC server.
func (c *Config) RPCEndpoint() string {
	return "http://" + hostPort(c.RPC.Addr, c.RPC.Port)
}

// MetricsListenAddr returns the metrics listen address.
func (c *Config) MetricsListenAddr() string {
	return hostPort(c.Metrics.Addr, c.Metrics.Port)
}

// RPCListenAddr returns the RPC listen address.
func (c *Config) RPCListenAddr() string {
	return hostPort(c.RPC.Addr, c.RPC.Port)
}
