package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

const (
	// DefaultDirPerm is the default permissions used when creating directories.
	DefaultDirPerm = 0o700

	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// DefaultLogLevel defines a default log level as INFO.
	DefaultLogLevel = "info"

	DefaultConfigDir      = "config"
	DefaultDataDir        = "data"
	DefaultConfigFileName = "config.toml"
)

var defaultConfigFilePath = filepath.Join(DefaultConfigDir, DefaultConfigFileName)

// Config defines the top level configuration for a header sync node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	HeaderSync      *HeaderSyncConfig      `mapstructure:"headersync"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a header sync node.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		HeaderSync:      DefaultHeaderSyncConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		HeaderSync:      TestHeaderSyncConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.HeaderSync.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [headersync] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a header sync node.
type BaseConfig struct { //nolint: maligned
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Database backend: goleveldb | memdb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Number of decoded headers kept in memory by the header store
	HeaderCacheSize int `mapstructure:"header_cache_size"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Moniker:         "headersync",
		DBBackend:       "goleveldb",
		DBPath:          DefaultDataDir,
		HeaderCacheSize: 4096,
		LogLevel:        DefaultLogLevel,
		LogFormat:       LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	cfg.HeaderCacheSize = 64
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain' or 'json')")
	}
	if cfg.HeaderCacheSize < 0 {
		return errors.New("header_cache_size can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// HeaderSyncConfig

// HeaderSyncConfig defines the configuration for the header sync reactor.
type HeaderSyncConfig struct {
	// How often every connected peer is asked for its next header range
	RequestInterval time.Duration `mapstructure:"request_interval"`

	// How often staged batches are handed to the consumer
	ImportInterval time.Duration `mapstructure:"import_interval"`

	// A peer is reported as stalled once the same range has been outstanding
	// this long
	StallTimeout time.Duration `mapstructure:"stall_timeout"`

	// Upper bound on the number of headers returned for one request
	MaxHeadersPerResponse uint32 `mapstructure:"max_headers_per_response"`

	// Number of peers planned concurrently per request cycle
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests"`

	// Sync mode given to newly connected peers:
	// lightning | thunder | normal | backward | forward
	DefaultSyncMode string `mapstructure:"default_sync_mode"`

	// Number of import samples averaged into the sync speed
	SpeedWindow int `mapstructure:"speed_window"`

	// Structural header limits
	MaxExtraDataSize int           `mapstructure:"max_extra_data_size"`
	MaxFutureDrift   time.Duration `mapstructure:"max_future_drift"`
}

// DefaultHeaderSyncConfig returns a default configuration for the header sync
// reactor.
func DefaultHeaderSyncConfig() *HeaderSyncConfig {
	return &HeaderSyncConfig{
		RequestInterval:       2 * time.Second,
		ImportInterval:        100 * time.Millisecond,
		StallTimeout:          15 * time.Second,
		MaxHeadersPerResponse: 96,
		MaxConcurrentRequests: 16,
		DefaultSyncMode:       "normal",
		SpeedWindow:           20,
		MaxExtraDataSize:      32,
		MaxFutureDrift:        15 * time.Second,
	}
}

// TestHeaderSyncConfig returns a configuration for testing the reactor.
func TestHeaderSyncConfig() *HeaderSyncConfig {
	cfg := DefaultHeaderSyncConfig()
	cfg.RequestInterval = 10 * time.Millisecond
	cfg.ImportInterval = 10 * time.Millisecond
	cfg.StallTimeout = time.Second
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *HeaderSyncConfig) ValidateBasic() error {
	if cfg.RequestInterval <= 0 {
		return errors.New("request_interval must be positive")
	}
	if cfg.ImportInterval <= 0 {
		return errors.New("import_interval must be positive")
	}
	if cfg.StallTimeout < 0 {
		return errors.New("stall_timeout can't be negative")
	}
	if cfg.MaxHeadersPerResponse == 0 {
		return errors.New("max_headers_per_response must be positive")
	}
	if cfg.MaxConcurrentRequests < 1 {
		return errors.New("max_concurrent_requests must be at least 1")
	}
	switch cfg.DefaultSyncMode {
	case "lightning", "thunder", "normal", "backward", "forward":
	default:
		return fmt.Errorf("unknown default_sync_mode %q", cfg.DefaultSyncMode)
	}
	if cfg.SpeedWindow < 1 {
		return errors.New("speed_window must be at least 1")
	}
	if cfg.MaxExtraDataSize < 0 {
		return errors.New("max_extra_data_size can't be negative")
	}
	if cfg.MaxFutureDrift < 0 {
		return errors.New("max_future_drift can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus_listen_addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "headersync",
	}
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus_listen_addr can't be empty when prometheus is enabled")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
