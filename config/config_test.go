package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := DefaultConfig()
	assert.NotNil(cfg.HeaderSync)
	assert.NotNil(cfg.Instrumentation)
	assert.NoError(cfg.ValidateBasic())

	cfg.SetRoot("/foo")
	cfg.DBPath = "/opt/data"
	assert.Equal("/opt/data", cfg.DBDir())

	cfg.DBPath = "data"
	assert.Equal(filepath.Join("/foo", "data"), cfg.DBDir())
}

func TestConfigValidateBasic(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ValidateBasic())

	cfg.LogFormat = "xml"
	assert.Error(t, cfg.ValidateBasic())

	cfg = DefaultConfig()
	cfg.Instrumentation.Prometheus = true
	cfg.Instrumentation.PrometheusListenAddr = ""
	assert.Error(t, cfg.ValidateBasic())
}

func TestHeaderSyncConfigValidateBasic(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*HeaderSyncConfig)
		wantErr bool
	}{
		{"default", func(*HeaderSyncConfig) {}, false},
		{"zero request interval", func(c *HeaderSyncConfig) { c.RequestInterval = 0 }, true},
		{"zero import interval", func(c *HeaderSyncConfig) { c.ImportInterval = 0 }, true},
		{"negative stall timeout", func(c *HeaderSyncConfig) { c.StallTimeout = -1 }, true},
		{"zero response size", func(c *HeaderSyncConfig) { c.MaxHeadersPerResponse = 0 }, true},
		{"no concurrency", func(c *HeaderSyncConfig) { c.MaxConcurrentRequests = 0 }, true},
		{"unknown mode", func(c *HeaderSyncConfig) { c.DefaultSyncMode = "turbo" }, true},
		{"backward mode", func(c *HeaderSyncConfig) { c.DefaultSyncMode = "backward" }, false},
		{"empty speed window", func(c *HeaderSyncConfig) { c.SpeedWindow = 0 }, true},
		{"negative extra data", func(c *HeaderSyncConfig) { c.MaxExtraDataSize = -1 }, true},
		{"negative drift", func(c *HeaderSyncConfig) { c.MaxFutureDrift = -1 }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultHeaderSyncConfig()
			tc.mutate(cfg)
			if tc.wantErr {
				assert.Error(t, cfg.ValidateBasic())
			} else {
				assert.NoError(t, cfg.ValidateBasic())
			}
		})
	}
}
