package config

import (
	"bytes"
	"path/filepath"
	"text/template"

	cmtos "github.com/syncnet/headersync/libs/os"
)

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate")
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't exist,
// and panics if it fails.
func EnsureRoot(rootDir string) {
	if err := cmtos.EnsureDir(rootDir, DefaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := cmtos.EnsureDir(filepath.Join(rootDir, DefaultConfigDir), DefaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := cmtos.EnsureDir(filepath.Join(rootDir, DefaultDataDir), DefaultDirPerm); err != nil {
		panic(err.Error())
	}

	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)

	// Write default config file if missing.
	if !cmtos.FileExists(configFilePath) {
		writeDefaultConfigFile(configFilePath)
	}
}

func writeDefaultConfigFile(configFilePath string) {
	WriteConfigFile(configFilePath, DefaultConfig())
}

// WriteConfigFile renders config using the template and writes it to configFilePath.
func WriteConfigFile(configFilePath string, config *Config) {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, config); err != nil {
		panic(err)
	}

	cmtos.MustWriteFile(configFilePath, buffer.Bytes(), 0o644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/myawesomeapp/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.headersync" by default, but could be changed via $HSYNC_HOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# Database backend: goleveldb | memdb
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ js .BaseConfig.DBPath }}"

# Number of decoded headers kept in memory by the header store
header_cache_size = {{ .BaseConfig.HeaderCacheSize }}

# Output level for logging: debug | info | error | none
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

#######################################################################
###                 Header Sync Configuration Options               ###
#######################################################################
[headersync]

# How often every connected peer is asked for its next header range
request_interval = "{{ .HeaderSync.RequestInterval }}"

# How often staged batches are handed to the consumer
import_interval = "{{ .HeaderSync.ImportInterval }}"

# A peer is reported as stalled once the same range has been outstanding
# this long
stall_timeout = "{{ .HeaderSync.StallTimeout }}"

# Upper bound on the number of headers returned for one request
max_headers_per_response = {{ .HeaderSync.MaxHeadersPerResponse }}

# Number of peers planned concurrently per request cycle
max_concurrent_requests = {{ .HeaderSync.MaxConcurrentRequests }}

# Sync mode given to newly connected peers:
# lightning | thunder | normal | backward | forward
default_sync_mode = "{{ .HeaderSync.DefaultSyncMode }}"

# Number of import samples averaged into the sync speed
speed_window = {{ .HeaderSync.SpeedWindow }}

# Structural header limits
max_extra_data_size = {{ .HeaderSync.MaxExtraDataSize }}
max_future_drift = "{{ .HeaderSync.MaxFutureDrift }}"

#######################################################################
###                   Instrumentation Configuration                 ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus_listen_addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
