package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/syncnet/headersync/config"
	"github.com/syncnet/headersync/libs/log"
	cmtos "github.com/syncnet/headersync/libs/os"
)

const (
	// HomeFlag is the flag naming the node's root directory.
	HomeFlag = "home"

	envPrefix      = "HSYNC"
	defaultHomeDir = ".headersync"
)

var (
	config = cfg.DefaultConfig()
	logger = log.NewTMLogger(log.NewSyncWriter(os.Stdout))
)

func init() {
	registerFlagsRootCmd(RootCmd)
}

func registerFlagsRootCmd(cmd *cobra.Command) {
	cmd.PersistentFlags().String(HomeFlag, os.ExpandEnv(filepath.Join("$HOME", defaultHomeDir)), "directory for config and data")
	cmd.PersistentFlags().String("log_level", config.LogLevel, "log level: debug | info | error | none")
	cmd.PersistentFlags().String("log_format", config.LogFormat, "log format: plain | json")
}

// ParseConfig retrieves the default environment configuration, sets up the
// root and ensures that the root exists. Flags override environment
// variables, which override the config file.
func ParseConfig(cmd *cobra.Command) (*cfg.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	home := v.GetString(HomeFlag)
	configFile := filepath.Join(home, cfg.DefaultConfigDir, cfg.DefaultConfigFileName)
	if cmtos.FileExists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", configFile, err)
		}
	}

	conf := cfg.DefaultConfig()
	if err := v.Unmarshal(conf); err != nil {
		return nil, err
	}
	conf.SetRoot(home)
	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %v", err)
	}
	return conf, nil
}

// RootCmd is the root command for the header sync node.
var RootCmd = &cobra.Command{
	Use:   "headersync",
	Short: "Block header synchronization node",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if cmd.Name() == VersionCmd.Name() || cmd.Name() == PlanCmd.Name() {
			return nil
		}

		config, err = ParseConfig(cmd)
		if err != nil {
			return err
		}

		if config.LogFormat == cfg.LogFormatJSON {
			logger = log.NewTMJSONLogger(log.NewSyncWriter(os.Stdout))
		}
		option, err := log.AllowLevel(config.LogLevel)
		if err != nil {
			return err
		}
		logger = log.NewFilter(logger, option).With("module", "main")
		return nil
	},
}
