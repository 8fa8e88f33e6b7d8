package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	cfg "github.com/syncnet/headersync/config"
	cmtos "github.com/syncnet/headersync/libs/os"
	"github.com/syncnet/headersync/store"
)

// InitFilesCmd initialises a fresh header sync node home.
var InitFilesCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a header sync node",
	RunE:  initFiles,
}

func initFiles(cmd *cobra.Command, args []string) error {
	return initFilesWithConfig(config)
}

func initFilesWithConfig(config *cfg.Config) error {
	configFile := filepath.Join(config.RootDir, cfg.DefaultConfigDir, cfg.DefaultConfigFileName)
	if cmtos.FileExists(configFile) {
		logger.Info("Found config file", "path", configFile)
	} else {
		if err := cmtos.EnsureDir(filepath.Dir(configFile), cfg.DefaultDirPerm); err != nil {
			return err
		}
		cfg.WriteConfigFile(configFile, config)
		logger.Info("Generated config file", "path", configFile)
	}
	cfg.EnsureRoot(config.RootDir)

	hs, err := openHeaderStore(config)
	if err != nil {
		return err
	}
	defer hs.Close()

	logger.Info("Header store ready",
		"path", config.DBDir(),
		"backend", config.DBBackend,
		"base", hs.Base(),
		"best", hs.BestBlockNumber())
	return nil
}

// openHeaderStore opens the header store under config's data directory.
func openHeaderStore(config *cfg.Config) (*store.HeaderStore, error) {
	db, err := cfg.DefaultDBProvider(&cfg.DBContext{ID: "headerstore", Config: config})
	if err != nil {
		return nil, err
	}
	hs, err := store.NewHeaderStore(db, config.HeaderCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return hs, nil
}
