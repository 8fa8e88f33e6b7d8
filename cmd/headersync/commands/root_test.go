package commands

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/syncnet/headersync/config"
)

func testRootCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	registerFlagsRootCmd(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestParseConfigDefaults(t *testing.T) {
	home := t.TempDir()
	conf, err := ParseConfig(testRootCmd(t, "--home", home))
	require.NoError(t, err)

	assert.Equal(t, home, conf.RootDir)
	assert.Equal(t, cfg.DefaultLogLevel, conf.LogLevel)
	assert.Equal(t, cfg.DefaultHeaderSyncConfig(), conf.HeaderSync)
}

func TestParseConfigFileAndFlags(t *testing.T) {
	home := t.TempDir()
	cfg.EnsureRoot(home)

	written := cfg.DefaultConfig()
	written.Moniker = "from-file"
	written.LogLevel = "error"
	written.HeaderSync.RequestInterval = 750 * time.Millisecond
	written.HeaderSync.DefaultSyncMode = "lightning"
	cfg.WriteConfigFile(filepath.Join(home, cfg.DefaultConfigDir, cfg.DefaultConfigFileName), written)

	conf, err := ParseConfig(testRootCmd(t, "--home", home, "--log_level", "debug"))
	require.NoError(t, err)

	assert.Equal(t, "from-file", conf.Moniker)
	assert.Equal(t, "debug", conf.LogLevel, "flags override the file")
	assert.Equal(t, 750*time.Millisecond, conf.HeaderSync.RequestInterval)
	assert.Equal(t, "lightning", conf.HeaderSync.DefaultSyncMode)
}

func TestParseConfigEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HSYNC_HOME", home)
	t.Setenv("HSYNC_LOG_FORMAT", "json")

	cmd := &cobra.Command{Use: "test"}
	registerFlagsRootCmd(cmd)
	require.NoError(t, cmd.ParseFlags(nil))

	conf, err := ParseConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, home, conf.RootDir)
	assert.Equal(t, cfg.LogFormatJSON, conf.LogFormat)
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig(testRootCmd(t, "--home", t.TempDir(), "--log_format", "xml"))
	assert.Error(t, err)
}

func TestPlanCmd(t *testing.T) {
	testCases := []struct {
		args []string
		want string
	}{
		{
			[]string{"--mode", "normal", "--synced", "100", "--peer-best", "200", "--peer-td", "10"},
			"from=97 size=64 mode=normal\n",
		},
		{
			[]string{"--mode", "lightning", "--synced", "1000", "--staged", "1239", "--speed", "30",
				"--peer-best", "2000", "--peer-td", "10"},
			"from=1480 size=48 mode=lightning\n",
		},
		{
			[]string{"--mode", "lightning", "--synced", "1000", "--peer-best", "1100", "--peer-td", "10"},
			"no request (mode thunder)\n",
		},
		{
			[]string{"--mode", "forward", "--peer-synced", "5", "--td", "10", "--peer-td", "10"},
			"no request (mode forward)\n",
		},
	}

	for _, tc := range testCases {
		var out bytes.Buffer
		PlanCmd.SetOut(&out)
		require.NoError(t, PlanCmd.ParseFlags(tc.args))
		require.NoError(t, plan(PlanCmd, nil))
		assert.Equal(t, tc.want, out.String(), "%v", tc.args)
	}
}

func TestInitFiles(t *testing.T) {
	home := t.TempDir()
	conf := cfg.TestConfig().SetRoot(home)
	conf.DBBackend = "goleveldb"

	require.NoError(t, initFilesWithConfig(conf))
	assert.FileExists(t, filepath.Join(home, cfg.DefaultConfigDir, cfg.DefaultConfigFileName))
	assert.DirExists(t, filepath.Join(home, cfg.DefaultDataDir, "headerstore.db"))

	// Running it again keeps what is there.
	require.NoError(t, initFilesWithConfig(conf))
}
