package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/magclip/internal/config"
)

func TestBindViperPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magclip.toml")
	require.NoError(t, os.WriteFile(path, []byte(`picking_style = "lifo"
tab = "Work"
poll_interval = "80ms"

[timing]
settle = "45ms"
`), 0o600))
	t.Setenv("MAGCLIP_TAB", "FromEnv")
	t.Setenv("MAGCLIP_TIMING_KEY_GAP", "3ms")

	cmd := newDaemonCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--picking-style", "fifo"}))
	v := viper.New()
	config.SetDefaults(v)
	require.NoError(t, bindViper(cmd, v))

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "fifo", cfg.PickingStyle, "flag beats file")
	assert.Equal(t, "FromEnv", cfg.Tab, "env beats file")
	assert.Equal(t, 80*time.Millisecond, cfg.PollInterval, "file beats default")
	assert.Equal(t, 45*time.Millisecond, cfg.Timing.Settle)
	assert.Equal(t, 3*time.Millisecond, cfg.Timing.KeyGap)
	assert.Equal(t, config.Default().Timing.Resume, cfg.Timing.Resume)
}

func TestBindViperBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "magclip.toml")
	require.NoError(t, os.WriteFile(path, []byte("picking_style = \n"), 0o600))

	cmd := newDaemonCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path}))
	assert.Error(t, bindViper(cmd, viper.New()))
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n  b\tc", 10))
	assert.Equal(t, "abcd…", preview("abcdefgh", 5))
	assert.Equal(t, "héllo", preview("héllo", 5))
}
