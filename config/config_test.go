package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":10000", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.HeartbeatInterval)
	assert.Equal(t, int64(10), cfg.Game.MinStake)
	assert.Equal(t, int64(10000), cfg.Game.MaxStake)
	assert.Equal(t, int64(1000), cfg.Game.DefaultBalance)
	assert.Equal(t, 30, cfg.Game.BettingSeconds)
	assert.Equal(t, 3*time.Second, cfg.Game.FlipDelay)
	assert.Equal(t, 8*time.Second, cfg.Game.ResultDelay)
	assert.Equal(t, 30*time.Second, cfg.Game.BettingWindow())
	assert.Equal(t, "none", cfg.Ledger.Driver)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("game:\n  max_stake: 500\n  flip_delay: 1s\nledger:\n  driver: redis\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, int64(500), cfg.Game.MaxStake)
	assert.Equal(t, time.Second, cfg.Game.FlipDelay)
	assert.Equal(t, "redis", cfg.Ledger.Driver)
	// untouched keys keep their defaults
	assert.Equal(t, int64(10), cfg.Game.MinStake)
}

func TestLoadConfig_PortEnv(t *testing.T) {
	t.Setenv("PORT", "8088")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.Server.HTTPAddress)
}
