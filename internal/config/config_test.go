package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	assert.Equal(t, time.Second, cfg.Feeds.ReconnectBase())
	assert.Equal(t, 30*time.Second, cfg.Feeds.ReconnectMax())
	assert.Equal(t, 15*time.Second, cfg.Feeds.PingInterval())
	assert.Equal(t, 30*time.Second, cfg.Feeds.ShutdownTimeout())

	assert.False(t, cfg.NBBO.Enabled)
	assert.Equal(t, "tickgate", cfg.Redis.ChannelPrefix)
	assert.Equal(t, 60*time.Second, cfg.Redis.LatestTTL())
	assert.Equal(t, 500, cfg.Database.BatchSize)
	assert.Equal(t, time.Second, cfg.Database.FlushInterval())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TICKGATE_SERVER_PORT", "9090")
	t.Setenv("TICKGATE_FEEDS_SHUTDOWN_TIMEOUT_SEC", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Duration(0), cfg.Feeds.ShutdownTimeout(), "zero must mean an unbounded gather")
}
