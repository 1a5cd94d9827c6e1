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

	assert.Equal(t, "8083", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "presence", cfg.Presence.KeyPrefix)
	assert.Equal(t, 45*time.Second, cfg.Presence.KeyTTL)
	// The heartbeat must land well inside the key TTL or entries flap.
	assert.Less(t, cfg.Presence.HeartbeatInterval, cfg.Presence.KeyTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SOCIAL_SERVER_PORT", "9090")
	t.Setenv("SOCIAL_REDIS_ADDRESS", "redis:6380")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis:6380", cfg.Redis.Address)
}
