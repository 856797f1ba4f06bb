package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Security.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.StatsTTL)
	assert.Equal(t, time.Minute, cfg.Jobs.GaugeRefreshInterval)
}
