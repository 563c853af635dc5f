package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDBURI)
	assert.Equal(t, "catsvg", cfg.DatabaseName)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", cfg.Chain.ContractAddress)
	assert.Equal(t, 5, cfg.Chain.ReconnectAttempts)
	assert.Equal(t, 5*time.Second, cfg.Chain.ReconnectDelay)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfig_MissingContractAddress(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTRACT_ADDRESS")
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("POLL_INTERVAL", "2s")
	t.Setenv("MONGODB_DATABASE", "catsvg_test")
	t.Setenv("LISTENER_RECONNECT_ATTEMPTS", "2")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, "catsvg_test", cfg.DatabaseName)
	assert.Equal(t, 2, cfg.Chain.ReconnectAttempts)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6380", cfg.Redis.GetAddr())
}

func TestLoadConfig_EmptyOrigins(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", "0x00000000000000000000000000000000000000aa")
	t.Setenv("ALLOWED_ORIGINS", " , ")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALLOWED_ORIGINS")
}

func TestOrigins_SplitsAndTrims(t *testing.T) {
	cfg := &Config{AllowedOrigins: "http://localhost:5173, https://catsvg.app ,"}
	assert.Equal(t, []string{"http://localhost:5173", "https://catsvg.app"}, cfg.Origins())
}
