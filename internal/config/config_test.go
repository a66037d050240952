package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EPLAYER_SERVER_URL", "EPLAYER_TOKEN", "EPLAYER_SERVER_TIMEOUT",
		"LLM_API_KEY", "LLM_API_URL", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TEMPERATURE", "LLM_TIMEOUT",
		"WHISPER_URL", "WHISPER_LANGUAGE", "WHISPER_TIMEOUT",
		"EPLAYER_DATA_DIR", "RECONCILE_CRON",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://eplayer-server.vercel.app", cfg.Server.BaseURL)
	assert.Equal(t, 30, cfg.Server.Timeout)
	assert.Empty(t, cfg.Server.Token)

	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.APIURL)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", cfg.LLM.Model)
	assert.Equal(t, 100, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)

	// the transcription service defaults to the main server
	assert.Equal(t, cfg.Server.BaseURL, cfg.Whisper.BaseURL)
	assert.Equal(t, "en", cfg.Whisper.Language)
	assert.Equal(t, 600, cfg.Whisper.Timeout)

	assert.Equal(t, "./data", cfg.System.DataDir)
	assert.Equal(t, "@every 1m", cfg.System.ReconcileCron)
}

func TestNewFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("EPLAYER_SERVER_URL", "http://localhost:3000")
	t.Setenv("EPLAYER_SERVER_TIMEOUT", "5")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("WHISPER_LANGUAGE", "ja")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Server.BaseURL)
	assert.Equal(t, 5, cfg.Server.Timeout)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, "ja", cfg.Whisper.Language)
	// the whisper URL follows the overridden server URL
	assert.Equal(t, "http://localhost:3000", cfg.Whisper.BaseURL)
}

func TestNewFromEnvInvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("LLM_TEMPERATURE", "warm")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.0, cfg.LLM.Temperature)
}

func TestNewFromEnvOptions(t *testing.T) {
	clearEnv(t)

	cfg, err := NewFromEnv(func(c *Config) {
		c.Server.BaseURL = "http://option-wins:8080"
	})
	require.NoError(t, err)
	assert.Equal(t, "http://option-wins:8080", cfg.Server.BaseURL)
}

func TestValidateRequiresServerURL(t *testing.T) {
	clearEnv(t)

	_, err := NewFromEnv(func(c *Config) {
		c.Server.BaseURL = "   "
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EPLAYER_SERVER_URL")
}
