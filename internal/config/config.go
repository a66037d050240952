package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Server Configuration:
// - EPLAYER_SERVER_URL: subtitle cache / account server (default: https://eplayer-server.vercel.app)
// - EPLAYER_TOKEN: bearer token of an existing session (optional, login works too)
// - EPLAYER_SERVER_TIMEOUT: request timeout in seconds (default: 30)
//
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required for word lookups)
// - LLM_API_URL: API endpoint URL (default: https://api.openai.com/v1)
// - LLM_MODEL: Model name to use (default: gpt-4o-mini-2024-07-18)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 100)
// - LLM_TEMPERATURE: Temperature for responses (default: 0)
// - LLM_TIMEOUT: Request timeout in seconds (default: 30)
//
// Transcription Configuration:
// - WHISPER_URL: transcription server URL (default: the eplayer server)
// - WHISPER_LANGUAGE: default transcription language (default: en)
// - WHISPER_TIMEOUT: request timeout in seconds (default: 600)
//
// System Configuration:
// - EPLAYER_DATA_DIR: local state directory for the fingerprint cache
//   and billing journal (default: ./data)
// - RECONCILE_CRON: billing reconciliation schedule (default: @every 1m)
type Config struct {
	Server  ServerConfig  `json:"server"`
	LLM     LLMConfig     `json:"llm"`
	Whisper WhisperConfig `json:"whisper"`
	System  SystemConfig  `json:"system"`
}

type ServerConfig struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
	Timeout int    `json:"timeout"`
}

type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

type WhisperConfig struct {
	BaseURL  string `json:"base_url"`
	Language string `json:"language"`
	Timeout  int    `json:"timeout"`
}

type SystemConfig struct {
	DataDir       string `json:"data_dir"`
	ReconcileCron string `json:"reconcile_cron"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	serverURL := getEnvString("EPLAYER_SERVER_URL", "https://eplayer-server.vercel.app")

	config := &Config{
		Server: ServerConfig{
			BaseURL: serverURL,
			Token:   getEnvString("EPLAYER_TOKEN", ""),
			Timeout: getEnvInt("EPLAYER_SERVER_TIMEOUT", 30),
		},
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://api.openai.com/v1"),
			Model:       getEnvString("LLM_MODEL", "gpt-4o-mini-2024-07-18"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 100),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0),
			Timeout:     getEnvInt("LLM_TIMEOUT", 30),
		},
		Whisper: WhisperConfig{
			BaseURL:  getEnvString("WHISPER_URL", serverURL),
			Language: getEnvString("WHISPER_LANGUAGE", "en"),
			Timeout:  getEnvInt("WHISPER_TIMEOUT", 600),
		},
		System: SystemConfig{
			DataDir:       getEnvString("EPLAYER_DATA_DIR", "./data"),
			ReconcileCron: getEnvString("RECONCILE_CRON", "@every 1m"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return fmt.Errorf("EPLAYER_SERVER_URL is required")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
