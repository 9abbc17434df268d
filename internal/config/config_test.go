package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	// Clear environment
	os.Unsetenv("GEMINI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("STORE_DRIVER")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	// Check defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "./data/cms-backend.db", cfg.Database.Path)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 50, cfg.Chatbot.IPRateLimit)
	assert.Equal(t, 10, cfg.Chatbot.SessionRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.Chatbot.CacheTTL)
	assert.Equal(t, 25.0, cfg.Chatbot.MonthlyBudgetUSD)
	assert.Equal(t, 0.80, cfg.Chatbot.SimilarityThreshold)
	assert.Equal(t, "gemini-2.0-flash-lite", cfg.Gemini.Model)
	assert.Equal(t, 1, cfg.Gemini.MaxConcurrent)
	assert.Equal(t, 20*time.Second, cfg.Gemini.CallTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv_WithEnvVars(t *testing.T) {
	// Set environment variables
	os.Setenv("GEMINI_API_KEY", "test-gemini-key")
	os.Setenv("STORE_DRIVER", "redis")
	os.Setenv("REDIS_ADDR", "redis.internal:6380")
	os.Setenv("SERVER_PORT", "9090")
	defer func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("SERVER_PORT")
	}()

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-gemini-key", cfg.Gemini.APIKey)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis.internal:6380", cfg.Store.RedisAddr)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestConfig_Validate_MissingGeminiKey(t *testing.T) {
	cfg := validConfig()
	cfg.Gemini.APIKey = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestConfig_Validate_UnknownStoreDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "etcd"

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestConfig_Validate_RedisRequiresAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = "redis"
	cfg.Store.RedisAddr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis_addr")
}

func TestConfig_Validate_NegativeBudget(t *testing.T) {
	cfg := validConfig()
	cfg.Chatbot.MonthlyBudgetUSD = -1

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "monthly_budget_usd")
}

func TestConfig_Validate_ThresholdOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Chatbot.SimilarityThreshold = 1.2

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "similarity_threshold")
}

func TestConfig_Validate_GeminiCallLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Gemini.MaxConcurrent = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent")

	cfg = validConfig()
	cfg.Gemini.CallTimeout = -time.Second

	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "call_timeout")
}

func TestConfig_Validate_Success(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func validConfig() *Config {
	return &Config{
		Store: StoreConfig{Driver: "memory"},
		Chatbot: ChatbotConfig{
			IPRateLimit:         50,
			SessionRateLimit:    10,
			MonthlyBudgetUSD:    25.0,
			SimilarityThreshold: 0.80,
		},
		Gemini: GeminiConfig{
			APIKey:        "test-key",
			MaxConcurrent: 1,
			CallTimeout:   20 * time.Second,
		},
	}
}
