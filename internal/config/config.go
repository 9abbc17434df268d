package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Store     StoreConfig     `mapstructure:"store"`
	Chatbot   ChatbotConfig   `mapstructure:"chatbot"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig selects the backing key-value store for sessions, rate
// windows, the response cache, and budget counters.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"` // "memory" or "redis"
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// ChatbotConfig holds the chat pipeline tunables
type ChatbotConfig struct {
	KnowledgeBasePath   string        `mapstructure:"knowledge_base_path"`
	IPRateLimit         int           `mapstructure:"ip_rate_limit"`
	SessionRateLimit    int           `mapstructure:"session_rate_limit"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	MonthlyBudgetUSD    float64       `mapstructure:"monthly_budget_usd"`
	InputPricePer1K     float64       `mapstructure:"input_price_per_1k"`
	OutputPricePer1K    float64       `mapstructure:"output_price_per_1k"`
	AlertEmail          string        `mapstructure:"alert_email"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
}

// GeminiConfig holds the generation API credentials and call limits.
type GeminiConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
}

// EmbeddingConfig holds the optional semantic-matching backend. Disabled
// unless an API key is set; the matcher then falls back to exact matching
// only.
type EmbeddingConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// SMTPConfig holds outbound email configuration for budget alerts and lead
// auto-replies. Disabled when host is empty.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file is optional
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read from environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration primarily from environment variables
func LoadFromEnv() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from .env file if it exists
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	// Read from environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Database defaults
	v.SetDefault("database.path", "./data/cms-backend.db")

	// Store defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)

	// Chatbot defaults
	v.SetDefault("chatbot.knowledge_base_path", "./data/qa_knowledge_base.json")
	v.SetDefault("chatbot.ip_rate_limit", 50)
	v.SetDefault("chatbot.session_rate_limit", 10)
	v.SetDefault("chatbot.cache_ttl", 5*time.Minute)
	v.SetDefault("chatbot.monthly_budget_usd", 25.0)
	v.SetDefault("chatbot.input_price_per_1k", 0.0000375)
	v.SetDefault("chatbot.output_price_per_1k", 0.00015)
	v.SetDefault("chatbot.similarity_threshold", 0.80)

	// Gemini defaults
	v.SetDefault("gemini.model", "gemini-2.0-flash-lite")
	v.SetDefault("gemini.max_concurrent", 1)
	v.SetDefault("gemini.call_timeout", 20*time.Second)

	// Embedding defaults
	v.SetDefault("embedding.model", "text-embedding-3-small")

	// SMTP defaults
	v.SetDefault("smtp.port", 587)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	// Helper to bind and log errors (BindEnv errors are non-fatal but should be logged)
	bindEnv := func(key string, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			slog.Warn("failed to bind environment variable",
				slog.String("key", key),
				slog.String("env_var", envVar),
				slog.String("error", err.Error()))
		}
	}

	// API credentials from environment
	bindEnv("gemini.api_key", "GEMINI_API_KEY")
	bindEnv("embedding.api_key", "OPENAI_API_KEY")

	// Store config
	bindEnv("store.driver", "STORE_DRIVER")
	bindEnv("store.redis_addr", "REDIS_ADDR")
	bindEnv("store.redis_password", "REDIS_PASSWORD")

	// SMTP credentials
	bindEnv("smtp.host", "SMTP_HOST")
	bindEnv("smtp.username", "SMTP_USERNAME")
	bindEnv("smtp.password", "SMTP_PASSWORD")
	bindEnv("smtp.from", "SMTP_FROM")

	// Database path
	bindEnv("database.path", "DATABASE_PATH")

	// Server config
	bindEnv("server.host", "SERVER_HOST")
	bindEnv("server.port", "SERVER_PORT")

	// Logging
	bindEnv("logging.level", "LOG_LEVEL")
	bindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	switch c.Store.Driver {
	case "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr is required when the redis driver is selected")
		}
	default:
		return fmt.Errorf("unknown store driver %q (expected \"memory\" or \"redis\")", c.Store.Driver)
	}

	if c.Chatbot.MonthlyBudgetUSD < 0 {
		return fmt.Errorf("chatbot.monthly_budget_usd must not be negative")
	}
	if c.Chatbot.IPRateLimit <= 0 || c.Chatbot.SessionRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	if c.Chatbot.SimilarityThreshold < 0 || c.Chatbot.SimilarityThreshold > 1 {
		return fmt.Errorf("chatbot.similarity_threshold must be within [0, 1]")
	}
	if c.Gemini.MaxConcurrent <= 0 {
		return fmt.Errorf("gemini.max_concurrent must be positive")
	}
	if c.Gemini.CallTimeout <= 0 {
		return fmt.Errorf("gemini.call_timeout must be positive")
	}

	return nil
}
