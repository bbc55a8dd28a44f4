package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	Newsroom   NewsroomConfig   `mapstructure:"newsroom"`
	Editorial  EditorialConfig  `mapstructure:"editorial"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PolymarketConfig holds Polymarket API configuration
type PolymarketConfig struct {
	GammaAPIURL    string        `mapstructure:"gamma_api_url"`
	Limit          int           `mapstructure:"limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// AnthropicConfig holds the language model client configuration
type AnthropicConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// NewsroomConfig holds edition generation configuration
type NewsroomConfig struct {
	BatchSize    int           `mapstructure:"batch_size"`
	Stagger      time.Duration `mapstructure:"stagger"`
	Deadline     time.Duration `mapstructure:"deadline"`
	// FeatureCount of zero means a lead-and-briefs front page.
	FeatureCount int `mapstructure:"feature_count"`
}

// EditorialConfig holds candidate selection configuration
type EditorialConfig struct {
	TopKPerCategory map[string]int `mapstructure:"top_k_per_category"`
	MoverCount      int            `mapstructure:"mover_count"`
	SafetyNetCount  int            `mapstructure:"safety_net_count"`
	// SportsCap of zero bans sports from the edition entirely.
	SportsCap int `mapstructure:"sports_cap"`
}

// CacheConfig holds edition cache configuration
type CacheConfig struct {
	WindowHours int `mapstructure:"window_hours"`
}

// RateLimitConfig holds per-caller rate limiting configuration
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	Enabled  bool   `mapstructure:"enabled"`
}

// StorageConfig holds storage and persistence configuration
type StorageConfig struct {
	DBPath        string        `mapstructure:"db_path"`
	HistoryWindow time.Duration `mapstructure:"history_window"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("POLYPRESS")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Polymarket defaults
	v.SetDefault("polymarket.gamma_api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.limit", 200)
	v.SetDefault("polymarket.timeout", "30s")
	v.SetDefault("polymarket.max_retries", 3)
	v.SetDefault("polymarket.retry_delay_base", "1s")

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.max_attempts", 2)
	v.SetDefault("anthropic.retry_delay_base", "1s")

	// Newsroom defaults
	v.SetDefault("newsroom.batch_size", 4)
	v.SetDefault("newsroom.stagger", "500ms")
	v.SetDefault("newsroom.deadline", "90s")
	v.SetDefault("newsroom.feature_count", 3)

	// Editorial defaults
	v.SetDefault("editorial.top_k_per_category", map[string]int{
		"politics": 4,
		"world":    3,
		"economy":  3,
		"crypto":   3,
		"science":  2,
		"culture":  2,
		"sports":   2,
	})
	v.SetDefault("editorial.mover_count", 5)
	v.SetDefault("editorial.safety_net_count", 5)
	v.SetDefault("editorial.sports_cap", 2)

	// Cache defaults
	v.SetDefault("cache.window_hours", 4)

	// Rate limit defaults
	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 3)

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/polypress.db")
	v.SetDefault("storage.history_window", "96h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Polymarket config
	if c.Polymarket.GammaAPIURL == "" {
		return fmt.Errorf("polymarket.gamma_api_url is required")
	}
	if c.Polymarket.Limit < 1 || c.Polymarket.Limit > 1000 {
		return fmt.Errorf("polymarket.limit must be between 1 and 1000")
	}
	if c.Polymarket.MaxRetries < 1 {
		return fmt.Errorf("polymarket.max_retries must be at least 1")
	}

	// Validate Anthropic config
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}
	if c.Anthropic.Model == "" {
		return fmt.Errorf("anthropic.model is required")
	}
	if c.Anthropic.Temperature < 0.0 || c.Anthropic.Temperature > 1.0 {
		return fmt.Errorf("anthropic.temperature must be between 0.0 and 1.0")
	}
	if c.Anthropic.MaxTokens < 1 {
		return fmt.Errorf("anthropic.max_tokens must be at least 1")
	}
	if c.Anthropic.MaxAttempts < 1 {
		return fmt.Errorf("anthropic.max_attempts must be at least 1")
	}

	// Validate Newsroom config
	if c.Newsroom.BatchSize < 1 {
		return fmt.Errorf("newsroom.batch_size must be at least 1")
	}
	if c.Newsroom.Deadline < 10*time.Second {
		return fmt.Errorf("newsroom.deadline must be at least 10 seconds")
	}
	if c.Newsroom.FeatureCount < 0 {
		return fmt.Errorf("newsroom.feature_count must not be negative")
	}

	// Validate Editorial config
	if len(c.Editorial.TopKPerCategory) == 0 {
		return fmt.Errorf("editorial.top_k_per_category must contain at least one category")
	}
	for cat, k := range c.Editorial.TopKPerCategory {
		if k < 0 {
			return fmt.Errorf("editorial.top_k_per_category.%s must not be negative", cat)
		}
	}
	if c.Editorial.SportsCap < 0 {
		return fmt.Errorf("editorial.sports_cap must not be negative")
	}

	// Validate Cache config
	if c.Cache.WindowHours < 1 || c.Cache.WindowHours > 24 {
		return fmt.Errorf("cache.window_hours must be between 1 and 24")
	}

	// Validate RateLimit config
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("ratelimit.rps must be positive")
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("ratelimit.burst must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.HistoryWindow < 1*time.Hour {
		return fmt.Errorf("storage.history_window must be at least 1 hour")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
