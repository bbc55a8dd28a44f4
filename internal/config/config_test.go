package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Polymarket: PolymarketConfig{
			GammaAPIURL: "https://example.com",
			Limit:       200,
			MaxRetries:  3,
		},
		Anthropic: AnthropicConfig{
			APIKey:      "test-key",
			Model:       "claude-sonnet-4-20250514",
			Temperature: 0.7,
			MaxTokens:   4096,
			MaxAttempts: 2,
		},
		Newsroom: NewsroomConfig{
			BatchSize:    4,
			Stagger:      500 * time.Millisecond,
			Deadline:     90 * time.Second,
			FeatureCount: 3,
		},
		Editorial: EditorialConfig{
			TopKPerCategory: map[string]int{"politics": 4, "sports": 2},
			MoverCount:      5,
			SafetyNetCount:  5,
			SportsCap:       2,
		},
		Cache:     CacheConfig{WindowHours: 4},
		RateLimit: RateLimitConfig{RPS: 1.0, Burst: 3},
		Storage: StorageConfig{
			DBPath:        "./data/test.db",
			HistoryWindow: 96 * time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
polymarket:
  limit: 150
  timeout: 20s

anthropic:
  api_key: "test-key"
  temperature: 0.5

newsroom:
  batch_size: 6
  deadline: 2m

editorial:
  sports_cap: 1

cache:
  window_hours: 6

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

storage:
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Polymarket.Limit != 150 {
		t.Errorf("Unexpected limit: %d", cfg.Polymarket.Limit)
	}

	if cfg.Anthropic.Temperature != 0.5 {
		t.Errorf("Unexpected temperature: %f", cfg.Anthropic.Temperature)
	}

	if cfg.Newsroom.Deadline != 2*time.Minute {
		t.Errorf("Unexpected deadline: %v", cfg.Newsroom.Deadline)
	}

	if cfg.Editorial.SportsCap != 1 {
		t.Errorf("Unexpected sports cap: %d", cfg.Editorial.SportsCap)
	}

	if cfg.Cache.WindowHours != 6 {
		t.Errorf("Unexpected cache window: %d", cfg.Cache.WindowHours)
	}

	// Defaults fill unset sections
	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Unexpected default model: %s", cfg.Anthropic.Model)
	}
	if cfg.Editorial.MoverCount != 5 {
		t.Errorf("Unexpected default mover count: %d", cfg.Editorial.MoverCount)
	}
	if cfg.Editorial.TopKPerCategory["politics"] != 4 {
		t.Errorf("Unexpected default politics top-k: %d", cfg.Editorial.TopKPerCategory["politics"])
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.Anthropic.APIKey = "" },
			wantErr: true,
		},
		{
			name:    "temperature above range",
			mutate:  func(c *Config) { c.Anthropic.Temperature = 1.5 },
			wantErr: true,
		},
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.Anthropic.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "missing telegram token when enabled",
			mutate:  func(c *Config) { c.Telegram.Enabled = true },
			wantErr: true,
		},
		{
			name:    "cache window too large",
			mutate:  func(c *Config) { c.Cache.WindowHours = 48 },
			wantErr: true,
		},
		{
			name:    "negative per-category top-k",
			mutate:  func(c *Config) { c.Editorial.TopKPerCategory["politics"] = -1 },
			wantErr: true,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Newsroom.BatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative rps",
			mutate:  func(c *Config) { c.RateLimit.RPS = -1 },
			wantErr: true,
		},
		{
			name:    "missing db path",
			mutate:  func(c *Config) { c.Storage.DBPath = "" },
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
