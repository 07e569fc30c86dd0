// Package config loads process configuration from an optional YAML file and
// SCORER_-prefixed environment variables. The scoring engine itself never
// reads the environment; everything is injected as plain parameters.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Listen  string   `mapstructure:"listen"`
	APIKeys []string `mapstructure:"api-keys"`
	LogJSON bool     `mapstructure:"log-json"`
	Debug   bool     `mapstructure:"debug"`

	Scoring ScoringConfig `mapstructure:"scoring"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
}

type ScoringConfig struct {
	ChunkSize         int           `mapstructure:"chunk-size"`
	MaxConcurrent     int           `mapstructure:"max-concurrent"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	MaxRetries        int           `mapstructure:"max-retries"`
	RequestTimeout    time.Duration `mapstructure:"request-timeout"`
	BackoffInitial    time.Duration `mapstructure:"backoff-initial"`
	BackoffMax        time.Duration `mapstructure:"backoff-max"`
	BackoffJitterFrac float64       `mapstructure:"backoff-jitter-frac"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api-key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base-url"`
}

// Load reads path (optional; empty means env-only) and returns the merged
// configuration.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("api-keys", []string{})
	v.SetDefault("log-json", false)
	v.SetDefault("debug", false)
	v.SetDefault("scoring.chunk-size", 20)
	v.SetDefault("scoring.max-concurrent", 10)
	v.SetDefault("scoring.requests-per-minute", 60)
	v.SetDefault("scoring.max-retries", 2)
	v.SetDefault("scoring.request-timeout", 30*time.Second)
	v.SetDefault("scoring.backoff-initial", 1500*time.Millisecond)
	v.SetDefault("scoring.backoff-max", 30*time.Second)
	v.SetDefault("scoring.backoff-jitter-frac", 0.2)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.base-url", "")

	v.SetEnvPrefix("SCORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
