package anthropic

import "time"

// Config holds the Anthropic provider configuration.
type Config struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	Version    string        `mapstructure:"version"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// DefaultConfig returns sensible defaults for Anthropic.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://api.anthropic.com",
		Model:      "claude-3-5-sonnet-20241022",
		Version:    "2023-06-01",
		Timeout:    2 * time.Minute,
		MaxRetries: 2,
	}
}
