package openai

import "time"

// Config holds the OpenAI provider configuration.
type Config struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// DefaultConfig returns sensible defaults for OpenAI.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://api.openai.com",
		Model:      "gpt-4o-2024-08-06",
		Timeout:    2 * time.Minute,
		MaxRetries: 2,
	}
}
