package gemini

import "time"

// Config holds the Gemini provider configuration.
type Config struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// DefaultConfig returns sensible defaults for the Gemini API backend.
func DefaultConfig() Config {
	return Config{
		Model:      "gemini-1.5-pro-002",
		Timeout:    2 * time.Minute,
		MaxRetries: 2,
	}
}
