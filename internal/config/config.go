// Package config loads llmexperts settings with Viper and builds the logger.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HerbHall/llmexperts/internal/llm"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: LLMX_SUMMARIZE_MAX_SIZE=400.
const EnvPrefix = "LLMX"

// Settings is the decoded configuration.
type Settings struct {
	Model     string             `mapstructure:"model"`
	Providers llm.ProviderConfig `mapstructure:"providers"`
	Client    ClientSettings     `mapstructure:"client"`
	Templates TemplateSettings   `mapstructure:"templates"`
	Summarize SummarizeSettings  `mapstructure:"summarize"`
	Analyze   AnalyzeSettings    `mapstructure:"analyze"`
	Database  DatabaseSettings   `mapstructure:"database"`
	Logging   LoggingSettings    `mapstructure:"logging"`
	Metrics   MetricsSettings    `mapstructure:"metrics"`
}

// ClientSettings tune every model client.
type ClientSettings struct {
	MaxRetries       int           `mapstructure:"max_retries"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	RateLimitBackoff time.Duration `mapstructure:"rate_limit_backoff"`
}

// TemplateSettings point at the prompt template files.
type TemplateSettings struct {
	Summarize string `mapstructure:"summarize"`
	Analyze   string `mapstructure:"analyze"`
}

// SummarizeSettings hold summarize defaults.
type SummarizeSettings struct {
	ChunkSize       float64 `mapstructure:"chunk_size"`
	Overlap         int     `mapstructure:"overlap"`
	MinSize         int     `mapstructure:"min_size"`
	MaxSize         int     `mapstructure:"max_size"`
	MaxTokensFactor float64 `mapstructure:"max_tokens_factor"`
	OutputDir       string  `mapstructure:"output_dir"`
	LogDir          string  `mapstructure:"log_dir"`
	IfExists        string  `mapstructure:"if_exists"`
	TryNoChunk      bool    `mapstructure:"try_no_chunk"`
	SaveLog         bool    `mapstructure:"save_log"`
}

// AnalyzeSettings hold score defaults.
type AnalyzeSettings struct {
	MaxTokens     int  `mapstructure:"max_tokens"`
	UseExamples   bool `mapstructure:"use_examples"`
	Probabilities bool `mapstructure:"probabilities"`
}

// DatabaseSettings locate the run ledger.
type DatabaseSettings struct {
	Path string `mapstructure:"path"`
}

// LoggingSettings mirror the keys read by NewLogger.
type LoggingSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsSettings configure the optional Prometheus endpoint.
type MetricsSettings struct {
	Addr string `mapstructure:"addr"`
}

// conventional provider credential variables, read in addition to the
// LLMX_ prefixed keys.
var providerEnv = map[string]string{
	"providers.openai.api_key":    "OPENAI_API_KEY",
	"providers.anthropic.api_key": "ANTHROPIC_API_KEY",
	"providers.gemini.api_key":    "GEMINI_API_KEY",
	"providers.ollama.url":        "OLLAMA_HOST",
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model", "gpt-4o-2024-08-06")

	p := llm.DefaultProviderConfig()
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.base_url", p.OpenAI.BaseURL)
	v.SetDefault("providers.openai.timeout", p.OpenAI.Timeout)
	v.SetDefault("providers.openai.max_retries", p.OpenAI.MaxRetries)
	v.SetDefault("providers.anthropic.api_key", "")
	v.SetDefault("providers.anthropic.base_url", p.Anthropic.BaseURL)
	v.SetDefault("providers.anthropic.version", p.Anthropic.Version)
	v.SetDefault("providers.anthropic.timeout", p.Anthropic.Timeout)
	v.SetDefault("providers.anthropic.max_retries", p.Anthropic.MaxRetries)
	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.gemini.base_url", p.Gemini.BaseURL)
	v.SetDefault("providers.gemini.timeout", p.Gemini.Timeout)
	v.SetDefault("providers.gemini.max_retries", p.Gemini.MaxRetries)
	v.SetDefault("providers.ollama.url", p.Ollama.URL)
	v.SetDefault("providers.ollama.timeout", p.Ollama.Timeout)
	v.SetDefault("providers.ollama.max_retries", p.Ollama.MaxRetries)

	v.SetDefault("client.max_retries", 0)
	v.SetDefault("client.batch_concurrency", llm.DefaultBatchConcurrency)
	v.SetDefault("client.rate_limit_backoff", llm.DefaultRateLimitBackoff)

	v.SetDefault("templates.summarize", "prompts/prompts-summarize.yaml")
	v.SetDefault("templates.analyze", "prompts/prompts-analyze.yaml")

	v.SetDefault("summarize.chunk_size", 100000)
	v.SetDefault("summarize.overlap", 2500)
	v.SetDefault("summarize.min_size", 500)
	v.SetDefault("summarize.max_size", 1000)
	v.SetDefault("summarize.max_tokens_factor", 1.0)
	v.SetDefault("summarize.output_dir", "./summaries")
	v.SetDefault("summarize.log_dir", "")
	v.SetDefault("summarize.if_exists", "reuse")
	v.SetDefault("summarize.try_no_chunk", false)
	v.SetDefault("summarize.save_log", false)

	v.SetDefault("analyze.max_tokens", 256)
	v.SetDefault("analyze.use_examples", false)
	v.SetDefault("analyze.probabilities", false)

	v.SetDefault("database.path", "llmexperts.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("metrics.addr", "")
}

// Load returns a Viper instance with defaults, the config file and the
// environment applied. An empty configPath searches for llmexperts.yaml in
// ., ./configs and $HOME/.config/llmexperts; a missing file is not an error.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("llmexperts")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "llmexperts"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range providerEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Decode unmarshals v into Settings.
func Decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// ClientOptions returns the model client options shared by every command.
func (s Settings) ClientOptions() llm.Options {
	return llm.Options{
		Providers:        s.Providers,
		MaxRetries:       s.Client.MaxRetries,
		BatchConcurrency: s.Client.BatchConcurrency,
		RateLimitBackoff: s.Client.RateLimitBackoff,
	}
}
