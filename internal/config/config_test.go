package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range providerEnv {
		t.Setenv(env, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	v, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if s.Model != "gpt-4o-2024-08-06" {
		t.Errorf("Model = %q", s.Model)
	}
	if s.Summarize.MaxSize != 1000 || s.Summarize.MinSize != 500 || s.Summarize.ChunkSize != 100000 {
		t.Errorf("Summarize = %+v", s.Summarize)
	}
	if s.Summarize.IfExists != "reuse" {
		t.Errorf("IfExists = %q, want reuse", s.Summarize.IfExists)
	}
	if s.Client.RateLimitBackoff != time.Minute {
		t.Errorf("RateLimitBackoff = %v, want 1m", s.Client.RateLimitBackoff)
	}
	if s.Providers.OpenAI.BaseURL != "https://api.openai.com" {
		t.Errorf("OpenAI.BaseURL = %q", s.Providers.OpenAI.BaseURL)
	}
	if s.Providers.Ollama.URL != "http://localhost:11434" {
		t.Errorf("Ollama.URL = %q", s.Providers.Ollama.URL)
	}
	if s.Analyze.MaxTokens != 256 {
		t.Errorf("Analyze.MaxTokens = %d, want 256", s.Analyze.MaxTokens)
	}
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `model: claude-3-haiku-20240307
summarize:
  max_size: 400
  chunk_size: 0.25
providers:
  anthropic:
    timeout: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v.ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed() = %q, want %q", v.ConfigFileUsed(), path)
	}
	s, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if s.Model != "claude-3-haiku-20240307" {
		t.Errorf("Model = %q", s.Model)
	}
	if s.Summarize.MaxSize != 400 || s.Summarize.ChunkSize != 0.25 {
		t.Errorf("Summarize = %+v", s.Summarize)
	}
	if s.Summarize.MinSize != 500 {
		t.Errorf("MinSize = %d, want default 500", s.Summarize.MinSize)
	}
	if s.Providers.Anthropic.Timeout != 30*time.Second {
		t.Errorf("Anthropic.Timeout = %v, want 30s", s.Providers.Anthropic.Timeout)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("LLMX_SUMMARIZE_MAX_SIZE", "2000")
	t.Setenv("OPENAI_API_KEY", "sk-conventional")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("LLMX_PROVIDERS_ANTHROPIC_API_KEY", "sk-ant-prefixed")
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")

	v, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s, err := Decode(v)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if s.Summarize.MaxSize != 2000 {
		t.Errorf("MaxSize = %d, want 2000", s.Summarize.MaxSize)
	}
	if s.Providers.OpenAI.APIKey != "sk-conventional" {
		t.Errorf("OpenAI.APIKey = %q", s.Providers.OpenAI.APIKey)
	}
	if s.Providers.Anthropic.APIKey != "sk-ant-prefixed" {
		t.Errorf("Anthropic.APIKey = %q, want the prefixed variable to win", s.Providers.Anthropic.APIKey)
	}
	if s.Providers.Ollama.URL != "http://gpu-box:11434" {
		t.Errorf("Ollama.URL = %q", s.Providers.Ollama.URL)
	}
}

func TestSettings_ClientOptions(t *testing.T) {
	s := Settings{Client: ClientSettings{MaxRetries: 3, BatchConcurrency: 8, RateLimitBackoff: 5 * time.Second}}
	s.Providers.OpenAI.APIKey = "k"

	opts := s.ClientOptions()
	if opts.MaxRetries != 3 || opts.BatchConcurrency != 8 || opts.RateLimitBackoff != 5*time.Second {
		t.Errorf("ClientOptions() = %+v", opts)
	}
	if opts.Providers.OpenAI.APIKey != "k" {
		t.Errorf("Providers not carried over: %+v", opts.Providers)
	}
}
