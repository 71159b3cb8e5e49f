package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truthlens/internal/services/llm"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3:8b", cfg.LLM.Model)
	assert.Equal(t, 120, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 500, cfg.LLM.MaxTokens)
	assert.Equal(t, 10, cfg.Input.MinLength)
	assert.Equal(t, 10000, cfg.Input.MaxLength)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Zero(t, cfg.RateLimit.RequestsPerMinute)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434")
	t.Setenv("OLLAMA_MODEL", "gemma:latest")
	t.Setenv("REQUEST_TIMEOUT", "30")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("TEMPERATURE", "0.4")
	t.Setenv("MAX_TOKENS", "256")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "gemma:latest", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 256, cfg.LLM.MaxTokens)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_RETRIES", "lots")
	t.Setenv("TEMPERATURE", "warm")
	t.Setenv("READ_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truthlens.yaml")
	data := []byte(`
server:
  port: "7000"
llm:
  model: mistral:7b
  max_retries: 2
input:
  batch_max_items: 5
redis:
  addr: localhost:6379
rate_limit:
  requests_per_minute: 30
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("OLLAMA_MODEL", "phi3:mini")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "phi3:mini", cfg.LLM.Model, "environment wins over file")
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, 5, cfg.Input.BatchMaxItems)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL, "unset keys keep defaults")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "llama3:8b", cfg.LLM.Model)
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LLM.BaseURL = " "
	cfg.LLM.Model = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OLLAMA_BASE_URL")
	assert.Contains(t, err.Error(), "OLLAMA_MODEL")
}

func TestValidateChecksSelectedProviderURL(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.OpenAIBaseURL = ""
	cfg.LLM.BaseURL = "http://localhost:11434"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_BASE_URL")
	assert.NotContains(t, err.Error(), "OLLAMA_BASE_URL")

	cfg.LLM.OpenAIBaseURL = "http://localhost:11434/v1"
	cfg.LLM.BaseURL = ""
	assert.NoError(t, cfg.Validate(), "unused ollama URL must not be required")
}

func TestHandlerTimeoutCoversAllAttempts(t *testing.T) {
	cfg := Default()
	cfg.LLM.TimeoutSeconds = 10
	cfg.LLM.MaxRetries = 3
	assert.Equal(t, 60*time.Second, cfg.HandlerTimeout())

	cfg.LLM.MaxRetries = 0
	assert.Equal(t, 40*time.Second, cfg.HandlerTimeout())
}

func TestModelConfig(t *testing.T) {
	cfg := Default()
	mc := cfg.ModelConfig()
	assert.Equal(t, llm.ProviderOllama, mc.Provider)
	assert.Equal(t, "http://localhost:11434", mc.BaseURL)
	assert.Equal(t, 120*time.Second, mc.Timeout)
	assert.Empty(t, mc.APIKey)

	cfg.LLM.Provider = "openai"
	cfg.LLM.OpenAIAPIKey = "sk-test"
	mc = cfg.ModelConfig()
	assert.Equal(t, "http://localhost:11434/v1", mc.BaseURL)
	assert.Equal(t, "sk-test", mc.APIKey)
	assert.Equal(t, mc.BaseURL, cfg.EndpointURL())
}
