package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"truthlens/internal/services/llm"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Input     InputConfig     `yaml:"input"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	OpenAIBaseURL  string  `yaml:"openai_base_url"`
	OpenAIAPIKey   string  `yaml:"openai_api_key"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

type InputConfig struct {
	MinLength     int `yaml:"min_length"`
	MaxLength     int `yaml:"max_length"`
	BatchMaxItems int `yaml:"batch_max_items"`
}

// RedisConfig enables the result cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// RateLimitConfig is disabled when RequestsPerMinute is 0.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        "8080",
			ReadTimeout: 30 * time.Second,
			IdleTimeout: 60 * time.Second,
			CORSOrigins: []string{"*"},
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			BaseURL:        "http://localhost:11434",
			Model:          "llama3:8b",
			OpenAIBaseURL:  "http://localhost:11434/v1",
			TimeoutSeconds: 120,
			MaxRetries:     3,
			Temperature:    0.1,
			MaxTokens:      500,
		},
		Input: InputConfig{
			MinLength:     10,
			MaxLength:     10000,
			BatchMaxItems: 20,
		},
		Redis: RedisConfig{
			CacheTTL: time.Hour,
		},
		RateLimit: RateLimitConfig{
			BurstSize: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when empty or missing), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// Validate reports settings the service cannot work without. Callers log the
// error and keep running.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.EndpointURL()) == "" {
		urlKey := "OLLAMA_BASE_URL"
		if strings.EqualFold(c.LLM.Provider, llm.ProviderOpenAI) {
			urlKey = "OPENAI_BASE_URL"
		}
		errs = append(errs, fmt.Errorf("%s must be set for provider %q", urlKey, c.LLM.Provider))
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		errs = append(errs, errors.New("OLLAMA_MODEL must be set"))
	}
	return errors.Join(errs...)
}

// RequestTimeout is the per-attempt model timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// HandlerTimeout bounds one HTTP request: every model attempt plus slack.
func (c *Config) HandlerTimeout() time.Duration {
	retries := max(c.LLM.MaxRetries, 1)
	return c.RequestTimeout()*time.Duration(retries) + 30*time.Second
}

// EndpointURL is the base URL of the selected provider.
func (c *Config) EndpointURL() string {
	if strings.EqualFold(c.LLM.Provider, llm.ProviderOpenAI) {
		return c.LLM.OpenAIBaseURL
	}
	return c.LLM.BaseURL
}

// ModelConfig translates the LLM section into client settings.
func (c *Config) ModelConfig() llm.Config {
	cfg := llm.Config{
		Provider:    c.LLM.Provider,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Timeout:     c.RequestTimeout(),
		MaxRetries:  c.LLM.MaxRetries,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
	}
	if strings.EqualFold(c.LLM.Provider, llm.ProviderOpenAI) {
		cfg.BaseURL = c.LLM.OpenAIBaseURL
		cfg.APIKey = c.LLM.OpenAIAPIKey
	}
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.CORSOrigins = getEnvAsList("CORS_ORIGINS", cfg.Server.CORSOrigins)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.BaseURL = getEnv("OLLAMA_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("OLLAMA_MODEL", cfg.LLM.Model)
	cfg.LLM.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.LLM.OpenAIBaseURL)
	cfg.LLM.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("REQUEST_TIMEOUT", cfg.LLM.TimeoutSeconds)
	cfg.LLM.MaxRetries = getEnvAsInt("MAX_RETRIES", cfg.LLM.MaxRetries)
	cfg.LLM.Temperature = getEnvAsFloat("TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.MaxTokens = getEnvAsInt("MAX_TOKENS", cfg.LLM.MaxTokens)

	cfg.Input.MinLength = getEnvAsInt("INPUT_MIN_LENGTH", cfg.Input.MinLength)
	cfg.Input.MaxLength = getEnvAsInt("INPUT_MAX_LENGTH", cfg.Input.MaxLength)
	cfg.Input.BatchMaxItems = getEnvAsInt("BATCH_MAX_ITEMS", cfg.Input.BatchMaxItems)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.CacheTTL = getEnvAsDuration("CACHE_TTL", cfg.Redis.CacheTTL)

	cfg.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", cfg.RateLimit.BurstSize)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
