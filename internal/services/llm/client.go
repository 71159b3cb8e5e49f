package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	defaultBaseURL     = "http://localhost:11434"
	defaultModel       = "llama3:8b"
	defaultTimeout     = 120 * time.Second
	defaultMaxRetries  = 3
	defaultTemperature = 0.1
	defaultMaxTokens   = 500
	healthCheckTimeout = 5 * time.Second
)

// Reply is the text produced by the model plus the metadata the endpoint
// reported. Missing metadata is left at its zero value.
type Reply struct {
	Text            string        `json:"response"`
	Model           string        `json:"model"`
	TotalDuration   time.Duration `json:"total_duration"`
	LoadDuration    time.Duration `json:"load_duration"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Generator sends a prompt to a language model and returns its free-text reply.
type Generator interface {
	// Generate returns the model reply or an *Error describing why none was produced.
	Generate(ctx context.Context, prompt string, opts ...GenerateOption) (*Reply, error)

	// CheckHealth reports whether the model service answers. It never errors.
	CheckHealth(ctx context.Context) bool

	Name() string
	Model() string
}

// Config captures the runtime settings shared by all providers.
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

func (c Config) withDefaults() Config {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Model = strings.TrimSpace(c.Model)
	if c.Provider == "" {
		c.Provider = ProviderOllama
	}
	if c.BaseURL == "" && c.Provider == ProviderOllama {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	return c
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOllama,
		BaseURL:     defaultBaseURL,
		Model:       defaultModel,
		Timeout:     defaultTimeout,
		MaxRetries:  defaultMaxRetries,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
}

// New builds the Generator selected by cfg.Provider.
func New(cfg Config, opts ...Option) (Generator, error) {
	cfg = cfg.withDefaults()
	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaClient(cfg, opts...), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

type generateOptions struct {
	temperature *float64
}

// GenerateOption customizes a single Generate call.
type GenerateOption func(*generateOptions)

// WithTemperature overrides the configured sampling temperature for one call.
func WithTemperature(t float64) GenerateOption {
	return func(o *generateOptions) {
		o.temperature = &t
	}
}

func resolveTemperature(def float64, opts []GenerateOption) float64 {
	var o generateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.temperature != nil {
		return *o.temperature
	}
	return def
}
