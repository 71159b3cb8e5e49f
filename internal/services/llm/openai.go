package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog/log"
)

// OpenAIClient talks to any OpenAI compatible chat completion endpoint,
// including the one Ollama serves under /v1.
type OpenAIClient struct {
	client openai.Client
	cfg    Config
}

func NewOpenAIClient(cfg Config, opts ...Option) (*OpenAIClient, error) {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires a base URL or an API key")
	}

	// Ollama ignores the key but the SDK refuses to send a request without one.
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL+"/"))
	}
	if o := applyOptions(opts); o.httpClient != nil {
		requestOpts = append(requestOpts, option.WithHTTPClient(o.httpClient))
	}

	log.Info().Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("Initialized OpenAI compatible client")
	return &OpenAIClient{
		client: openai.NewClient(requestOpts...),
		cfg:    cfg,
	}, nil
}

func (c *OpenAIClient) Name() string  { return ProviderOpenAI }
func (c *OpenAIClient) Model() string { return c.cfg.Model }

// Generate sends prompt as a single user message. The SDK's own retries are
// disabled so timeouts follow the same attempt budget as the Ollama client.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (*Reply, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(resolveTemperature(c.cfg.Temperature, opts)),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	}

	log.Info().Str("model", c.cfg.Model).Msg("Sending chat completion request")
	return withRetry(ctx, "openai generate", c.cfg.MaxRetries, func() (*Reply, *Error) {
		return c.generateOnce(ctx, params)
	})
}

func (c *OpenAIClient) generateOnce(ctx context.Context, params openai.ChatCompletionNewParams) (*Reply, *Error) {
	const op = "openai generate"

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		switch {
		case errors.As(err, &apiErr):
			return nil, &Error{Kind: KindProtocol, Op: op, StatusCode: apiErr.StatusCode, Err: err}
		case isDecodeError(err):
			return nil, &Error{Kind: KindDecode, Op: op, Err: err}
		default:
			return nil, classifyTransportError(ctx, op, err)
		}
	}

	reply := &Reply{
		Model:           completion.Model,
		PromptEvalCount: int(completion.Usage.PromptTokens),
		EvalCount:       int(completion.Usage.CompletionTokens),
	}
	if len(completion.Choices) > 0 {
		reply.Text = completion.Choices[0].Message.Content
	}
	if reply.Model == "" {
		reply.Model = c.cfg.Model
	}
	return reply, nil
}

// CheckHealth lists the models exposed by the endpoint.
func (c *OpenAIClient) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if _, err := c.client.Models.List(ctx); err != nil {
		log.Error().Err(err).Msg("OpenAI compatible health check failed")
		return false
	}
	log.Info().Msg("OpenAI compatible service is healthy")
	return true
}
