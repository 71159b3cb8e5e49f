package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// OllamaClient talks to the native Ollama generate API.
type OllamaClient struct {
	cfg          Config
	httpClient   *http.Client
	healthClient *http.Client
}

type ollamaGenerateRequest struct {
	Model       string        `json:"model"`
	Prompt      string        `json:"prompt"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	Options     ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

// NewOllamaClient builds a client for {BaseURL}/api/generate.
func NewOllamaClient(cfg Config, opts ...Option) *OllamaClient {
	cfg = cfg.withDefaults()
	o := applyOptions(opts)
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	log.Info().Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("Initialized Ollama client")
	return &OllamaClient{
		cfg:          cfg,
		httpClient:   httpClient,
		healthClient: &http.Client{Timeout: healthCheckTimeout, Transport: httpClient.Transport},
	}
}

func (c *OllamaClient) Name() string  { return ProviderOllama }
func (c *OllamaClient) Model() string { return c.cfg.Model }

// Generate posts prompt to the generate endpoint. Timeouts are retried up to
// MaxRetries total attempts; every other failure returns immediately.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, opts ...GenerateOption) (*Reply, error) {
	temperature := resolveTemperature(c.cfg.Temperature, opts)
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		Stream:      false,
		Temperature: temperature,
		Options: ollamaOptions{
			NumPredict:  c.cfg.MaxTokens,
			Temperature: temperature,
		},
	})
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Op: "ollama generate", Err: fmt.Errorf("encode body: %w", err)}
	}

	endpoint := c.cfg.BaseURL + "/api/generate"
	log.Info().Str("endpoint", endpoint).Msg("Sending request to Ollama")
	log.Debug().Int("prompt_length", len(prompt)).Msg("Prompt prepared")

	return withRetry(ctx, "ollama generate", c.cfg.MaxRetries, func() (*Reply, *Error) {
		return c.generateOnce(ctx, endpoint, payload)
	})
}

func (c *OllamaClient) generateOnce(ctx context.Context, endpoint string, payload []byte) (*Reply, *Error) {
	const op = "ollama generate"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindConnection, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, op, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &Error{
			Kind:       KindProtocol,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", snippet(string(body))),
		}
	}

	var reply *Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, &Error{Kind: KindDecode, Op: op, Err: err}
	}
	if reply == nil {
		return nil, &Error{Kind: KindDecode, Op: op, Err: errors.New("response body is null")}
	}
	if reply.Model == "" {
		reply.Model = c.cfg.Model
	}

	log.Info().Str("model", reply.Model).Int("eval_count", reply.EvalCount).Msg("Received response from Ollama")
	log.Debug().Str("response", snippet(reply.Text)).Msg("Ollama response")
	return reply, nil
}

// CheckHealth lists local models via /api/tags.
func (c *OllamaClient) CheckHealth(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		log.Error().Err(err).Msg("Ollama health check failed")
		return false
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Ollama health check failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		log.Error().Int("status", resp.StatusCode).Msg("Ollama health check failed")
		return false
	}
	log.Info().Msg("Ollama service is healthy")
	return true
}

func snippet(s string) string {
	const limit = 100
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "<empty>"
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return s
}
