package llm

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

type clientOptions struct {
	httpClient *http.Client
}

// Option customizes a provider client.
type Option func(*clientOptions)

// WithHTTPClient overrides the HTTP client used for generate calls. The
// client's Timeout bounds each attempt.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func applyOptions(opts []Option) clientOptions {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// withRetry runs attempt up to maxAttempts times, re-issuing it only after a
// timeout. Attempts run back to back with no delay.
func withRetry(ctx context.Context, op string, maxAttempts int, attempt func() (*Reply, *Error)) (*Reply, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr *Error
	for n := 1; n <= maxAttempts; n++ {
		reply, err := attempt()
		if err == nil {
			return reply, nil
		}
		err.Attempts = n
		lastErr = err

		if !err.Kind.Retryable() || ctx.Err() != nil {
			log.Error().Err(err).Str("op", op).Msg("Model request failed")
			return nil, err
		}
		log.Warn().
			Str("op", op).
			Int("attempt", n).
			Int("max_attempts", maxAttempts).
			Msg("Model request timed out")
	}

	log.Error().Err(lastErr).Str("op", op).Msg("Max retries reached, model request failed")
	return nil, lastErr
}
