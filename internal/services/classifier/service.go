package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"truthlens/internal/cache"
	"truthlens/internal/services/llm"
	"truthlens/internal/services/preprocess"
)

const (
	communicationFailureMessage = "communication failure: unable to reach the language model service, please ensure it is running"
	parseFailureMessage         = "parse failure: the model response could not be interpreted"

	DefaultBatchMaxItems = 20
)

// ResultCache stores successful results between calls. *cache.RedisCache
// satisfies it.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service validates, cleans and classifies news text with a language model.
type Service struct {
	generator     llm.Generator
	parse         ParseFunc
	minLength     int
	maxLength     int
	batchMaxItems int

	cache    ResultCache
	cacheTTL time.Duration
	inflight singleflight.Group
}

// Option customizes a Service.
type Option func(*Service)

// WithLengthBounds overrides the accepted input length in runes.
func WithLengthBounds(minLength, maxLength int) Option {
	return func(s *Service) {
		if minLength > 0 {
			s.minLength = minLength
		}
		if maxLength > 0 {
			s.maxLength = maxLength
		}
	}
}

// WithCache enables result caching. A nil cache leaves caching off.
func WithCache(c ResultCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithParser replaces ParseReply.
func WithParser(parse ParseFunc) Option {
	return func(s *Service) {
		if parse != nil {
			s.parse = parse
		}
	}
}

// WithBatchMaxItems caps the number of texts accepted by ClassifyBatch.
func WithBatchMaxItems(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchMaxItems = n
		}
	}
}

// NewService creates a new classification Service.
func NewService(generator llm.Generator, opts ...Option) *Service {
	s := &Service{
		generator:     generator,
		parse:         ParseReply,
		minLength:     preprocess.DefaultMinLength,
		maxLength:     preprocess.DefaultMaxLength,
		batchMaxItems: DefaultBatchMaxItems,
		cacheTTL:      cache.ResultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	log.Info().
		Str("provider", generator.Name()).
		Str("model", generator.Model()).
		Bool("cache", s.cache != nil).
		Msg("Classifier initialized")
	return s
}

// BatchMaxItems is the largest batch ClassifyBatch accepts.
func (s *Service) BatchMaxItems() int {
	return s.batchMaxItems
}

// Provider returns the name of the model provider.
func (s *Service) Provider() string {
	return s.generator.Name()
}

// Model returns the configured model identifier.
func (s *Service) Model() string {
	return s.generator.Model()
}

// Classify runs validation, cleaning, the model call and reply parsing in that
// order. Validation failures never reach the model. The returned Result always
// has either a verdict or an error message.
func (s *Service) Classify(ctx context.Context, text string) Result {
	id := uuid.NewString()
	logger := log.With().Str("classification_id", id).Logger()
	logger.Info().Msg("Starting classification")

	if err := preprocess.Validate(text, s.minLength, s.maxLength); err != nil {
		logger.Warn().Err(err).Msg("Input validation failed")
		return failure(id, FailureValidation, err.Error(), "")
	}

	cleaned := preprocess.Clean(text)
	features := preprocess.ExtractFeatures(cleaned)
	logger.Debug().Interface("features", features).Msg("Text features")

	key := cache.ResultKey(s.generator.Model(), cleaned)
	if cached, ok := s.lookup(ctx, key); ok {
		cached.ID = id
		cached.Cached = true
		logger.Info().Msg("Classification served from cache")
		return cached
	}

	reply, err := s.generate(ctx, key, BuildPrompt(cleaned))
	if err != nil {
		logger.Error().Err(err).Str("kind", llm.KindOf(err).String()).Msg("Failed to get response from model")
		return failure(id, FailureCommunication, communicationFailureMessage, "")
	}

	verdict, err := s.parse(reply.Text)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse model response")
		return failure(id, FailureParse, parseFailureMessage, reply.Text)
	}

	result := Result{
		ID:             id,
		Success:        true,
		Classification: verdict.Classification,
		Confidence:     clampConfidence(verdict.Confidence),
		Reasoning:      verdict.Reasoning,
		Features:       &features,
		ModelInfo: &ModelInfo{
			Model:           reply.Model,
			EvalCount:       reply.EvalCount,
			PromptEvalCount: reply.PromptEvalCount,
			TotalDuration:   reply.TotalDuration,
		},
	}
	s.store(ctx, key, result)

	logger.Info().
		Str("classification", string(result.Classification)).
		Int("confidence", result.Confidence).
		Msg("Classification completed")
	return result
}

// ClassifyBatch classifies texts one after another and returns results in the
// same order.
func (s *Service) ClassifyBatch(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, errors.New("at least one text is required")
	}
	if len(texts) > s.batchMaxItems {
		return nil, fmt.Errorf("batch too large: %d texts, maximum %d", len(texts), s.batchMaxItems)
	}

	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		results = append(results, s.Classify(ctx, text))
	}
	return results, nil
}

// CheckHealth reports whether the model service is reachable.
func (s *Service) CheckHealth(ctx context.Context) bool {
	return s.generator.CheckHealth(ctx)
}

// generate calls the model. With a cache configured, concurrent calls for the
// same key share one model request. The shared request is detached from any
// single caller's cancellation and is bounded by the client's per-attempt
// timeout; each caller stops waiting when its own ctx is done.
func (s *Service) generate(ctx context.Context, key, prompt string) (*llm.Reply, error) {
	if s.cache == nil {
		return s.generator.Generate(ctx, prompt)
	}

	ch := s.inflight.DoChan(key, func() (any, error) {
		return s.generator.Generate(context.WithoutCancel(ctx), prompt)
	})

	select {
	case <-ctx.Done():
		return nil, &llm.Error{Kind: llm.KindCanceled, Op: "classify", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			if llm.KindOf(res.Err) == llm.KindCanceled && ctx.Err() == nil {
				log.Debug().Str("key", key).Msg("Shared model request canceled, retrying for live caller")
				return s.generator.Generate(ctx, prompt)
			}
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Str("key", key).Msg("Shared in-flight model request")
		}
		return res.Val.(*llm.Reply), nil
	}
}

func (s *Service) lookup(ctx context.Context, key string) (Result, bool) {
	if s.cache == nil {
		return Result{}, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			log.Warn().Err(err).Msg("Result cache lookup failed")
		}
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil || !result.Success {
		log.Warn().Err(err).Str("key", key).Msg("Ignoring unreadable cached result")
		return Result{}, false
	}
	return result, true
}

func (s *Service) store(ctx context.Context, key string, result Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		log.Warn().Err(err).Msg("Result cache store failed")
	}
}

func failure(id string, kind FailureKind, message, reasoning string) Result {
	return Result{
		ID:        id,
		Success:   false,
		Error:     message,
		Reasoning: reasoning,
		Failure:   kind,
	}
}
