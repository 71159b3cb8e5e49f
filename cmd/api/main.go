package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"truthlens/internal/cache"
	"truthlens/internal/config"
	httphandler "truthlens/internal/http"
	"truthlens/internal/logging"
	"truthlens/internal/middleware"
	"truthlens/internal/services/classifier"
	"truthlens/internal/services/llm"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server stopped")
}

func run() error {
	var (
		configPath = flag.String("config", os.Getenv("CONFIG_FILE"), "Path to a YAML config file")
		port       = flag.String("port", "", "Port to run the server on (overrides PORT)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("info", "")
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("Configuration is incomplete, classification requests will fail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	generator, err := llm.New(cfg.ModelConfig())
	if err != nil {
		return fmt.Errorf("create model client: %w", err)
	}

	opts := []classifier.Option{
		classifier.WithLengthBounds(cfg.Input.MinLength, cfg.Input.MaxLength),
		classifier.WithBatchMaxItems(cfg.Input.BatchMaxItems),
	}
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("Result cache disabled")
		} else {
			defer redisCache.Close()
			opts = append(opts, classifier.WithCache(redisCache, cfg.Redis.CacheTTL))
		}
	}
	service := classifier.NewService(generator, opts...)

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if service.CheckHealth(checkCtx) {
		log.Info().Str("url", cfg.EndpointURL()).Msg("Model service reachable")
	} else {
		log.Warn().Str("url", cfg.EndpointURL()).Msg("Model service not reachable, start it before classifying")
	}
	cancel()

	router := httphandler.NewRouter(httphandler.RouterOptions{
		Timeout:     cfg.HandlerTimeout(),
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			BurstSize:         cfg.RateLimit.BurstSize,
		},
	})
	router.RegisterClassifierRoutes(httphandler.NewClassifierHandler(service))
	router.RegisterHealthRoutes(service)

	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = cfg.HandlerTimeout() + 5*time.Second
	}
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("provider", service.Provider()).
			Str("model", service.Model()).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
