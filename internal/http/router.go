package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"truthlens/internal/middleware"
)

type Router struct {
	chi.Router
}

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	// Timeout bounds each request. It must cover every model attempt.
	Timeout     time.Duration
	CORSOrigins []string
	RateLimit   middleware.RateLimitConfig
}

func NewRouter(opts RouterOptions) *Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	if opts.Timeout > 0 {
		r.Use(chimiddleware.Timeout(opts.Timeout))
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Use(middleware.RateLimit(opts.RateLimit))

	return &Router{r}
}

// RegisterClassifierRoutes registers classification routes
func (r *Router) RegisterClassifierRoutes(h *ClassifierHandler) {
	h.RegisterRoutes(r)
}

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

type statusResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// RegisterHealthRoutes registers liveness and readiness routes. Readiness
// follows the model service.
func (r *Router) RegisterHealthRoutes(model HealthChecker) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Timestamp: time.Now().Format(time.RFC3339)})
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if !model.CheckHealth(req.Context()) {
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable", Timestamp: time.Now().Format(time.RFC3339)})
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ready", Timestamp: time.Now().Format(time.RFC3339)})
	})
}
