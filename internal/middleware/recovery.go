package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"truthlens/internal/services/classifier"
)

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(classifier.NewErrorResponse(code, message)); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// Recovery turns a panic in a handler into a 500 JSON error.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error().
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("Panic recovered")
			writeError(w, http.StatusInternalServerError, classifier.ErrCodeInternal, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
