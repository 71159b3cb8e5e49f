package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"truthlens/internal/services/classifier"
)

// maxBodyBytes bounds request bodies; a full batch of maximum-length texts fits.
const maxBodyBytes = 4 << 20

// ClassifierHandler serves the classification API.
type ClassifierHandler struct {
	service *classifier.Service
}

// NewClassifierHandler creates a new ClassifierHandler
func NewClassifierHandler(service *classifier.Service) *ClassifierHandler {
	return &ClassifierHandler{service: service}
}

// RegisterRoutes registers all classification routes
func (h *ClassifierHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/classify", h.Classify)
		r.Post("/classify/batch", h.ClassifyBatch)
		r.Get("/model/health", h.ModelHealth)
	})
}

// Classify handles a single classification request.
func (h *ClassifierHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifier.ClassifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, classifier.ErrCodeBadRequest, err.Error())
		return
	}

	result := h.service.Classify(r.Context(), req.Text)
	writeJSON(w, statusFor(result), result)
}

// ClassifyBatch handles up to BatchMaxItems texts in one request. Per-text
// failures are reported inside each result and do not change the status.
func (h *ClassifierHandler) ClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req classifier.BatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, classifier.ErrCodeBadRequest, err.Error())
		return
	}

	results, err := h.service.ClassifyBatch(r.Context(), req.Texts)
	if err != nil {
		writeError(w, http.StatusBadRequest, classifier.ErrCodeValidation, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, classifier.BatchResponse{Results: results})
}

// ModelHealth reports whether the model service is reachable.
func (h *ClassifierHandler) ModelHealth(w http.ResponseWriter, r *http.Request) {
	resp := classifier.HealthResponse{
		Healthy:  h.service.CheckHealth(r.Context()),
		Provider: h.service.Provider(),
		Model:    h.service.Model(),
	}
	status := http.StatusOK
	if !resp.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func statusFor(result classifier.Result) int {
	switch result.Failure {
	case classifier.FailureValidation:
		return http.StatusBadRequest
	case classifier.FailureCommunication:
		return http.StatusBadGateway
	case classifier.FailureParse:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &tooLarge):
			return errors.New("request body too large")
		default:
			return errors.New("invalid request body")
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, classifier.NewErrorResponse(code, message))
}
