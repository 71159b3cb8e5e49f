package classifier

import (
	"time"

	"truthlens/internal/services/preprocess"
)

// Label is the verdict attached to a piece of news text.
type Label string

const (
	LabelReal    Label = "REAL"
	LabelFake    Label = "FAKE"
	LabelUnknown Label = "UNKNOWN"
)

// FailureKind records which stage stopped an unsuccessful classification.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureValidation
	FailureCommunication
	FailureParse
)

// Result is the outcome of one classification call. On success Classification,
// Confidence, Reasoning, Features and ModelInfo are set; on failure only Error
// is meaningful.
type Result struct {
	ID             string               `json:"id"`
	Success        bool                 `json:"success"`
	Classification Label                `json:"classification,omitempty"`
	Confidence     int                  `json:"confidence"`
	Reasoning      string               `json:"reasoning,omitempty"`
	Features       *preprocess.Features `json:"features,omitempty"`
	ModelInfo      *ModelInfo           `json:"model_info,omitempty"`
	Cached         bool                 `json:"cached,omitempty"`
	Error          string               `json:"error,omitempty"`

	Failure FailureKind `json:"-"`
}

// ModelInfo describes the model run that produced a Result.
type ModelInfo struct {
	Model           string        `json:"model"`
	EvalCount       int           `json:"eval_count"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	TotalDuration   time.Duration `json:"total_duration"`
}

// Verdict is the structured content extracted from a model reply.
type Verdict struct {
	Classification Label
	Confidence     int
	Reasoning      string
	Raw            string
}

// ClassifyRequest is the HTTP request body for a single classification.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// BatchRequest is the HTTP request body for a batch classification.
type BatchRequest struct {
	Texts []string `json:"texts"`
}

// BatchResponse holds results in request order.
type BatchResponse struct {
	Results []Result `json:"results"`
}

// HealthResponse reports model service availability.
type HealthResponse struct {
	Healthy  bool   `json:"healthy"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeRateLimit  = "RATE_LIMIT"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// NewErrorResponse creates a new error response
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}
