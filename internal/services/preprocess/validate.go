package preprocess

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMinLength = 10
	DefaultMaxLength = 10000
)

// Validation failure codes.
const (
	CodeEmpty     = "empty"
	CodeTooShort  = "too_short"
	CodeTooLong   = "too_long"
	CodeNoLetters = "no_letters"
)

// ValidationError describes why input text was rejected. Message is safe to
// show to end users.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the trimmed text against the length bounds and requires at
// least one Unicode letter. Checks run in that order and the first failure is
// returned. Lengths are counted in runes.
func Validate(text string, minLength, maxLength int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{Code: CodeEmpty, Message: "Text cannot be empty"}
	}

	length := utf8.RuneCountInString(trimmed)
	if length < minLength {
		return &ValidationError{
			Code:    CodeTooShort,
			Message: fmt.Sprintf("Text too short. Minimum %d characters required", minLength),
		}
	}
	if length > maxLength {
		return &ValidationError{
			Code:    CodeTooLong,
			Message: fmt.Sprintf("Text too long. Maximum %d characters allowed", maxLength),
		}
	}

	if !strings.ContainsFunc(trimmed, unicode.IsLetter) {
		return &ValidationError{Code: CodeNoLetters, Message: "Text must contain alphabetic characters"}
	}

	log.Debug().Int("length", length).Msg("Input validation passed")
	return nil
}
