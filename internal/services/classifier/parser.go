package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const defaultConfidence = 50

// Labels may be wrapped in markdown emphasis and values in brackets, e.g.
// "**CLASSIFICATION:** [FAKE]".
var (
	classificationPattern = regexp.MustCompile(`(?i)CLASSIFICATION[\s*_]*[:\-][\s*_\[]*(REAL|FAKE)`)
	confidencePattern     = regexp.MustCompile(`(?i)CONFIDENCE[\s*_]*[:\-][\s*_\[]*(\d{1,3})`)
	reasoningPattern      = regexp.MustCompile(`(?is)REASONING[\s*_]*[:\-][\s*_]*(.*)`)
)

// ParseFunc turns a raw model reply into a Verdict.
type ParseFunc func(raw string) (Verdict, error)

// ParseReply extracts the classification, confidence and reasoning from a
// free-text reply. Each field falls back independently: UNKNOWN, 50, and the
// whole reply respectively. It never returns an error; a panic while parsing
// yields UNKNOWN with confidence 0.
func ParseReply(raw string) (verdict Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Error parsing model response")
			verdict = Verdict{
				Classification: LabelUnknown,
				Confidence:     0,
				Reasoning:      strings.TrimSpace(raw),
				Raw:            raw,
			}
			err = nil
		}
	}()

	verdict = Verdict{
		Classification: LabelUnknown,
		Confidence:     defaultConfidence,
		Reasoning:      strings.TrimSpace(raw),
		Raw:            raw,
	}

	if m := classificationPattern.FindStringSubmatch(raw); m != nil {
		verdict.Classification = Label(strings.ToUpper(m[1]))
	}
	if m := confidencePattern.FindStringSubmatch(raw); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			verdict.Confidence = n
		}
	}
	verdict.Confidence = clampConfidence(verdict.Confidence)
	if m := reasoningPattern.FindStringSubmatch(raw); m != nil {
		verdict.Reasoning = strings.TrimSpace(m[1])
	}

	log.Info().
		Str("classification", string(verdict.Classification)).
		Int("confidence", verdict.Confidence).
		Msg("Parsed model response")
	return verdict, nil
}

func clampConfidence(n int) int {
	return max(0, min(100, n))
}
