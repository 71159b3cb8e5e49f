package preprocess

import (
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

// allowedPunctuation is the punctuation kept by Clean. Every other symbol or
// punctuation rune is dropped.
const allowedPunctuation = ".,!?;:'-"

// Clean normalizes news text before it is sent to the model.
//
// Runes outside letters, combining marks, numbers, underscore, whitespace and
// the allowed punctuation are removed, runs of the same allowed punctuation
// mark are collapsed to one, whitespace runs become a single space, and the
// result is NFC composed. Clean is idempotent. If cleaning panics the input is
// returned unchanged.
func Clean(text string) (cleaned string) {
	if strings.TrimSpace(text) == "" {
		log.Warn().Msg("Empty text provided for cleaning")
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Error cleaning text")
			cleaned = text
		}
	}()

	var b strings.Builder
	b.Grow(len(text))

	var prev rune
	for _, r := range strings.ToValidUTF8(text, "") {
		if !keepRune(r) {
			continue
		}
		// Compare against the last rune written, not the last rune read, so
		// "!@!" collapses to "!" once the "@" is gone.
		if r == prev && isAllowedPunctuation(r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}

	cleaned = norm.NFC.String(strings.Join(strings.Fields(b.String()), " "))
	log.Debug().Int("length", len([]rune(cleaned))).Msg("Text cleaned")
	return cleaned
}

func keepRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsNumber(r):
		return true
	case unicode.IsSpace(r):
		return true
	case r == '_':
		return true
	default:
		return isAllowedPunctuation(r)
	}
}

func isAllowedPunctuation(r rune) bool {
	return strings.ContainsRune(allowedPunctuation, r)
}
