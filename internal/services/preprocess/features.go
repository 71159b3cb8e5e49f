package preprocess

import (
	"strings"
	"unicode"
)

// Features are descriptive counts logged alongside a classification. They
// never influence the verdict.
type Features struct {
	Length           int     `json:"length"`
	WordCount        int     `json:"word_count"`
	ExclamationCount int     `json:"exclamation_count"`
	QuestionCount    int     `json:"question_count"`
	UppercaseRatio   float64 `json:"uppercase_ratio"`
	// HasClickbaitWords is always false. The English keyword list it used to
	// be computed from does not apply to multilingual input.
	HasClickbaitWords bool `json:"has_clickbait_words"`
}

// ExtractFeatures computes Features for text.
func ExtractFeatures(text string) Features {
	var length, upper int
	for _, r := range text {
		length++
		if unicode.IsUpper(r) {
			upper++
		}
	}

	features := Features{
		Length:           length,
		WordCount:        len(strings.Fields(text)),
		ExclamationCount: strings.Count(text, "!"),
		QuestionCount:    strings.Count(text, "?"),
	}
	if length > 0 {
		features.UppercaseRatio = float64(upper) / float64(length)
	}
	return features
}
