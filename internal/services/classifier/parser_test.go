package classifier

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		label      Label
		confidence int
		reasoning  string
	}{
		{
			name:       "well formed real",
			raw:        "CLASSIFICATION: REAL\nCONFIDENCE: 95\nREASONING: The article cites verifiable sources.",
			label:      LabelReal,
			confidence: 95,
			reasoning:  "The article cites verifiable sources.",
		},
		{
			name:       "well formed fake",
			raw:        "\nCLASSIFICATION: FAKE\nCONFIDENCE: 90\nREASONING: Sensational language,\nclickbait phrases and unverified claims.\n",
			label:      LabelFake,
			confidence: 90,
			reasoning:  "Sensational language,\nclickbait phrases and unverified claims.",
		},
		{
			name:       "lower case and dashes",
			raw:        "classification - fake\nconfidence - 70%\nreasoning - odd claims",
			label:      LabelFake,
			confidence: 70,
			reasoning:  "odd claims",
		},
		{
			name:       "markdown decoration",
			raw:        "**CLASSIFICATION:** [REAL]\n**CONFIDENCE:** 80%\n**REASONING:** Matches agency reports.",
			label:      LabelReal,
			confidence: 80,
			reasoning:  "Matches agency reports.",
		},
		{
			name:       "plain prose",
			raw:        "  I am not sure what to make of this story.  ",
			label:      LabelUnknown,
			confidence: 50,
			reasoning:  "I am not sure what to make of this story.",
		},
		{
			name:       "label without known value",
			raw:        "CLASSIFICATION: MISLEADING\nCONFIDENCE: 60",
			label:      LabelUnknown,
			confidence: 60,
			reasoning:  "CLASSIFICATION: MISLEADING\nCONFIDENCE: 60",
		},
		{
			name:       "confidence above range",
			raw:        "CLASSIFICATION: REAL\nCONFIDENCE: 250\nREASONING: sure",
			label:      LabelReal,
			confidence: 100,
			reasoning:  "sure",
		},
		{
			name:       "negative looking confidence",
			raw:        "CLASSIFICATION: FAKE\nCONFIDENCE: -40\nREASONING: odd",
			label:      LabelFake,
			confidence: 50,
			reasoning:  "odd",
		},
		{
			name:       "empty reply",
			raw:        "",
			label:      LabelUnknown,
			confidence: 50,
			reasoning:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := ParseReply(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.label, verdict.Classification)
			assert.Equal(t, tt.confidence, verdict.Confidence)
			assert.Equal(t, tt.reasoning, verdict.Reasoning)
			assert.Equal(t, tt.raw, verdict.Raw)
		})
	}
}

func TestParseReplyConfidenceAlwaysInRange(t *testing.T) {
	for n := 0; n < 1000; n += 7 {
		for _, format := range []string{"CONFIDENCE: %d", "CONFIDENCE: -%d", "confidence:%d%%", "CONFIDENCE - %d0"} {
			verdict, err := ParseReply(fmt.Sprintf(format, n))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, verdict.Confidence, 0)
			assert.LessOrEqual(t, verdict.Confidence, 100)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Scientists discover water on Mars: 100% confirmed")

	assert.Contains(t, prompt, `"Scientists discover water on Mars: 100% confirmed"`)
	for _, label := range []string{"CLASSIFICATION:", "CONFIDENCE:", "REASONING:"} {
		assert.Equal(t, 1, strings.Count(prompt, "\n"+label), "label %s", label)
	}
	for _, factor := range []string{"Sensationalism", "verified", "Source credibility", "Logical consistency", "clickbait", "facts vs opinions"} {
		assert.Contains(t, prompt, factor)
	}
	assert.Equal(t, prompt, BuildPrompt("Scientists discover water on Mars: 100% confirmed"))
}
