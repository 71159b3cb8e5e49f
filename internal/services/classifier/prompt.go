package classifier

import "fmt"

const classificationPrompt = `You are an expert fact-checker and misinformation analyst. Analyze the following news article or headline and determine if it is REAL or FAKE news.

Consider the following factors:
1. Sensationalism and emotional manipulation
2. Factual claims that can be verified
3. Source credibility indicators
4. Logical consistency and coherence
5. Use of clickbait language
6. Presence of verifiable facts vs opinions

News Article/Headline:
"%s"

Provide your analysis in the following format:

CLASSIFICATION: [REAL or FAKE]
CONFIDENCE: [A percentage from 0-100]
REASONING: [Detailed explanation of your decision, highlighting specific indicators]

Be thorough and analytical in your reasoning.`

// BuildPrompt embeds cleaned text verbatim in the classification instructions.
func BuildPrompt(text string) string {
	return fmt.Sprintf(classificationPrompt, text)
}
