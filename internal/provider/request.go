package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inkwell-systems/promptsmith/internal/review"
)

// reviewRequestTemplate is the user-facing message both providers send. It
// embeds the prompt under review and pins the reply to a JSON object with
// exactly the five review keys, including a worked ratings example.
const reviewRequestTemplate = `Please review this AI prompt and provide detailed feedback.

**Prompt to Review:**
%s

Please provide your response in JSON format with these exact keys:
{
    "suggested_prompt": "An improved version of the prompt",
    "questions": ["question 1", "question 2", "question 3"],
    "refinements": ["refinement 1", "refinement 2", "refinement 3"],
    "ratings": {
        "length": 7.5,
        "complexity": 6.0,
        "specificity": 8.0,
        "clarity": 7.0,
        "creativity": 6.5,
        "context": 7.0
    },
    "feedback": "General encouraging feedback with security considerations"
}

Ensure ratings are numbers between 0-10.`

// BuildReviewRequest renders the review request for a prompt.
func BuildReviewRequest(promptText string) string {
	return fmt.Sprintf(reviewRequestTemplate, promptText)
}

// ExtractJSON pulls a JSON object out of raw model text. It prefers a
// json-tagged fenced block, then a bare fenced block, then a raw parse.
func ExtractJSON(text string) (map[string]any, error) {
	candidate := text

	if idx := strings.Index(text, "```json"); idx >= 0 {
		start := idx + len("```json")
		if end := strings.Index(text[start:], "```"); end >= 0 {
			candidate = strings.TrimSpace(text[start : start+end])
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		start := idx + len("```")
		if end := strings.Index(text[start:], "```"); end >= 0 {
			candidate = strings.TrimSpace(text[start : start+end])
		}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return parsed, nil
}

// parseReviewReply extracts JSON from a raw reply and checks the review
// schema. A schema miss is reported as a parse failure so the caller's retry
// policy treats both identically.
func parseReviewReply(raw string) (map[string]any, error) {
	parsed, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	if !review.ValidateSchema(parsed) {
		return nil, fmt.Errorf("%w: response missing required fields", ErrParse)
	}
	return parsed, nil
}
