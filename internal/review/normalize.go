package review

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// The normalizer turns heterogeneous, possibly malformed provider output into
// the canonical Result shape. All functions are pure and deterministic, and
// idempotent: normalizing already-normalized output is a no-op.

var (
	codeFenceOpen  = regexp.MustCompile("^```[\\w]*\n?")
	codeFenceClose = regexp.MustCompile("\n?```$")
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	boldMarkers    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicMarkers  = regexp.MustCompile(`\*([^*]+)\*`)
	leadingBullet  = regexp.MustCompile(`^[-*•]\s*`)
	headerMarkers  = regexp.MustCompile(`(?m)^#+\s+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

const maxQuestions = 10
const maxRefinements = 15
const maxFeedbackLen = 500

// Normalize converts a parsed provider reply into a canonical Result. Raw
// questions, refinements and feedback are retained alongside the cleaned
// values; persona, ai_used and error metadata pass through unchanged.
func Normalize(raw map[string]any) Result {
	result := Result{
		SuggestedPrompt: NormalizeSuggestedPrompt(raw["suggested_prompt"]),
		Questions:       NormalizeQuestions(raw["questions"]),
		Refinements:     NormalizeRefinements(raw["refinements"]),
		Ratings:         NormalizeRatings(raw["ratings"]),
		Feedback:        NormalizeFeedback(raw["feedback"]),
	}

	result.RawQuestions = stringItems(raw["questions"])
	result.RawRefinements = stringItems(raw["refinements"])
	if s, ok := raw["feedback"].(string); ok {
		result.RawFeedback = s
	}

	if persona, ok := raw["persona"].(string); ok {
		result.Persona = persona
	}
	if aiUsed, ok := raw["ai_used"].(bool); ok {
		result.AIUsed = aiUsed
	}
	if errMsg, ok := raw["error"].(string); ok {
		result.Error = errMsg
	}

	return result
}

// NormalizeSuggestedPrompt cleans the revised prompt text: trims whitespace,
// strips one layer of code fencing and one layer of matching quotes, and
// collapses runs of 3+ newlines to exactly 2.
func NormalizeSuggestedPrompt(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}

	cleaned := strings.TrimSpace(s)
	cleaned = codeFenceOpen.ReplaceAllString(cleaned, "")
	cleaned = codeFenceClose.ReplaceAllString(cleaned, "")
	cleaned = excessNewlines.ReplaceAllString(cleaned, "\n\n")

	if strings.HasPrefix(cleaned, `"`) && strings.HasSuffix(cleaned, `"`) && len(cleaned) >= 2 {
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if strings.HasPrefix(cleaned, "'") && strings.HasSuffix(cleaned, "'") && len(cleaned) >= 2 {
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	return cleaned
}

// NormalizeQuestions cleans the clarifying-question list: drops non-strings
// and empties, guarantees a trailing question mark, strips emphasis markers,
// and keeps at most the first 10 items.
func NormalizeQuestions(v any) []string {
	items := anyList(v)
	cleaned := []string{}

	for _, item := range items {
		q, ok := item.(string)
		if !ok {
			continue
		}
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if !strings.HasSuffix(q, "?") {
			q += "?"
		}
		q = boldMarkers.ReplaceAllString(q, "$1")
		q = italicMarkers.ReplaceAllString(q, "$1")
		cleaned = append(cleaned, q)
	}

	if len(cleaned) > maxQuestions {
		cleaned = cleaned[:maxQuestions]
	}
	return cleaned
}

// NormalizeRefinements cleans the suggestion list: drops non-strings and
// empties, strips emphasis markers and a single leading bullet, capitalizes
// the first rune, and keeps at most the first 15 items.
func NormalizeRefinements(v any) []string {
	items := anyList(v)
	cleaned := []string{}

	for _, item := range items {
		r, ok := item.(string)
		if !ok {
			continue
		}
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		r = boldMarkers.ReplaceAllString(r, "$1")
		r = italicMarkers.ReplaceAllString(r, "$1")
		r = strings.TrimSpace(leadingBullet.ReplaceAllString(r, ""))
		if r == "" {
			// The item was only a bullet marker.
			continue
		}
		r = capitalize(r)
		cleaned = append(cleaned, r)
	}

	if len(cleaned) > maxRefinements {
		cleaned = cleaned[:maxRefinements]
	}
	return cleaned
}

// NormalizeRatings coerces the ratings object into all six dimensions:
// missing, null or non-numeric values default to 5.0, everything is clamped
// to [0,10] and rounded to one decimal place.
func NormalizeRatings(v any) Ratings {
	raw, _ := v.(map[string]any)

	var ratings Ratings
	for _, dim := range Dimensions {
		value := DefaultRating
		if raw != nil {
			if rv, present := raw[dim]; present {
				value = coerceFloat(rv)
			}
		}
		value = math.Max(MinRating, math.Min(MaxRating, value))
		ratings.set(dim, round1(value))
	}
	return ratings
}

// NormalizeFeedback cleans the free-text feedback: strips emphasis and header
// markers, collapses whitespace runs, and truncates to 500 characters with a
// trailing ellipsis when the text was cut.
func NormalizeFeedback(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}

	cleaned := strings.TrimSpace(s)
	cleaned = boldMarkers.ReplaceAllString(cleaned, "$1")
	cleaned = italicMarkers.ReplaceAllString(cleaned, "$1")
	cleaned = headerMarkers.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRuns.ReplaceAllString(cleaned, " ")

	// The budget counts characters, not bytes.
	if runes := []rune(cleaned); len(runes) > maxFeedbackLen {
		cleaned = string(runes[:maxFeedbackLen-3]) + "..."
	}
	return cleaned
}

func anyList(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		items := make([]any, len(list))
		for i, s := range list {
			items[i] = s
		}
		return items
	}
	return nil
}

func stringItems(v any) []string {
	var out []string
	for _, item := range anyList(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func coerceFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return DefaultRating
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
