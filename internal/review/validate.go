package review

import "fmt"

var requiredFields = []string{"suggested_prompt", "questions", "refinements", "ratings", "feedback"}

// ValidateSchema reports whether a parsed provider reply carries all five
// top-level fields and all six rating dimensions. Provider clients run this
// before accepting a reply; a failure is retried like a parse failure.
func ValidateSchema(raw map[string]any) bool {
	for _, field := range requiredFields {
		if _, present := raw[field]; !present {
			return false
		}
	}

	ratings, ok := raw["ratings"].(map[string]any)
	if !ok {
		return false
	}
	for _, dim := range Dimensions {
		if _, present := ratings[dim]; !present {
			return false
		}
	}
	return true
}

// ValidateCompleteness checks a reply for missing or empty fields and reports
// the explicit list of what is absent. Rating dimensions are reported as
// "ratings.<dimension>" and only inspected when ratings itself is present.
func ValidateCompleteness(raw map[string]any) (bool, []string) {
	missing := []string{}

	for _, field := range requiredFields {
		v, present := raw[field]
		if !present || isEmpty(v) {
			missing = append(missing, field)
		}
	}

	if ratings, ok := raw["ratings"].(map[string]any); ok {
		for _, dim := range Dimensions {
			if _, present := ratings[dim]; !present {
				missing = append(missing, fmt.Sprintf("ratings.%s", dim))
			}
		}
	}

	return len(missing) == 0, missing
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case bool:
		return !val
	case float64:
		return val == 0
	}
	return false
}
