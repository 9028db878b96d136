package review

// Dimensions lists the six rating axes every review scores, in display order.
var Dimensions = []string{"length", "complexity", "specificity", "clarity", "creativity", "context"}

// Rating bounds and the midpoint used when a provider omits a dimension.
const (
	MinRating     = 0.0
	MaxRating     = 10.0
	DefaultRating = 5.0
)

// Ratings is the six-dimension quality score for a prompt. A zero value means
// "unrated"; a normalized review always carries all six dimensions.
type Ratings struct {
	Length      float64 `json:"length"`
	Complexity  float64 `json:"complexity"`
	Specificity float64 `json:"specificity"`
	Clarity     float64 `json:"clarity"`
	Creativity  float64 `json:"creativity"`
	Context     float64 `json:"context"`
}

// Get returns the value for a named dimension.
func (r Ratings) Get(dimension string) float64 {
	switch dimension {
	case "length":
		return r.Length
	case "complexity":
		return r.Complexity
	case "specificity":
		return r.Specificity
	case "clarity":
		return r.Clarity
	case "creativity":
		return r.Creativity
	case "context":
		return r.Context
	}
	return 0
}

func (r *Ratings) set(dimension string, value float64) {
	switch dimension {
	case "length":
		r.Length = value
	case "complexity":
		r.Complexity = value
	case "specificity":
		r.Specificity = value
	case "clarity":
		r.Clarity = value
	case "creativity":
		r.Creativity = value
	case "context":
		r.Context = value
	}
}

// IsZero reports whether no dimension has been scored yet.
func (r Ratings) IsZero() bool {
	return r.Length == 0 && r.Complexity == 0 && r.Specificity == 0 &&
		r.Clarity == 0 && r.Creativity == 0 && r.Context == 0
}

// Average returns the mean across all six dimensions, rounded to one decimal.
func (r Ratings) Average() float64 {
	sum := r.Length + r.Complexity + r.Specificity + r.Clarity + r.Creativity + r.Context
	return round1(sum / 6)
}

// Result is the canonical output of one review cycle. Questions, Refinements
// and Feedback hold the normalized values; the Raw* fields keep the provider's
// original text for audit and debugging.
type Result struct {
	SuggestedPrompt string   `json:"suggested_prompt"`
	Questions       []string `json:"questions"`
	Refinements     []string `json:"refinements"`
	Ratings         Ratings  `json:"ratings"`
	Feedback        string   `json:"feedback"`

	RawQuestions   []string `json:"raw_questions,omitempty"`
	RawRefinements []string `json:"raw_refinements,omitempty"`
	RawFeedback    string   `json:"raw_feedback,omitempty"`

	Persona string `json:"persona,omitempty"`
	AIUsed  bool   `json:"ai_used"`
	Error   string `json:"error,omitempty"`
}
