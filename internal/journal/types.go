package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-systems/promptsmith/internal/review"
)

// Sharing controls who can see a prompt.
type Sharing string

const (
	SharingPrivate   Sharing = "private"
	SharingPublic    Sharing = "public"
	SharingSelective Sharing = "selective"
)

// ValidSharing reports whether s is one of the three sharing levels.
func ValidSharing(s Sharing) bool {
	return s == SharingPrivate || s == SharingPublic || s == SharingSelective
}

// ReviewEntry records a single review interaction for a prompt's history.
type ReviewEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	PersonaUsed string    `json:"persona_used"`
	Questions   []string  `json:"questions"`
	Refinements []string  `json:"refinements"`
	AIUsed      bool      `json:"ai_used"`
}

// Prompt is a single journaled prompt owned by one user. Ratings default to
// all-zero ("unrated") until a review is applied or ratings are saved.
type Prompt struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	PromptText      string         `json:"prompt_text"`
	Description     string         `json:"description,omitempty"`
	WhatILearned    string         `json:"what_i_learned,omitempty"`
	WhatWentWell    string         `json:"what_went_well,omitempty"`
	SuggestedPrompt string         `json:"ai_suggested_prompt,omitempty"`
	Tags            []string       `json:"tags"`
	IsTemplate      bool           `json:"is_template"`
	Sharing         Sharing        `json:"sharing_preference"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Ratings         review.Ratings `json:"ratings"`
	PersonaUsed     string         `json:"persona_used,omitempty"`
	ReviewHistory   []ReviewEntry  `json:"review_history,omitempty"`

	// Raw and processed review text retained for audit alongside the
	// normalized fields above.
	RawQuestions         []string `json:"raw_questions,omitempty"`
	RawRefinements       []string `json:"raw_refinements,omitempty"`
	RawFeedback          string   `json:"raw_feedback,omitempty"`
	ProcessedQuestions   []string `json:"processed_questions,omitempty"`
	ProcessedRefinements []string `json:"processed_refinements,omitempty"`
	ProcessedFeedback    string   `json:"processed_feedback,omitempty"`
}

// NewPrompt builds a prompt with a fresh id and timestamps.
func NewPrompt(userID, text string) *Prompt {
	now := time.Now().UTC()
	return &Prompt{
		ID:         uuid.New().String(),
		UserID:     userID,
		PromptText: text,
		Tags:       []string{},
		Sharing:    SharingPrivate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ApplyReview merges a review result into the prompt: suggested text,
// ratings, raw/processed audit fields, and a history entry.
func (p *Prompt) ApplyReview(res review.Result, personaKey string) {
	p.SuggestedPrompt = res.SuggestedPrompt
	p.Ratings = res.Ratings
	p.PersonaUsed = personaKey

	p.RawQuestions = res.RawQuestions
	p.RawRefinements = res.RawRefinements
	p.RawFeedback = res.RawFeedback
	p.ProcessedQuestions = res.Questions
	p.ProcessedRefinements = res.Refinements
	p.ProcessedFeedback = res.Feedback

	p.ReviewHistory = append(p.ReviewHistory, ReviewEntry{
		Timestamp:   time.Now().UTC(),
		PersonaUsed: personaKey,
		Questions:   res.Questions,
		Refinements: res.Refinements,
		AIUsed:      res.AIUsed,
	})
}

// Preferences holds user-tunable settings. Goals are per the product floor
// of at least one prompt.
type Preferences struct {
	DefaultPersona string `json:"default_persona"`
	DailyGoal      int    `json:"daily_goal"`
	WeeklyGoal     int    `json:"weekly_goal"`
}

// Stats is a point-in-time derived view recomputed from the full prompt set
// on each dashboard request. It is never a source of truth.
type Stats struct {
	TotalPrompts     int     `json:"total_prompts"`
	PromptsThisWeek  int     `json:"prompts_this_week"`
	PromptsThisMonth int     `json:"prompts_this_month"`
	AverageRating    float64 `json:"average_rating"`
	StreakDays       int     `json:"streak_days"`
}

// User is created lazily on first access.
type User struct {
	UserID       string      `json:"user_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email,omitempty"`
	Preferences  Preferences `json:"preferences"`
	Stats        Stats       `json:"stats"`
	CreatedAt    time.Time   `json:"created_at"`
	LastActiveAt time.Time   `json:"last_active_at"`
}

// NewUser builds a user with default preferences.
func NewUser(userID, username string) *User {
	if username == "" {
		username = userID
	}
	now := time.Now().UTC()
	return &User{
		UserID:   userID,
		Username: username,
		Preferences: Preferences{
			DefaultPersona: "beginner",
			DailyGoal:      2,
			WeeklyGoal:     14,
		},
		CreatedAt:    now,
		LastActiveAt: now,
	}
}
