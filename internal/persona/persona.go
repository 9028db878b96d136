// Package persona defines the four fixed review rubrics. Personas share one
// shape and differ only in data: system prompt, request template, canned
// fallback, and how strictly the canned ratings score.
package persona

import (
	"fmt"
	"strings"

	"github.com/inkwell-systems/promptsmith/internal/journal"
	"github.com/inkwell-systems/promptsmith/internal/review"
)

// Persona is one review rubric.
type Persona struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`

	systemPrompt string
	temperature  float64
	maxTokens    int
	buildRequest func(*journal.Prompt) string
	fallback     func(*journal.Prompt) review.Result
}

// SystemPrompt returns the instruction that defines this persona's tone.
func (p *Persona) SystemPrompt() string { return p.systemPrompt }

// BuildRequest renders the persona-specific review request for a record.
func (p *Persona) BuildRequest(rec *journal.Prompt) string { return p.buildRequest(rec) }

// Fallback returns the persona's canned result for a record. Deterministic:
// repeated calls for the same record are identical.
func (p *Persona) Fallback(rec *journal.Prompt) review.Result {
	res := p.fallback(rec)
	res.Persona = p.Name
	return res
}

var personas = []*Persona{beginner, intermediate, advanced, interviewer}

var byKey = func() map[string]*Persona {
	m := make(map[string]*Persona, len(personas))
	for _, p := range personas {
		m[p.Key] = p
	}
	return m
}()

// All returns the four personas in display order.
func All() []*Persona {
	return personas
}

// Lookup finds a persona by key (case-insensitive).
func Lookup(key string) (*Persona, error) {
	p, ok := byKey[strings.ToLower(key)]
	if !ok {
		return nil, fmt.Errorf("unknown persona %q", key)
	}
	return p, nil
}

// standardRequest is the shared request template: the prompt text plus the
// optional purpose and reflection sections the user filled in.
func standardRequest(rec *journal.Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please review this AI prompt and provide detailed feedback.\n\n**Original Prompt:**\n%s\n", rec.PromptText)

	if rec.Description != "" {
		fmt.Fprintf(&b, "\n**Intended Purpose:**\n%s\n", rec.Description)
	}
	if rec.WhatILearned != "" {
		fmt.Fprintf(&b, "\n**What the User Learned:**\n%s\n", rec.WhatILearned)
	}
	if rec.WhatWentWell != "" {
		fmt.Fprintf(&b, "\n**What Went Well:**\n%s\n", rec.WhatWentWell)
	}

	b.WriteString(`
Please provide:
1. An improved version of the prompt
2. 3-5 clarifying questions to better understand the user's intent
3. 3-5 specific refinements that could be made
4. Quality ratings (0-10) for: length, complexity, specificity, clarity, creativity, context
5. General encouraging feedback with security considerations (watch for prompt injection risks)

Format your response as JSON with keys: suggested_prompt, questions, refinements, ratings, feedback
`)
	return b.String()
}

func flatRatings(v float64) review.Ratings {
	return review.Ratings{
		Length: v, Complexity: v, Specificity: v,
		Clarity: v, Creativity: v, Context: v,
	}
}
