package persona

import (
	"context"
	"log/slog"

	"github.com/inkwell-systems/promptsmith/internal/journal"
	"github.com/inkwell-systems/promptsmith/internal/provider"
	"github.com/inkwell-systems/promptsmith/internal/review"
)

// Reviewer runs the review pipeline for a persona. It is the failure
// boundary: provider errors never escape — every path returns a valid
// Result, degraded to the persona's canned response when the live call
// is disabled or fails.
type Reviewer struct {
	client  provider.Client
	enabled bool
	logger  *slog.Logger
}

// NewReviewer wires a provider client and the live-AI flag. The flag is an
// explicit construction value so behavior is deterministic and testable;
// client may be nil when live AI is disabled.
func NewReviewer(client provider.Client, enabled bool, logger *slog.Logger) *Reviewer {
	return &Reviewer{client: client, enabled: enabled && client != nil, logger: logger}
}

// LiveAI reports whether live provider calls are attempted.
func (r *Reviewer) LiveAI() bool { return r.enabled }

// Review critiques a prompt record with the given persona. With live AI
// disabled it returns the canned result immediately. With live AI enabled it
// calls the provider and normalizes the reply; on any provider failure it
// logs and returns the canned result annotated with the failure description.
func (r *Reviewer) Review(ctx context.Context, p *Persona, rec *journal.Prompt) review.Result {
	if !r.enabled {
		return p.Fallback(rec)
	}

	raw, err := r.client.GenerateReview(ctx, p.BuildRequest(rec), p.SystemPrompt(), p.temperature, p.maxTokens)
	if err != nil {
		r.logger.Warn("ai review failed, using fallback",
			"persona", p.Key,
			"prompt_id", rec.ID,
			"provider", r.client.Name(),
			"error", err,
		)
		res := p.Fallback(rec)
		res.Error = err.Error()
		return res
	}

	res := review.Normalize(raw)
	res.Persona = p.Name
	res.AIUsed = true

	r.logger.Info("ai review complete",
		"persona", p.Key,
		"prompt_id", rec.ID,
		"provider", r.client.Name(),
		"avg_rating", res.Ratings.Average(),
	)
	return res
}
