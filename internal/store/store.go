// Package store persists prompt and user records. Two implementations back
// the same contract: a JSON file store for single-node deployments and a
// Postgres store for shared ones. Consistency is last-writer-wins per record;
// no cross-record transaction is provided.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/inkwell-systems/promptsmith/internal/journal"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract the review pipeline and API depend on.
type Store interface {
	// SavePrompt upserts by id, bumps the modification timestamp, and
	// returns the saved record.
	SavePrompt(ctx context.Context, p *journal.Prompt) (*journal.Prompt, error)
	GetPrompt(ctx context.Context, id string) (*journal.Prompt, error)
	// GetUserPrompts returns all of a user's prompts, newest first.
	GetUserPrompts(ctx context.Context, userID string) ([]journal.Prompt, error)
	// SearchPrompts filters by case-insensitive substring over prompt text
	// and description, and by "any requested tag present".
	SearchPrompts(ctx context.Context, userID, query string, tags []string) ([]journal.Prompt, error)
	GetTemplates(ctx context.Context, userID string) ([]journal.Prompt, error)
	DeletePrompt(ctx context.Context, id string) (bool, error)

	GetOrCreateUser(ctx context.Context, userID, username string) (*journal.User, error)
	SaveUser(ctx context.Context, u *journal.User) (*journal.User, error)

	Close()
}

// matchesSearch holds the search semantics shared by both stores.
func matchesSearch(p *journal.Prompt, queryLower string, tags []string) bool {
	if queryLower != "" {
		text := strings.ToLower(p.PromptText)
		desc := strings.ToLower(p.Description)
		if !strings.Contains(text, queryLower) && !strings.Contains(desc, queryLower) {
			return false
		}
	}
	if len(tags) > 0 {
		found := false
		for _, want := range tags {
			for _, have := range p.Tags {
				if want == have {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
