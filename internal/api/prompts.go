package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-systems/promptsmith/internal/events"
	"github.com/inkwell-systems/promptsmith/internal/journal"
	"github.com/inkwell-systems/promptsmith/internal/persona"
	"github.com/inkwell-systems/promptsmith/internal/review"
	"github.com/inkwell-systems/promptsmith/internal/store"
)

// CreatePromptRequest is the payload for new journal entries.
type CreatePromptRequest struct {
	UserID       string          `json:"user_id"`
	PromptText   string          `json:"prompt_text"`
	Description  string          `json:"description"`
	WhatILearned string          `json:"what_i_learned"`
	WhatWentWell string          `json:"what_went_well"`
	Tags         []string        `json:"tags"`
	IsTemplate   bool            `json:"is_template"`
	Sharing      journal.Sharing `json:"sharing_preference"`
}

// UpdatePromptRequest carries partial updates; nil fields are left unchanged.
type UpdatePromptRequest struct {
	PromptText   *string          `json:"prompt_text,omitempty"`
	Description  *string          `json:"description,omitempty"`
	WhatILearned *string          `json:"what_i_learned,omitempty"`
	WhatWentWell *string          `json:"what_went_well,omitempty"`
	Tags         *[]string        `json:"tags,omitempty"`
	IsTemplate   *bool            `json:"is_template,omitempty"`
	Sharing      *journal.Sharing `json:"sharing_preference,omitempty"`
	Ratings      *review.Ratings  `json:"ratings,omitempty"`
}

// ReviewResponse pairs the review outcome with the updated record.
type ReviewResponse struct {
	Result review.Result   `json:"result"`
	Prompt *journal.Prompt `json:"prompt"`
}

func (s *Server) createPrompt(w http.ResponseWriter, r *http.Request) {
	var req CreatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.PromptText) == "" {
		writeError(w, http.StatusBadRequest, "prompt_text is required")
		return
	}
	if req.Sharing != "" && !journal.ValidSharing(req.Sharing) {
		writeError(w, http.StatusBadRequest, "invalid sharing_preference")
		return
	}

	// Users are created lazily on their first write.
	if _, err := s.store.GetOrCreateUser(r.Context(), req.UserID, ""); err != nil {
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	p := journal.NewPrompt(req.UserID, req.PromptText)
	p.Description = req.Description
	p.WhatILearned = req.WhatILearned
	p.WhatWentWell = req.WhatWentWell
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	p.IsTemplate = req.IsTemplate
	if req.Sharing != "" {
		p.Sharing = req.Sharing
	}

	saved, err := s.store.SavePrompt(r.Context(), p)
	if err != nil {
		s.logger.Error("save prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	s.events.PromptSaved(events.PromptEvent{
		PromptID:   saved.ID,
		UserID:     saved.UserID,
		IsTemplate: saved.IsTemplate,
		Tags:       saved.Tags,
	})
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) listPrompts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if r.URL.Query().Get("templates") == "true" {
		prompts, err := s.store.GetTemplates(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list failed")
			return
		}
		writeJSON(w, http.StatusOK, prompts)
		return
	}

	query := r.URL.Query().Get("query")
	var tags []string
	if raw := r.URL.Query().Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	var (
		prompts []journal.Prompt
		err     error
	)
	if query != "" || len(tags) > 0 {
		prompts, err = s.store.SearchPrompts(r.Context(), userID, query, tags)
	} else {
		prompts, err = s.store.GetUserPrompts(r.Context(), userID)
	}
	if err != nil {
		s.logger.Error("list prompts", "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

func (s *Server) getPrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPrompt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePrompt(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPrompt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	var req UpdatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.PromptText != nil {
		if strings.TrimSpace(*req.PromptText) == "" {
			writeError(w, http.StatusBadRequest, "prompt_text must not be empty")
			return
		}
		p.PromptText = *req.PromptText
	}
	if req.Sharing != nil {
		if !journal.ValidSharing(*req.Sharing) {
			writeError(w, http.StatusBadRequest, "invalid sharing_preference")
			return
		}
		p.Sharing = *req.Sharing
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.WhatILearned != nil {
		p.WhatILearned = *req.WhatILearned
	}
	if req.WhatWentWell != nil {
		p.WhatWentWell = *req.WhatWentWell
	}
	if req.Tags != nil {
		p.Tags = *req.Tags
	}
	if req.IsTemplate != nil {
		p.IsTemplate = *req.IsTemplate
	}
	if req.Ratings != nil {
		p.Ratings = *req.Ratings
	}

	saved, err := s.store.SavePrompt(r.Context(), p)
	if err != nil {
		s.logger.Error("update prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	s.events.PromptSaved(events.PromptEvent{
		PromptID:   saved.ID,
		UserID:     saved.UserID,
		IsTemplate: saved.IsTemplate,
		Tags:       saved.Tags,
	})
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deletePrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.store.GetPrompt(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	ok, err := s.store.DeletePrompt(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "prompt not found")
		return
	}

	s.events.PromptDeleted(events.PromptEvent{PromptID: p.ID, UserID: p.UserID})
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// reviewPrompt runs the full review pipeline synchronously. The persona comes
// from the query string, then the user's default, then the beginner persona.
func (s *Server) reviewPrompt(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetPrompt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	key := r.URL.Query().Get("persona")
	if key == "" {
		if u, err := s.store.GetOrCreateUser(r.Context(), rec.UserID, ""); err == nil {
			key = u.Preferences.DefaultPersona
		}
	}
	if key == "" {
		key = "beginner"
	}
	p, err := persona.Lookup(key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.reviewer.Review(r.Context(), p, rec)
	rec.ApplyReview(res, p.Key)

	saved, err := s.store.SavePrompt(r.Context(), rec)
	if err != nil {
		s.logger.Error("save reviewed prompt", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	s.events.ReviewCompleted(events.ReviewEvent{
		PromptID:      saved.ID,
		UserID:        saved.UserID,
		Persona:       p.Key,
		AIUsed:        res.AIUsed,
		AverageRating: res.Ratings.Average(),
	})
	writeJSON(w, http.StatusOK, ReviewResponse{Result: res, Prompt: saved})
}
