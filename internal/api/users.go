package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-systems/promptsmith/internal/journal"
	"github.com/inkwell-systems/promptsmith/internal/persona"
)

// DashboardResponse carries the analytics recomputed from the user's full
// prompt set on every request.
type DashboardResponse struct {
	User          *journal.User      `json:"user"`
	Stats         journal.Stats      `json:"stats"`
	PromptsPerDay []journal.DayCount `json:"prompts_per_day"`
	TagCounts     map[string]int     `json:"tag_counts"`
	PersonaCounts map[string]int     `json:"persona_counts"`
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	u, err := s.store.GetOrCreateUser(r.Context(), userID, "")
	if err != nil {
		s.logger.Error("dashboard user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	prompts, err := s.store.GetUserPrompts(r.Context(), userID)
	if err != nil {
		s.logger.Error("dashboard prompts", "error", err)
		writeError(w, http.StatusInternalServerError, "prompt lookup failed")
		return
	}

	stats := journal.ComputeStats(prompts, time.Now().UTC())
	u.Stats = stats

	writeJSON(w, http.StatusOK, DashboardResponse{
		User:          u,
		Stats:         stats,
		PromptsPerDay: journal.PromptsPerDay(prompts),
		TagCounts:     journal.TagCounts(prompts),
		PersonaCounts: journal.PersonaCounts(prompts),
	})
}

func (s *Server) updatePreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var prefs journal.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if _, err := persona.Lookup(prefs.DefaultPersona); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if prefs.DailyGoal < 1 || prefs.WeeklyGoal < 1 {
		writeError(w, http.StatusBadRequest, "goals must be at least 1")
		return
	}

	u, err := s.store.GetOrCreateUser(r.Context(), userID, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}
	u.Preferences = prefs

	saved, err := s.store.SaveUser(r.Context(), u)
	if err != nil {
		s.logger.Error("save preferences", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
