package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell-systems/promptsmith/internal/journal"
	"github.com/inkwell-systems/promptsmith/internal/persona"
	"github.com/inkwell-systems/promptsmith/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithToken(t, "")
}

func newTestServerWithToken(t *testing.T, token string) *Server {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(fs.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reviewer := persona.NewReviewer(nil, false, logger)
	return NewServer(8760, token, fs, reviewer, nil, logger)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func createTestPrompt(t *testing.T, srv *Server, userID, text string) journal.Prompt {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/v1/prompts", CreatePromptRequest{
		UserID:     userID,
		PromptText: text,
		Tags:       []string{"testing"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[journal.Prompt](t, w)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := decode[map[string]string](t, w)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestListPersonas(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/api/v1/personas", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode[[]map[string]string](t, w)
	if len(body) != 4 {
		t.Fatalf("expected 4 personas, got %d", len(body))
	}
	if body[0]["key"] != "beginner" || body[0]["name"] != "Beginner Guide" {
		t.Errorf("unexpected first persona: %v", body[0])
	}
}

func TestCreatePrompt(t *testing.T) {
	srv := newTestServer(t)

	p := createTestPrompt(t, srv, "u1", "Write a haiku about databases")
	if p.ID == "" {
		t.Error("expected a generated id")
	}
	if p.UserID != "u1" || p.PromptText != "Write a haiku about databases" {
		t.Errorf("unexpected record: %+v", p)
	}
	if p.Sharing != journal.SharingPrivate {
		t.Errorf("expected private sharing default, got %q", p.Sharing)
	}
}

func TestCreatePrompt_Validation(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "POST", "/api/v1/prompts", CreatePromptRequest{UserID: "u1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing text, got %d", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/v1/prompts", CreatePromptRequest{PromptText: "hi"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing user, got %d", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/v1/prompts", CreatePromptRequest{
		UserID: "u1", PromptText: "hi", Sharing: "everyone",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad sharing value, got %d", w.Code)
	}
}

func TestGetPrompt(t *testing.T) {
	srv := newTestServer(t)
	p := createTestPrompt(t, srv, "u1", "Explain goroutine scheduling")

	w := doJSON(t, srv, "GET", "/api/v1/prompts/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[journal.Prompt](t, w)
	if got.PromptText != p.PromptText {
		t.Errorf("expected same record back, got %+v", got)
	}

	w = doJSON(t, srv, "GET", "/api/v1/prompts/missing-id", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListPrompts_RequiresUserID(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/api/v1/prompts", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without user_id, got %d", w.Code)
	}
}

func TestListPrompts_SearchAndTemplates(t *testing.T) {
	srv := newTestServer(t)
	createTestPrompt(t, srv, "u1", "Summarize a legal contract")
	createTestPrompt(t, srv, "u1", "Draft a birthday message")

	w := doJSON(t, srv, "POST", "/api/v1/prompts", CreatePromptRequest{
		UserID: "u1", PromptText: "Reusable code review checklist", IsTemplate: true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w = doJSON(t, srv, "GET", "/api/v1/prompts?user_id=u1", nil)
	if got := decode[[]journal.Prompt](t, w); len(got) != 3 {
		t.Errorf("expected 3 prompts, got %d", len(got))
	}

	w = doJSON(t, srv, "GET", "/api/v1/prompts?user_id=u1&query=LEGAL", nil)
	got := decode[[]journal.Prompt](t, w)
	if len(got) != 1 || got[0].PromptText != "Summarize a legal contract" {
		t.Errorf("expected the contract prompt, got %v", got)
	}

	w = doJSON(t, srv, "GET", "/api/v1/prompts?user_id=u1&templates=true", nil)
	got = decode[[]journal.Prompt](t, w)
	if len(got) != 1 || !got[0].IsTemplate {
		t.Errorf("expected only the template, got %v", got)
	}
}

func TestUpdatePrompt_PartialFields(t *testing.T) {
	srv := newTestServer(t)
	p := createTestPrompt(t, srv, "u1", "Original text")

	desc := "Added later"
	isTemplate := true
	w := doJSON(t, srv, "PUT", "/api/v1/prompts/"+p.ID, UpdatePromptRequest{
		Description: &desc,
		IsTemplate:  &isTemplate,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[journal.Prompt](t, w)
	if got.Description != "Added later" || !got.IsTemplate {
		t.Errorf("update not applied: %+v", got)
	}
	if got.PromptText != "Original text" {
		t.Errorf("untouched field changed: %q", got.PromptText)
	}

	empty := "   "
	w = doJSON(t, srv, "PUT", "/api/v1/prompts/"+p.ID, UpdatePromptRequest{PromptText: &empty})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank text, got %d", w.Code)
	}
}

func TestDeletePrompt(t *testing.T) {
	srv := newTestServer(t)
	p := createTestPrompt(t, srv, "u1", "Short lived")

	w := doJSON(t, srv, "DELETE", "/api/v1/prompts/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode[map[string]bool](t, w); !body["deleted"] {
		t.Error("expected deleted true")
	}

	w = doJSON(t, srv, "DELETE", "/api/v1/prompts/"+p.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestReviewPrompt_FallbackWhenAIDisabled(t *testing.T) {
	srv := newTestServer(t)
	p := createTestPrompt(t, srv, "u1", "Build me a meal plan")

	w := doJSON(t, srv, "POST", "/api/v1/prompts/"+p.ID+"/review?persona=advanced", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[ReviewResponse](t, w)

	if resp.Result.AIUsed {
		t.Error("expected canned result with AI disabled")
	}
	if resp.Result.Persona != "Advanced Mentor" {
		t.Errorf("expected advanced persona, got %q", resp.Result.Persona)
	}
	if resp.Prompt.Ratings.Clarity != 7.0 {
		t.Errorf("expected flat 7.0 canned ratings, got %+v", resp.Prompt.Ratings)
	}
	if resp.Prompt.PersonaUsed != "advanced" {
		t.Errorf("expected persona key recorded, got %q", resp.Prompt.PersonaUsed)
	}
	if len(resp.Prompt.ReviewHistory) != 1 {
		t.Errorf("expected one history entry, got %d", len(resp.Prompt.ReviewHistory))
	}

	// The merged record is persisted, not just returned.
	stored, err := srv.store.GetPrompt(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("stored lookup failed: %v", err)
	}
	if stored.Ratings.Clarity != 7.0 || len(stored.ReviewHistory) != 1 {
		t.Errorf("review not persisted: %+v", stored)
	}
}

func TestReviewPrompt_UnknownPersona(t *testing.T) {
	srv := newTestServer(t)
	p := createTestPrompt(t, srv, "u1", "Anything")

	w := doJSON(t, srv, "POST", "/api/v1/prompts/"+p.ID+"/review?persona=guru", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown persona, got %d", w.Code)
	}
}

func TestReviewPrompt_DefaultsToUserPersona(t *testing.T) {
	srv := newTestServer(t)
	p := createTestPrompt(t, srv, "u1", "Anything")

	w := doJSON(t, srv, "PUT", "/api/v1/users/u1/preferences", journal.Preferences{
		DefaultPersona: "interviewer", DailyGoal: 1, WeeklyGoal: 7,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("preference update failed: %d", w.Code)
	}

	w = doJSON(t, srv, "POST", "/api/v1/prompts/"+p.ID+"/review", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[ReviewResponse](t, w)
	if resp.Prompt.PersonaUsed != "interviewer" {
		t.Errorf("expected user default persona, got %q", resp.Prompt.PersonaUsed)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	p := createTestPrompt(t, srv, "u1", "Prompt one")
	createTestPrompt(t, srv, "u1", "Prompt two")

	// Rate one prompt through a review so the average is non-zero.
	doJSON(t, srv, "POST", "/api/v1/prompts/"+p.ID+"/review?persona=beginner", nil)

	w := doJSON(t, srv, "GET", "/api/v1/users/u1/dashboard", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[DashboardResponse](t, w)

	if resp.Stats.TotalPrompts != 2 {
		t.Errorf("expected 2 total prompts, got %d", resp.Stats.TotalPrompts)
	}
	if resp.Stats.AverageRating != 5.0 {
		t.Errorf("expected average 5.0 from the canned review, got %v", resp.Stats.AverageRating)
	}
	if resp.Stats.StreakDays != 1 {
		t.Errorf("expected streak of 1, got %d", resp.Stats.StreakDays)
	}
	if len(resp.PromptsPerDay) != 1 || resp.PromptsPerDay[0].Count != 2 {
		t.Errorf("unexpected per-day series: %v", resp.PromptsPerDay)
	}
	if resp.TagCounts["testing"] != 2 {
		t.Errorf("unexpected tag counts: %v", resp.TagCounts)
	}
	if resp.User.Username != "u1" {
		t.Errorf("expected lazily created user, got %+v", resp.User)
	}
}

func TestUpdatePreferences_Validation(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "PUT", "/api/v1/users/u1/preferences", journal.Preferences{
		DefaultPersona: "guru", DailyGoal: 1, WeeklyGoal: 7,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown persona, got %d", w.Code)
	}

	w = doJSON(t, srv, "PUT", "/api/v1/users/u1/preferences", journal.Preferences{
		DefaultPersona: "beginner", DailyGoal: 0, WeeklyGoal: 7,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero goal, got %d", w.Code)
	}

	w = doJSON(t, srv, "PUT", "/api/v1/users/u1/preferences", journal.Preferences{
		DefaultPersona: "advanced", DailyGoal: 3, WeeklyGoal: 15,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	u := decode[journal.User](t, w)
	if u.Preferences.DefaultPersona != "advanced" || u.Preferences.DailyGoal != 3 {
		t.Errorf("preferences not saved: %+v", u.Preferences)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServerWithToken(t, "secret-token")

	// Health stays open.
	w := doJSON(t, srv, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected open health endpoint, got %d", w.Code)
	}

	w = doJSON(t, srv, "GET", "/api/v1/personas", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/personas", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/personas", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid token, got %d", rec.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doJSON(t, srv, "GET", "/nonexistent", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
