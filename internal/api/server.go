package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inkwell-systems/promptsmith/internal/events"
	"github.com/inkwell-systems/promptsmith/internal/persona"
	"github.com/inkwell-systems/promptsmith/internal/store"
)

type Server struct {
	router   *chi.Mux
	port     int
	store    store.Store
	reviewer *persona.Reviewer
	events   *events.Client
	logger   *slog.Logger
}

func NewServer(port int, apiToken string, db store.Store, reviewer *persona.Reviewer, ev *events.Client, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		store:    db,
		reviewer: reviewer,
		events:   ev,
		logger:   logger,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		if apiToken != "" {
			r.Use(BearerAuthMiddleware(apiToken))
		}

		r.Get("/personas", s.listPersonas)

		r.Route("/prompts", func(r chi.Router) {
			r.Post("/", s.createPrompt)
			r.Get("/", s.listPrompts)
			r.Get("/{id}", s.getPrompt)
			r.Put("/{id}", s.updatePrompt)
			r.Delete("/{id}", s.deletePrompt)
			r.Post("/{id}/review", s.reviewPrompt)
		})

		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/dashboard", s.dashboard)
			r.Put("/preferences", s.updatePreferences)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr, "live_ai", s.reviewer.LiveAI())
	return http.ListenAndServe(addr, s.router)
}

// BearerAuthMiddleware rejects /api/v1 requests whose Authorization header
// does not carry the configured token.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			got, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listPersonas(w http.ResponseWriter, r *http.Request) {
	type personaInfo struct {
		Key         string `json:"key"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	out := make([]personaInfo, 0, 4)
	for _, p := range persona.All() {
		out = append(out, personaInfo{Key: p.Key, Name: p.Name, Description: p.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
