// Package httpserver serves the JSON API consumed by the feed page, the
// rendered feed variants, and the operational endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"nootboard/internal/config"
	"nootboard/internal/domain"
	"nootboard/internal/feedview"
)

// Server is the HTTP server for the posting relay.
type Server struct {
	cfg      *config.Config
	posts    *domain.PostService
	users    *domain.UserService
	messages *domain.MessageService
	presence *domain.PresenceTracker
	errs     *domain.ErrorLog
	poller   *feedview.Poller
	logger   *slog.Logger

	httpServer *http.Server
	limiter    *rateLimiter
	stopGC     chan struct{}
}

// NewServer creates the HTTP server and its routes.
func NewServer(
	cfg *config.Config,
	posts *domain.PostService,
	users *domain.UserService,
	messages *domain.MessageService,
	presence *domain.PresenceTracker,
	errs *domain.ErrorLog,
	poller *feedview.Poller,
	logger *slog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		posts:    posts,
		users:    users,
		messages: messages,
		presence: presence,
		errs:     errs,
		poller:   poller,
		logger:   logger,
		limiter:  newRateLimiter(rate.Limit(20), 40, 2*time.Minute),
		stopGC:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/posts", s.handlePosts)
	mux.HandleFunc("POST /api/delete", s.handleDelete)
	mux.HandleFunc("GET /api/users", s.handleUsers)
	mux.HandleFunc("GET /api/profile", s.handleProfile)
	mux.HandleFunc("GET /api/messages", s.handleMessages)
	mux.HandleFunc("GET /api/error/{id}", s.handleError)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", s.handleFeedPage("posts-container", "noot board"))
	mux.HandleFunc("GET /terminal", s.handleFeedPage("terminal-posts-container", "noot terminal"))

	handler := withRateLimit(s.limiter, mux)
	handler = withMetrics(handler)
	handler = withLogging(logger, handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.limiter.gc(s.stopGC)

	return s
}

// Start begins listening. It blocks until the server is shut down or an
// error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopGC)
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured handler chain. Test hook.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.ListPosts(r.Context())
	if err != nil {
		s.fail(w, r, "api.posts", err)
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PostID string `json:"postId"`
		UserID int64  `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == "" {
		writeError(w, http.StatusBadRequest, "postId and userId are required")
		return
	}

	username := strings.ToLower(r.Header.Get("x-username"))
	err := s.posts.DeletePost(r.Context(), req.PostID, req.UserID, username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "post not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case err != nil:
		s.fail(w, r, "api.delete", err)
	default:
		postsDeletedTotal.Inc()
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	records, err := s.presence.Snapshot(r.Context())
	if err != nil {
		s.fail(w, r, "api.users", err)
		return
	}
	if records == nil {
		records = []domain.PresenceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username := r.Header.Get("x-username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "x-username header is required")
		return
	}

	user, err := s.users.Profile(r.Context(), username)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Uniform denial so usernames cannot be enumerated.
		writeError(w, http.StatusForbidden, "forbidden")
	case err != nil:
		s.fail(w, r, "api.profile", err)
	default:
		writeJSON(w, http.StatusOK, user)
	}
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	username := r.Header.Get("x-username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "x-username header is required")
		return
	}
	other := r.URL.Query().Get("user")
	if other == "" {
		writeError(w, http.StatusBadRequest, "user parameter is required")
		return
	}

	msgs, err := s.messages.Between(r.Context(), username, other)
	if err != nil {
		s.fail(w, r, "api.messages", err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request) {
	rec, err := s.errs.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "error record not found")
	case err != nil:
		s.fail(w, r, "api.error", err)
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) handleFeedPage(containerID, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>%s</title></head><body>%s</body></html>`,
			title, s.poller.HTML(containerID))
	}
}

// fail persists the error and answers with the correlation id.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, origin string, err error) {
	id := s.errs.Record(r.Context(), origin, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "internal error",
		"errorId": id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
