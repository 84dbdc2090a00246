// Package web serves the browser page and the JSON lookup API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/joescharf/ghview/internal/github"
	"github.com/joescharf/ghview/internal/profile"
)

const (
	sessionCookie = "ghview_session"

	// DefaultSessionTTL is how long an untouched browser session is kept.
	DefaultSessionTTL = 30 * time.Minute
)

// Config holds optional server settings.
type Config struct {
	// SessionTTL bounds how long idle sessions live. Zero means DefaultSessionTTL.
	SessionTTL time.Duration
	// Logger receives request and lookup logs. Nil means slog.Default().
	Logger *slog.Logger
	// BaseContext parents the background lookups started from the page.
	// Cancelling it abandons lookups that are still in flight.
	BaseContext context.Context
}

// Server provides the page and API handlers.
type Server struct {
	client   github.Client
	logger   *slog.Logger
	ctx      context.Context
	page     *template.Template
	sessions *sessionStore
}

// NewServer creates a server that looks accounts up through client.
func NewServer(client github.Client, cfg Config) (*Server, error) {
	page, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}

	s := &Server{
		client: client,
		logger: cfg.Logger,
		ctx:    cfg.BaseContext,
		page:   page,
	}
	s.sessions = newSessionStore(cfg.SessionTTL, func() *profile.Controller {
		return profile.NewController(s.client, s.logger)
	})
	return s, nil
}

// Router returns an http.Handler for all routes.
func (s *Server) Router() (http.Handler, error) {
	static, err := StaticFS()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("POST /lookup", s.lookup)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /api/v1/state", s.sessionState)
	mux.HandleFunc("GET /api/v1/users/{name}", s.getUser)

	return logRequests(s.logger, corsMiddleware(mux)), nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// session returns the caller's session, creating one (and its cookie) when
// the request carries none or an expired one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.get(c.Value); ok {
			return sess
		}
	}

	sess := s.sessions.create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// --- Page ---

type pageData struct {
	Input          string
	State          profile.State
	RefreshSeconds int
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	data := pageData{
		Input:          sess.Input(),
		State:          sess.controller.Snapshot(),
		RefreshSeconds: 1,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.ExecuteTemplate(w, "index", data); err != nil {
		s.logger.Error("failed to render page", "error", err)
	}
}

// lookup starts a query for the posted username and redirects back to the
// page, which shows Loading until the query finishes.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	input := r.PostFormValue("username")
	sess.SetInput(input)

	q, err := sess.controller.Start(input)
	if err == nil {
		go func() {
			_, _ = sess.controller.Run(s.ctx, q)
		}()
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// --- API ---

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionState returns the caller's current lookup state.
func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, http.StatusOK, sess.controller.Snapshot())
}

// getUser runs a one-shot lookup and returns the final state. A repository
// failure still returns the profile alongside the error.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	c := profile.NewController(s.client, s.logger)
	st, err := c.Submit(r.Context(), r.PathValue("name"))
	writeJSON(w, statusFor(err), st)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, profile.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
