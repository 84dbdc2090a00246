// Package githubtest provides a fake GitHub users API for tests.
package githubtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Server serves canned /users/{login} and /users/{login}/repos responses and
// counts the requests it receives.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]any
	repos       map[string]any
	userStatus  map[string]int
	reposStatus map[string]int
	userCalls   int
	reposCalls  int
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:       make(map[string]any),
		repos:       make(map[string]any),
		userStatus:  make(map[string]int),
		reposStatus: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// SetUser registers the profile body returned for login.
func (s *Server) SetUser(login string, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[login] = body
}

// SetRepos registers the repository list body returned for login.
func (s *Server) SetRepos(login string, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[login] = body
}

// FailUser makes the profile endpoint answer status for login.
func (s *Server) FailUser(login string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userStatus[login] = status
}

// FailRepos makes the repository endpoint answer status for login.
func (s *Server) FailRepos(login string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reposStatus[login] = status
}

// UserCalls returns how many profile requests were served.
func (s *Server) UserCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userCalls
}

// ReposCalls returns how many repository requests were served.
func (s *Server) ReposCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reposCalls
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/users/")
	if !ok || r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	var (
		body   any
		found  bool
		status int
	)
	if login, isRepos := strings.CutSuffix(rest, "/repos"); isRepos {
		s.reposCalls++
		body, found = s.repos[login]
		status = s.reposStatus[login]
	} else {
		s.userCalls++
		body, found = s.users[rest]
		status = s.userStatus[rest]
	}
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, `{"message":"failure"}`, status)
		return
	}
	if !found {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// Octocat is the sample profile used across tests.
func Octocat() map[string]any {
	return map[string]any{
		"login":      "octocat",
		"name":       "The Octocat",
		"bio":        nil,
		"avatar_url": "https://avatars.githubusercontent.com/u/583231",
		"followers":  5,
		"following":  2,
		"html_url":   "https://github.com/octocat",
	}
}

// OctocatRepos is the sample repository list used across tests.
func OctocatRepos() []map[string]any {
	return []map[string]any{
		{
			"id":          1,
			"name":        "Hello-World",
			"html_url":    "https://github.com/octocat/Hello-World",
			"description": "My first repo",
		},
	}
}
