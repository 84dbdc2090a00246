package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/ghview/internal/github"
	"github.com/joescharf/ghview/internal/github/githubtest"
	"github.com/joescharf/ghview/internal/models"
	"github.com/joescharf/ghview/internal/profile"
)

func setupTestServer(t *testing.T, client github.Client) (*Server, http.Handler) {
	t.Helper()
	srv, err := NewServer(client, Config{})
	require.NoError(t, err)
	router, err := srv.Router()
	require.NoError(t, err)
	return srv, router
}

func setupFakeGitHub(t *testing.T) (*githubtest.Server, *Server, http.Handler) {
	t.Helper()
	gh := githubtest.NewServer(t)
	srv, router := setupTestServer(t, github.NewRESTClient(gh.URL, gh.Client()))
	return gh, srv, router
}

// getPage fetches / and returns the body and the session cookie.
func getPage(t *testing.T, router http.Handler, cookie *http.Cookie) (string, *http.Cookie) {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	return w.Body.String(), cookie
}

// submit posts the lookup form and waits for the session's query to finish.
func submit(t *testing.T, srv *Server, router http.Handler, cookie *http.Cookie, username string) string {
	t.Helper()
	form := url.Values{"username": {username}}
	req := httptest.NewRequest("POST", "/lookup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	sess, ok := srv.sessions.get(cookie.Value)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return !sess.controller.Snapshot().Loading()
	}, 2*time.Second, 5*time.Millisecond)

	body, _ := getPage(t, router, cookie)
	return body
}

func TestIndex_InitialPage(t *testing.T) {
	_, srv, router := setupFakeGitHub(t)

	body, cookie := getPage(t, router, nil)
	require.NotNil(t, cookie, "session cookie should be set")
	assert.Contains(t, body, "<h1>GitHub Profile Viewer</h1>")
	assert.Contains(t, body, `placeholder="Enter GitHub username"`)
	assert.Contains(t, body, "Fetch Profile")
	assert.NotContains(t, body, `class="error"`)
	assert.NotContains(t, body, "Repositories")
	assert.Equal(t, 1, srv.sessions.len())

	// Same cookie reuses the session.
	_, again := getPage(t, router, cookie)
	assert.Equal(t, cookie.Value, again.Value)
	assert.Equal(t, 1, srv.sessions.len())
}

func TestLookup_Octocat(t *testing.T) {
	gh, srv, router := setupFakeGitHub(t)
	gh.SetUser("octocat", githubtest.Octocat())
	gh.SetRepos("octocat", githubtest.OctocatRepos())

	_, cookie := getPage(t, router, nil)
	body := submit(t, srv, router, cookie, "octocat")

	assert.Contains(t, body, "<h2>The Octocat</h2>")
	assert.Equal(t, 1, strings.Count(body, "<li>"))
	assert.Contains(t, body, ">Hello-World</a>")
	assert.Contains(t, body, "<p>My first repo</p>")
	assert.Contains(t, body, "<strong>Followers:</strong> 5 | <strong>Following:</strong> 2")
	assert.Contains(t, body, `href="https://github.com/octocat" target="_blank" rel="noopener noreferrer"`)
	assert.Contains(t, body, `value="octocat"`)
	assert.NotContains(t, body, `class="error"`)
	assert.NotContains(t, body, "User not found")
}

func TestLookup_EmptyName(t *testing.T) {
	gh, srv, router := setupFakeGitHub(t)

	_, cookie := getPage(t, router, nil)
	body := submit(t, srv, router, cookie, "   ")

	assert.Contains(t, body, `<p class="error">Please enter a GitHub username</p>`)
	assert.Equal(t, 0, gh.UserCalls())
	assert.Equal(t, 0, gh.ReposCalls())
}

func TestLookup_NotFound(t *testing.T) {
	gh, srv, router := setupFakeGitHub(t)

	_, cookie := getPage(t, router, nil)
	body := submit(t, srv, router, cookie, "ghost")

	assert.Contains(t, body, `<p class="error">User not found</p>`)
	assert.NotContains(t, body, `class="profile"`)
	assert.NotContains(t, body, "Repositories")
	assert.Equal(t, 0, gh.ReposCalls())
}

func TestLookup_RepoFailureShowsProfile(t *testing.T) {
	gh, srv, router := setupFakeGitHub(t)
	gh.SetUser("octocat", githubtest.Octocat())
	gh.FailRepos("octocat", http.StatusServiceUnavailable)

	_, cookie := getPage(t, router, nil)
	body := submit(t, srv, router, cookie, "octocat")

	assert.Contains(t, body, `<p class="error">Error fetching repositories</p>`)
	assert.Contains(t, body, "<h2>The Octocat</h2>")
	assert.NotContains(t, body, "<h3>Repositories</h3>")
}

func TestLookup_NoReposHidesSection(t *testing.T) {
	gh, srv, router := setupFakeGitHub(t)
	gh.SetUser("octocat", map[string]any{"login": "octocat", "html_url": "https://github.com/octocat"})
	gh.SetRepos("octocat", []map[string]any{})

	_, cookie := getPage(t, router, nil)
	body := submit(t, srv, router, cookie, "octocat")

	assert.Contains(t, body, "<h2>octocat</h2>", "heading falls back to login")
	assert.NotContains(t, body, "<h3>Repositories</h3>")
	assert.NotContains(t, body, `class="error"`)
}

func TestLookup_SessionsAreIsolated(t *testing.T) {
	gh, srv, router := setupFakeGitHub(t)
	gh.SetUser("octocat", githubtest.Octocat())
	gh.SetRepos("octocat", githubtest.OctocatRepos())

	_, first := getPage(t, router, nil)
	_, second := getPage(t, router, nil)
	require.NotEqual(t, first.Value, second.Value)

	submit(t, srv, router, first, "octocat")

	body, _ := getPage(t, router, second)
	assert.NotContains(t, body, "The Octocat")
}

// gatedClient blocks GetUser until gate is closed.
type gatedClient struct {
	gate chan struct{}
}

func (g *gatedClient) GetUser(ctx context.Context, login string) (*models.Profile, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &models.Profile{Login: login}, nil
}

func (g *gatedClient) ListRepos(ctx context.Context, login string) ([]models.Repository, error) {
	return nil, nil
}

func TestLookup_ShowsLoading(t *testing.T) {
	gc := &gatedClient{gate: make(chan struct{})}
	srv, router := setupTestServer(t, gc)
	defer close(gc.gate)

	_, cookie := getPage(t, router, nil)

	form := url.Values{"username": {"slow"}}
	req := httptest.NewRequest("POST", "/lookup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	router.ServeHTTP(httptest.NewRecorder(), req)

	body, _ := getPage(t, router, cookie)
	assert.Contains(t, body, "Loading...")
	assert.Contains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, "Fetch Profile")

	sess, ok := srv.sessions.get(cookie.Value)
	require.True(t, ok)
	assert.True(t, sess.controller.Snapshot().Loading())
}

func TestAPI_GetUser(t *testing.T) {
	gh, _, router := setupFakeGitHub(t)
	gh.SetUser("octocat", githubtest.Octocat())
	gh.SetRepos("octocat", githubtest.OctocatRepos())
	gh.SetUser("halfway", githubtest.Octocat())
	gh.FailRepos("halfway", http.StatusInternalServerError)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantError  string
		hasProfile bool
	}{
		{"success", "/api/v1/users/octocat", http.StatusOK, "", true},
		{"not found", "/api/v1/users/ghost", http.StatusNotFound, "User not found", false},
		{"repos fail", "/api/v1/users/halfway", http.StatusBadGateway, "Error fetching repositories", true},
		{"blank", "/api/v1/users/%20", http.StatusBadRequest, "Please enter a GitHub username", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var st profile.State
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
			assert.Equal(t, tt.wantError, st.Message)
			assert.Equal(t, tt.hasProfile, st.Profile != nil)
		})
	}
}

func TestAPI_SessionState(t *testing.T) {
	_, _, router := setupFakeGitHub(t)

	req := httptest.NewRequest("GET", "/api/v1/state", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var st profile.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, profile.StatusIdle, st.Status)
}

func TestHealthz(t *testing.T) {
	_, _, router := setupFakeGitHub(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStaticAssets(t *testing.T) {
	_, _, router := setupFakeGitHub(t)

	req := httptest.NewRequest("GET", "/static/style.css", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".avatar")

	req = httptest.NewRequest("GET", "/static/missing.js", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	_, _, router := setupFakeGitHub(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/users/octocat", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTemplateEscapesContent(t *testing.T) {
	gh, srv, router := setupFakeGitHub(t)
	gh.SetUser("octocat", map[string]any{"login": "octocat", "bio": "<script>alert(1)</script>"})
	gh.SetRepos("octocat", []map[string]any{})

	_, cookie := getPage(t, router, nil)
	body := submit(t, srv, router, cookie, "octocat")
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
