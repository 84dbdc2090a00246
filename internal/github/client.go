package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/joescharf/ghview/internal/models"
)

// DefaultBaseURL is the public GitHub REST endpoint.
const DefaultBaseURL = "https://api.github.com"

// HTTPClient is the subset of *http.Client used here (allows mocking in tests).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads account data from GitHub.
type Client interface {
	GetUser(ctx context.Context, login string) (*models.Profile, error)
	ListRepos(ctx context.Context, login string) ([]models.Repository, error)
}

// StatusError is returned when GitHub answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// RESTClient implements Client against the GitHub REST API. Requests are sent
// unauthenticated with no extra headers and only the first page is read.
type RESTClient struct {
	baseURL    string
	httpClient HTTPClient
}

// NewRESTClient returns a client for baseURL (DefaultBaseURL when empty).
// A nil httpClient means http.DefaultClient.
func NewRESTClient(baseURL string, httpClient HTTPClient) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the API root this client talks to.
func (c *RESTClient) BaseURL() string {
	return c.baseURL
}

// GetUser fetches GET /users/{login}.
func (c *RESTClient) GetUser(ctx context.Context, login string) (*models.Profile, error) {
	var u githubUser
	if err := c.get(ctx, "/users/"+url.PathEscape(login), &u); err != nil {
		return nil, fmt.Errorf("get user %s: %w", login, err)
	}
	return u.toModel(), nil
}

// ListRepos fetches GET /users/{login}/repos, preserving response order.
func (c *RESTClient) ListRepos(ctx context.Context, login string) ([]models.Repository, error) {
	var raw []githubRepository
	if err := c.get(ctx, "/users/"+url.PathEscape(login)+"/repos", &raw); err != nil {
		return nil, fmt.Errorf("list repos for %s: %w", login, err)
	}

	repos := make([]models.Repository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, r.toModel())
	}
	return repos, nil
}

func (c *RESTClient) get(ctx context.Context, path string, result any) error {
	u := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        u,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GitHub API response types
type githubUser struct {
	Login     string `json:"login"`
	Name      string `json:"name"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	HTMLURL   string `json:"html_url"`
}

func (u githubUser) toModel() *models.Profile {
	return &models.Profile{
		Login:     u.Login,
		Name:      u.Name,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Followers: u.Followers,
		Following: u.Following,
		HTMLURL:   u.HTMLURL,
	}
}

type githubRepository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
}

func (r githubRepository) toModel() models.Repository {
	return models.Repository{
		ID:          r.ID,
		Name:        r.Name,
		HTMLURL:     r.HTMLURL,
		Description: r.Description,
	}
}
