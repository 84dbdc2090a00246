package profile

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/ghview/internal/github"
	"github.com/joescharf/ghview/internal/github/githubtest"
	"github.com/joescharf/ghview/internal/models"
)

func setupController(t *testing.T) (*Controller, *githubtest.Server) {
	t.Helper()
	srv := githubtest.NewServer(t)
	c := NewController(github.NewRESTClient(srv.URL, srv.Client()), nil)
	return c, srv
}

func TestNewController_Idle(t *testing.T) {
	c, _ := setupController(t)
	st := c.Snapshot()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Nil(t, st.Profile)
	assert.Empty(t, st.Repositories)
	assert.Empty(t, st.Message)
}

func TestSubmit_EmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		c, srv := setupController(t)

		st, err := c.Submit(context.Background(), name)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Equal(t, StatusError, st.Status)
		assert.Equal(t, "Please enter a GitHub username", st.Message)
		assert.Nil(t, st.Profile)
		assert.Empty(t, st.Repositories)
		assert.Equal(t, 0, srv.UserCalls())
		assert.Equal(t, 0, srv.ReposCalls())
	}
}

func TestSubmit_ProfileNotFound(t *testing.T) {
	c, srv := setupController(t)

	st, err := c.Submit(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "User not found", st.Message)
	assert.Nil(t, st.Profile)
	assert.Empty(t, st.Repositories)
	assert.Equal(t, 1, srv.UserCalls())
	assert.Equal(t, 0, srv.ReposCalls(), "repository endpoint must not be called")

	var se *github.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestSubmit_ReposFailKeepsProfile(t *testing.T) {
	c, srv := setupController(t)
	srv.SetUser("octocat", githubtest.Octocat())
	srv.FailRepos("octocat", http.StatusInternalServerError)

	st, err := c.Submit(context.Background(), "octocat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.False(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Error fetching repositories", st.Message)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "octocat", st.Profile.Login)
	assert.Empty(t, st.Repositories)
	assert.Equal(t, 1, srv.ReposCalls())
}

func TestSubmit_Success(t *testing.T) {
	c, srv := setupController(t)
	srv.SetUser("octocat", githubtest.Octocat())
	srv.SetRepos("octocat", []map[string]any{
		{"id": 1, "name": "Hello-World", "html_url": "https://github.com/octocat/Hello-World", "description": "My first repo"},
		{"id": 2, "name": "Spoon-Knife", "html_url": "https://github.com/octocat/Spoon-Knife"},
	})

	st, err := c.Submit(context.Background(), "  octocat ")
	require.NoError(t, err)

	assert.Equal(t, StatusReady, st.Status)
	assert.Empty(t, st.Message)
	assert.Nil(t, st.Err)
	assert.Equal(t, "octocat", st.AccountName)
	assert.Equal(t, &models.Profile{
		Login:     "octocat",
		Name:      "The Octocat",
		AvatarURL: "https://avatars.githubusercontent.com/u/583231",
		Followers: 5,
		Following: 2,
		HTMLURL:   "https://github.com/octocat",
	}, st.Profile)
	require.Len(t, st.Repositories, 2)
	assert.Equal(t, "Hello-World", st.Repositories[0].Name)
	assert.Equal(t, "My first repo", st.Repositories[0].Description)
	assert.Equal(t, "Spoon-Knife", st.Repositories[1].Name)
}

func TestSubmit_NoReposIsReady(t *testing.T) {
	c, srv := setupController(t)
	srv.SetUser("octocat", githubtest.Octocat())
	srv.SetRepos("octocat", []map[string]any{})

	st, err := c.Submit(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st.Status)
	assert.Empty(t, st.Message)
	assert.NotNil(t, st.Repositories)
	assert.Empty(t, st.Repositories)
}

func TestSubmit_Idempotent(t *testing.T) {
	c, srv := setupController(t)
	srv.SetUser("octocat", githubtest.Octocat())
	srv.SetRepos("octocat", githubtest.OctocatRepos())

	first, err := c.Submit(context.Background(), "octocat")
	require.NoError(t, err)
	second, err := c.Submit(context.Background(), "octocat")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, srv.UserCalls())
}

func TestSubmit_ClearsPreviousResult(t *testing.T) {
	c, srv := setupController(t)
	srv.SetUser("octocat", githubtest.Octocat())
	srv.SetRepos("octocat", githubtest.OctocatRepos())

	_, err := c.Submit(context.Background(), "octocat")
	require.NoError(t, err)

	st, err := c.Submit(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, "ghost", st.AccountName)
	assert.Nil(t, st.Profile)
	assert.Empty(t, st.Repositories)
	assert.Equal(t, "User not found", st.Message)
}

func TestStart_MovesToLoading(t *testing.T) {
	c, srv := setupController(t)

	q, err := c.Start("octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", q.AccountName)

	st := c.Snapshot()
	assert.True(t, st.Loading())
	assert.Nil(t, st.Profile)
	assert.Empty(t, st.Message)
	assert.Equal(t, 0, srv.UserCalls())
}

func TestSnapshot_IsCopy(t *testing.T) {
	c, srv := setupController(t)
	srv.SetUser("octocat", githubtest.Octocat())
	srv.SetRepos("octocat", githubtest.OctocatRepos())

	_, err := c.Submit(context.Background(), "octocat")
	require.NoError(t, err)

	st := c.Snapshot()
	st.Profile.Name = "changed"
	st.Repositories[0].Name = "changed"

	again := c.Snapshot()
	assert.Equal(t, "The Octocat", again.Profile.Name)
	assert.Equal(t, "Hello-World", again.Repositories[0].Name)
}

// blockingClient holds GetUser for a given login until released.
type blockingClient struct {
	release map[string]chan struct{}
}

func (b *blockingClient) GetUser(ctx context.Context, login string) (*models.Profile, error) {
	if ch, ok := b.release[login]; ok {
		<-ch
	}
	return &models.Profile{Login: login}, nil
}

func (b *blockingClient) ListRepos(ctx context.Context, login string) ([]models.Repository, error) {
	return []models.Repository{{ID: 1, Name: login + "-repo"}}, nil
}

func TestRun_LatestQueryWins(t *testing.T) {
	bc := &blockingClient{release: map[string]chan struct{}{"slow": make(chan struct{})}}
	c := NewController(bc, nil)

	slow, err := c.Start("slow")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := c.Run(context.Background(), slow)
		done <- err
	}()

	st, err := c.Submit(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", st.Profile.Login)

	close(bc.release["slow"])
	assert.ErrorIs(t, <-done, ErrSuperseded)

	final := c.Snapshot()
	assert.Equal(t, StatusReady, final.Status)
	assert.Equal(t, "fast", final.AccountName)
	assert.Equal(t, "fast", final.Profile.Login)
	require.Len(t, final.Repositories, 1)
	assert.Equal(t, "fast-repo", final.Repositories[0].Name)
}

func TestRun_ValidationSupersedesInFlight(t *testing.T) {
	bc := &blockingClient{release: map[string]chan struct{}{"slow": make(chan struct{})}}
	c := NewController(bc, nil)

	slow, err := c.Start("slow")
	require.NoError(t, err)

	_, err = c.Start(" ")
	require.ErrorIs(t, err, ErrValidation)

	close(bc.release["slow"])
	_, err = c.Run(context.Background(), slow)
	assert.ErrorIs(t, err, ErrSuperseded)

	st := c.Snapshot()
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Please enter a GitHub username", st.Message)
	assert.Equal(t, "slow", st.AccountName)
	assert.Nil(t, st.Profile, "superseded query must not commit its profile")
}

func TestSubmit_EmptyNameKeepsPreviousResult(t *testing.T) {
	c, srv := setupController(t)
	srv.SetUser("octocat", githubtest.Octocat())
	srv.SetRepos("octocat", githubtest.OctocatRepos())

	_, err := c.Submit(context.Background(), "octocat")
	require.NoError(t, err)

	st, err := c.Submit(context.Background(), "  ")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StatusError, st.Status)
	assert.Equal(t, "Please enter a GitHub username", st.Message)
	assert.Equal(t, "octocat", st.AccountName)
	require.NotNil(t, st.Profile)
	assert.Equal(t, "The Octocat", st.Profile.Name)
	require.Len(t, st.Repositories, 1)
	assert.Equal(t, "Hello-World", st.Repositories[0].Name)
	assert.Equal(t, 1, srv.UserCalls())
	assert.Equal(t, 1, srv.ReposCalls())

	// The next valid lookup clears the message again.
	st, err = c.Submit(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, st.Status)
	assert.Empty(t, st.Message)
}

func TestRun_ZeroQueryIsSuperseded(t *testing.T) {
	c := NewController(&blockingClient{}, nil)
	_, err := c.Run(context.Background(), Query{AccountName: "x"})
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, StatusIdle, c.Snapshot().Status)
}
