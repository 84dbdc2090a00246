// Package profile holds the lookup controller shared by every front end: it
// validates an account name, fetches the profile and then the repository
// list, and keeps the result for rendering.
package profile

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/joescharf/ghview/internal/github"
	"github.com/joescharf/ghview/internal/models"
)

// Status is the controller's current phase.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// State is a snapshot of the controller. Profile and Repositories always
// belong to AccountName, or are both empty.
type State struct {
	AccountName  string              `json:"account_name"`
	Status       Status              `json:"status"`
	Profile      *models.Profile     `json:"profile,omitempty"`
	Repositories []models.Repository `json:"repositories"`
	Message      string              `json:"error,omitempty"`
	Err          error               `json:"-"`
}

// Loading reports whether a query is in flight.
func (s State) Loading() bool { return s.Status == StatusLoading }

func (s State) clone() State {
	out := s
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	out.Repositories = make([]models.Repository, len(s.Repositories))
	copy(out.Repositories, s.Repositories)
	return out
}

// Query identifies one submission. Only the most recent query may change
// the controller's state.
type Query struct {
	Seq         uint64
	AccountName string
}

// Controller runs lookups and owns their result. It is safe for concurrent
// use; overlapping submissions resolve to whichever started last.
type Controller struct {
	client github.Client
	logger *slog.Logger

	mu    sync.Mutex
	seq   uint64
	state State
}

// NewController creates an idle controller. A nil logger uses slog.Default().
func NewController(client github.Client, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client: client,
		logger: logger,
		state:  State{Status: StatusIdle, Repositories: []models.Repository{}},
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Submit validates accountName and runs the lookup to completion.
func (c *Controller) Submit(ctx context.Context, accountName string) (State, error) {
	q, err := c.Start(accountName)
	if err != nil {
		return c.Snapshot(), err
	}
	return c.Run(ctx, q)
}

// Start validates accountName, clears the previous result and moves to
// Loading. Any query still in flight is superseded. An empty name moves
// straight to Error without touching the network and leaves the previous
// result in place.
func (c *Controller) Start(accountName string) (Query, error) {
	name := strings.TrimSpace(accountName)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	if name == "" {
		err := &Error{Kind: KindValidation}
		c.state.Status = StatusError
		c.state.Message = err.Kind.Message()
		c.state.Err = err
		return Query{}, err
	}

	c.state = State{
		AccountName:  name,
		Status:       StatusLoading,
		Repositories: []models.Repository{},
	}
	c.logger.Debug("lookup started", "account", name, "seq", c.seq)
	return Query{Seq: c.seq, AccountName: name}, nil
}

// Run performs the profile request and, if it succeeds, the repository
// request for q. The profile stays visible when only the repository request
// fails. q must come from Start on the same controller.
func (c *Controller) Run(ctx context.Context, q Query) (State, error) {
	p, err := c.client.GetUser(ctx, q.AccountName)
	if err != nil {
		return c.fail(q, &Error{Kind: KindNotFound, Err: err})
	}

	if _, ok := c.commit(q, func(s *State) { s.Profile = p }); !ok {
		return c.superseded(q)
	}

	repos, err := c.client.ListRepos(ctx, q.AccountName)
	if err != nil {
		return c.fail(q, &Error{Kind: KindFetch, Err: err})
	}

	st, ok := c.commit(q, func(s *State) {
		s.Repositories = repos
		if s.Repositories == nil {
			s.Repositories = []models.Repository{}
		}
		s.Status = StatusReady
	})
	if !ok {
		return c.superseded(q)
	}
	c.logger.Debug("lookup finished", "account", q.AccountName, "seq", q.Seq, "repos", len(repos))
	return st, nil
}

func (c *Controller) fail(q Query, qerr *Error) (State, error) {
	st, ok := c.commit(q, func(s *State) {
		s.Status = StatusError
		s.Message = qerr.Kind.Message()
		s.Err = qerr
	})
	if !ok {
		return c.superseded(q)
	}
	c.logger.Info("lookup failed", "account", q.AccountName, "seq", q.Seq, "kind", qerr.Kind.String(), "error", qerr.Err)
	return st, qerr
}

func (c *Controller) superseded(q Query) (State, error) {
	c.logger.Debug("lookup superseded", "account", q.AccountName, "seq", q.Seq)
	return c.Snapshot(), ErrSuperseded
}

// commit applies fn if q is still the latest query and returns the
// resulting snapshot.
func (c *Controller) commit(q Query, fn func(*State)) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q.Seq == 0 || q.Seq != c.seq {
		return c.state.clone(), false
	}
	fn(&c.state)
	return c.state.clone(), true
}
