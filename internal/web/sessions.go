package web

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/ghview/internal/profile"
)

// session is one browser's lookup state. Each session owns its controller;
// nothing is shared between sessions.
type session struct {
	id         string
	controller *profile.Controller

	mu       sync.Mutex
	input    string
	lastSeen time.Time
}

func (s *session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *session) SetInput(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = v
}

// sessionStore tracks sessions by ULID and drops those idle longer than ttl.
type sessionStore struct {
	ttl           time.Duration
	now           func() time.Time
	newController func() *profile.Controller

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore(ttl time.Duration, newController func() *profile.Controller) *sessionStore {
	return &sessionStore{
		ttl:           ttl,
		now:           time.Now,
		newController: newController,
		sessions:      make(map[string]*session),
	}
}

// get returns the live session for id and marks it as seen.
func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	s.lastSeen = st.now()
	s.mu.Unlock()
	return s, true
}

// create starts a new session with an idle controller.
func (st *sessionStore) create() *session {
	s := &session{
		id:         ulid.Make().String(),
		controller: st.newController(),
		lastSeen:   st.now(),
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.pruneLocked()
	st.sessions[s.id] = s
	return s
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) pruneLocked() {
	if st.ttl <= 0 {
		return
	}
	cutoff := st.now().Add(-st.ttl)
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(st.sessions, id)
		}
	}
}
