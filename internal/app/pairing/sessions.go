package pairing

import (
	"fmt"
	"time"

	"pairrelay/internal/pkg/randx"
)

// Side identifies one of the two members of a session.
// SideA is the party that initiated the pairing (the artist under the role policy).
type Side int

const (
	SideA Side = iota
	SideB
)

// Other returns the opposite side.
func (s Side) Other() Side {
	return 1 - s
}

// Session is an active two-party relay.
type Session struct {
	ID        string
	Conns     [2]string
	Names     [2]string
	CreatedAt time.Time

	// timer is the countdown of the time-boxed variant; nil when sessions do not expire.
	timer *time.Timer
}

// sideOf returns which side connID occupies.
func (s *Session) sideOf(connID string) (Side, bool) {
	switch connID {
	case s.Conns[SideA]:
		return SideA, true
	case s.Conns[SideB]:
		return SideB, true
	}
	return 0, false
}

// Readiness tracks whether each side reached the session view.
// Flags only move from false to true.
type Readiness struct {
	Ready   [2]bool
	Started bool
}

// sessionTable owns every Session together with its Readiness.
// Both are created in create and dropped in remove, never separately.
type sessionTable struct {
	sessions  map[string]*Session
	readiness map[string]*Readiness

	// byConn enforces one session per connection.
	byConn map[string]string

	newID func() (string, error)
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		sessions:  make(map[string]*Session),
		readiness: make(map[string]*Readiness),
		byConn:    make(map[string]string),
		newID:     randx.SessionID,
	}
}

// create opens a session between a and b. Either connection already owning a session is an error.
func (t *sessionTable) create(a, b string, nameA, nameB string) (*Session, error) {
	if a == b {
		return nil, fmt.Errorf("session sides must differ")
	}
	for _, connID := range []string{a, b} {
		if existing, ok := t.byConn[connID]; ok {
			return nil, fmt.Errorf("connection %s already in session %s", connID, existing)
		}
	}

	var id string
	for {
		generated, err := t.newID()
		if err != nil {
			return nil, err
		}
		if _, taken := t.sessions[generated]; !taken {
			id = generated
			break
		}
	}

	s := &Session{
		ID:        id,
		Conns:     [2]string{a, b},
		Names:     [2]string{nameA, nameB},
		CreatedAt: time.Now(),
	}

	t.sessions[id] = s
	t.readiness[id] = &Readiness{}
	t.byConn[a] = id
	t.byConn[b] = id

	return s, nil
}

func (t *sessionTable) get(sessionID string) (*Session, bool) {
	s, ok := t.sessions[sessionID]
	return s, ok
}

// of returns the session connID belongs to.
func (t *sessionTable) of(connID string) (*Session, bool) {
	id, ok := t.byConn[connID]
	if !ok {
		return nil, false
	}
	return t.get(id)
}

// markReady sets connID's flag. It returns true exactly once per session: on the call that
// completes readiness for both sides.
func (t *sessionTable) markReady(sessionID, connID string) bool {
	s, ok := t.sessions[sessionID]
	if !ok {
		return false
	}
	r, ok := t.readiness[sessionID]
	if !ok {
		return false
	}

	side, ok := s.sideOf(connID)
	if !ok {
		return false
	}

	r.Ready[side] = true

	if r.Ready[SideA] && r.Ready[SideB] && !r.Started {
		r.Started = true
		return true
	}
	return false
}

func (t *sessionTable) readinessOf(sessionID string) (Readiness, bool) {
	r, ok := t.readiness[sessionID]
	if !ok {
		return Readiness{}, false
	}
	return *r, true
}

// rename updates the display name of connID's side.
func (t *sessionTable) rename(s *Session, connID, username string) bool {
	side, ok := s.sideOf(connID)
	if !ok {
		return false
	}
	s.Names[side] = username
	return true
}

// remove deletes the session and its readiness and cancels its countdown.
// It is a no-op for unknown ids.
func (t *sessionTable) remove(sessionID string) (*Session, bool) {
	s, ok := t.sessions[sessionID]
	if !ok {
		return nil, false
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	delete(t.sessions, sessionID)
	delete(t.readiness, sessionID)
	for _, connID := range s.Conns {
		if t.byConn[connID] == sessionID {
			delete(t.byConn, connID)
		}
	}

	return s, true
}

func (t *sessionTable) len() int {
	return len(t.sessions)
}

// all returns every live session, used on shutdown.
func (t *sessionTable) all() []*Session {
	list := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		list = append(list, s)
	}
	return list
}
