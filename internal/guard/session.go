package guard

import "sync"

// AuthSession is what the guard knows about the current user. An empty Token
// means signed out; an empty Role with a token is an inconsistent session.
type AuthSession struct {
	Token string
	Role  Role
}

func (s AuthSession) Authenticated() bool {
	return s.Token != ""
}

// SessionStore owns the single AuthSession of a client. Login and Logout are
// the only writers; every change is pushed to subscribers so guards can
// re-evaluate.
type SessionStore struct {
	mu        sync.RWMutex
	session   AuthSession
	nextID    int
	listeners map[int]func(AuthSession)
}

func NewSessionStore() *SessionStore {
	return &SessionStore{listeners: make(map[int]func(AuthSession))}
}

func (s *SessionStore) Snapshot() AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *SessionStore) Login(token string, role Role) {
	s.set(AuthSession{Token: token, Role: role})
}

func (s *SessionStore) Logout() {
	s.set(AuthSession{})
}

// Subscribe registers fn for session changes and returns its cancel func.
func (s *SessionStore) Subscribe(fn func(AuthSession)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *SessionStore) set(next AuthSession) {
	s.mu.Lock()
	if s.session == next {
		s.mu.Unlock()
		return
	}
	s.session = next
	listeners := make([]func(AuthSession), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}
