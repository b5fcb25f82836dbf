package service

import (
	"sync"
	"time"

	"github.com/cloo-solutions/studyrag/internal/domain"
)

type session struct {
	history   []domain.Message
	updatedAt time.Time
}

// SessionStore holds conversation history between HTTP requests.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	uuidGen  UUIDGenerator
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		uuidGen:  &DefaultUUIDGenerator{},
	}
}

// Create starts an empty session and returns its id.
func (s *SessionStore) Create() string {
	id := s.uuidGen.NewString()
	s.mu.Lock()
	s.sessions[id] = &session{history: []domain.Message{}, updatedAt: time.Now().UTC()}
	s.mu.Unlock()
	return id
}

// Get returns a copy of the session history.
func (s *SessionStore) Get(id string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.Message, len(sess.history))
	copy(out, sess.history)
	return out, nil
}

// Update replaces the session history, creating the session if needed.
func (s *SessionStore) Update(id string, history []domain.Message) {
	stored := make([]domain.Message, len(history))
	copy(stored, history)

	s.mu.Lock()
	s.sessions[id] = &session{history: stored, updatedAt: time.Now().UTC()}
	s.mu.Unlock()
}

// Append adds turns to the end of the stored history under the store lock,
// so concurrent exchanges on one session all land. A session pruned in the
// meantime is recreated.
func (s *SessionStore) Append(id string, turns ...domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{history: []domain.Message{}}
		s.sessions[id] = sess
	}
	sess.history = append(sess.history, turns...)
	sess.updatedAt = time.Now().UTC()
}

// Clear discards the session's turns. The session id stays valid.
func (s *SessionStore) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.history = []domain.Message{}
	sess.updatedAt = time.Now().UTC()
	return nil
}

// Prune drops sessions idle for longer than maxIdle and returns how many.
func (s *SessionStore) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
