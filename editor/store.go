// ABOUTME: In-memory session store keyed by uuid with idle expiry and a capacity cap.
// ABOUTME: Evicts the least recently used session when full; a ticker goroutine drops idle ones.

package editor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/pipeflow/flow"
)

// Store holds live editing sessions.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
	vocab       flow.Vocabulary
	now         func() time.Time
}

// NewStore creates a store holding at most maxSessions sessions (0 means
// unbounded), each expiring after ttl without access.
func NewStore(maxSessions int, ttl time.Duration) *Store {
	return &Store{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		now:         time.Now,
	}
}

// WithVocabulary sets the element vocabulary new sessions parse with.
func (s *Store) WithVocabulary(v flow.Vocabulary) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab = v
	return s
}

// Create opens a session on text. Text that does not parse still yields a
// session; its Err explains why.
func (s *Store) Create(text string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.evictLocked(s.leastRecentLocked(), "capacity")
	}

	sess := newSession(uuid.New().String(), text, s.vocab)
	sess.CreatedAt = s.now()
	sess.LastAccess = sess.CreatedAt
	s.sessions[sess.ID] = sess
	sessionsActive.Set(float64(len(s.sessions)))
	return sess
}

// Get returns the session with id and marks it as used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.LastAccess = s.now()
	return sess, true
}

// Delete drops a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	sessionsActive.Set(float64(len(s.sessions)))
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	var idle []string
	for id, sess := range s.sessions {
		if sess.LastAccess.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	for _, id := range idle {
		s.evictLocked(id, "idle")
	}
	return len(idle)
}

// StartCleanup runs Cleanup every interval until the returned stop function
// is called.
func (s *Store) StartCleanup(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

func (s *Store) leastRecentLocked() string {
	var id string
	var oldest time.Time
	for sid, sess := range s.sessions {
		if id == "" || sess.LastAccess.Before(oldest) {
			id, oldest = sid, sess.LastAccess
		}
	}
	return id
}

func (s *Store) evictLocked(id, reason string) {
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	sessionsEvicted.WithLabelValues(reason).Inc()
	sessionsActive.Set(float64(len(s.sessions)))
}
