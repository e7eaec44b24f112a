package memory

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultMaxTurns bounds the non-system turns retained per session.
const DefaultMaxTurns = 20

// InMemoryStore implements Store using a map guarded by a mutex.
// Sessions do not survive a restart; that loss is accepted.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxTurns int

	now func() time.Time // stubbed in tests
}

// NewInMemoryStore creates an in-memory session store. maxTurns <= 0 selects
// the default cap of 20 non-system turns.
func NewInMemoryStore(maxTurns int) *InMemoryStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &InMemoryStore{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// GetOrCreate implements Store. The returned session is a snapshot; callers
// cannot mutate stored turns through it.
func (s *InMemoryStore) GetOrCreate(ctx context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	return snapshot(sess), nil
}

func (s *InMemoryStore) getOrCreateLocked(userID string) *Session {
	sess, exists := s.sessions[userID]
	if !exists {
		now := s.now()
		sess = &Session{
			UserID:       userID,
			Turns:        []Turn{},
			CreatedAt:    now,
			LastActivity: now,
		}
		s.sessions[userID] = sess
		log.Printf("📝 Created new conversation session for user: %s", userID)
	}
	return sess
}

// Append implements Store.
func (s *InMemoryStore) Append(ctx context.Context, userID, role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreateLocked(userID)
	now := s.now()

	sess.Turns = append(sess.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if now.After(sess.LastActivity) {
		sess.LastActivity = now
	}

	before := len(sess.Turns)
	sess.Turns = trimTurns(sess.Turns, s.maxTurns)
	if len(sess.Turns) < before {
		log.Printf("🧹 Trimmed conversation history for user %s to %d turns", userID, len(sess.Turns))
	}

	return nil
}

// History implements Store.
func (s *InMemoryStore) History(ctx context.Context, userID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, exists := s.sessions[userID]
	if !exists {
		return []Turn{}, nil
	}

	turns := sess.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Clear implements Store.
func (s *InMemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[userID]
	if !exists {
		return nil
	}

	sess.Turns = []Turn{}
	now := s.now()
	if now.After(sess.LastActivity) {
		sess.LastActivity = now
	}
	log.Printf("🗑️ Cleared conversation history for user: %s", userID)
	return nil
}

// SweepIdle implements Store.
func (s *InMemoryStore) SweepIdle(ctx context.Context, maxAge time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for userID, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > maxAge {
			delete(s.sessions, userID)
			removed++
		}
	}

	if removed > 0 {
		log.Printf("🧹 Cleaned up %d inactive conversation sessions", removed)
	}
	return removed, nil
}

// ActiveSessions implements Store.
func (s *InMemoryStore) ActiveSessions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions), nil
}

// Close implements Store.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*Session)
	return nil
}

func snapshot(sess *Session) *Session {
	out := &Session{
		UserID:       sess.UserID,
		Turns:        make([]Turn, len(sess.Turns)),
		CreatedAt:    sess.CreatedAt,
		LastActivity: sess.LastActivity,
	}
	copy(out.Turns, sess.Turns)
	return out
}
