package memory

import (
	"context"
	"time"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is a single message in a conversation. Immutable once appended.
type Turn struct {
	Role      string    `json:"role"` // "user", "assistant" or "system"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the ordered turn history and metadata for one user.
// Turns are append-only and chronological; the only mutation besides append
// is the trim policy applied by the store itself.
type Session struct {
	UserID       string    `json:"user_id"`
	Turns        []Turn    `json:"turns"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Store defines the interface for conversation session storage.
// This allows swapping between in-memory and Redis backends.
type Store interface {
	// GetOrCreate returns a snapshot of the session for userID,
	// creating an empty one if absent.
	GetOrCreate(ctx context.Context, userID string) (*Session, error)

	// Append pushes a new turn with the current timestamp, updates
	// LastActivity and applies the trim policy.
	Append(ctx context.Context, userID, role, content string) error

	// History returns all turns for userID, or the most recent limit turns
	// when limit > 0 and the history is longer. Returns an empty slice when
	// no session exists.
	History(ctx context.Context, userID string, limit int) ([]Turn, error)

	// Clear removes all turns for userID. No-op if the session is absent.
	Clear(ctx context.Context, userID string) error

	// SweepIdle deletes every session whose LastActivity is older than
	// maxAge and returns the number removed.
	SweepIdle(ctx context.Context, maxAge time.Duration) (int, error)

	// ActiveSessions returns the number of live sessions (monitoring).
	ActiveSessions(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// trimTurns applies the trim policy: every system turn is retained, and at
// most maxTurns of the most recent non-system turns are kept. When trimming
// happens the retained sequence is system turns first (in insertion order)
// followed by the retained non-system turns.
func trimTurns(turns []Turn, maxTurns int) []Turn {
	if len(turns) <= maxTurns {
		return turns
	}

	var system, conversation []Turn
	for _, t := range turns {
		if t.Role == RoleSystem {
			system = append(system, t)
		} else {
			conversation = append(conversation, t)
		}
	}

	if len(conversation) <= maxTurns {
		return turns
	}

	conversation = conversation[len(conversation)-maxTurns:]
	return append(system, conversation...)
}
