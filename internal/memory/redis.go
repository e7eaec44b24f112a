package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis, one JSON blob per user session.
// Idle expiry is delegated to key TTLs, so SweepIdle never removes anything
// itself; it exists to satisfy the Store contract.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	maxTurns int
}

// NewRedisStore creates a Redis-backed session store. ttl is the idle
// lifetime of a session key; it is refreshed on every append.
func NewRedisStore(redisURL string, ttl time.Duration, maxTurns int) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	return &RedisStore{
		client:   client,
		ttl:      ttl,
		maxTurns: maxTurns,
	}, nil
}

// sessionKey generates the Redis key for a user's session.
func (r *RedisStore) sessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}

// GetOrCreate implements Store.
func (r *RedisStore) GetOrCreate(ctx context.Context, userID string) (*Session, error) {
	return r.load(ctx, userID)
}

func (r *RedisStore) load(ctx context.Context, userID string) (*Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(userID)).Result()
	if err == redis.Nil {
		now := time.Now()
		return &Session{
			UserID:       userID,
			Turns:        []Turn{},
			CreatedAt:    now,
			LastActivity: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from Redis: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &sess, nil
}

func (r *RedisStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(sess.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	return nil
}

// Append implements Store.
func (r *RedisStore) Append(ctx context.Context, userID, role, content string) error {
	sess, err := r.load(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	sess.Turns = append(sess.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	if now.After(sess.LastActivity) {
		sess.LastActivity = now
	}
	sess.Turns = trimTurns(sess.Turns, r.maxTurns)

	return r.save(ctx, sess)
}

// History implements Store.
func (r *RedisStore) History(ctx context.Context, userID string, limit int) ([]Turn, error) {
	sess, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	turns := sess.Turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

// Clear implements Store.
func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SweepIdle implements Store. Expiry is handled by key TTLs.
func (r *RedisStore) SweepIdle(ctx context.Context, maxAge time.Duration) (int, error) {
	return 0, nil
}

// ActiveSessions implements Store.
func (r *RedisStore) ActiveSessions(ctx context.Context) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, "session:*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return count, nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping verifies the Redis connection is alive.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
