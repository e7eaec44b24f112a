package memory

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestAppendThenHistory(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	if err := store.Append(ctx, "u1", RoleUser, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "u1", RoleAssistant, "hi there"); err != nil {
		t.Fatalf("append: %v", err)
	}

	turns, err := store.History(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != RoleAssistant || last.Content != "hi there" {
		t.Errorf("unexpected last turn: %+v", last)
	}
}

func TestHistoryLimit(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Append(ctx, "u1", RoleUser, fmt.Sprintf("msg-%d", i))
	}

	turns, err := store.History(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "msg-3" || turns[1].Content != "msg-4" {
		t.Errorf("expected the 2 most recent turns, got %+v", turns)
	}
}

func TestHistoryUnknownUser(t *testing.T) {
	store := NewInMemoryStore(0)

	turns, err := store.History(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty history, got %d turns", len(turns))
	}
}

func TestLastActivityNonDecreasing(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	var prev time.Time
	for i := 0; i < 10; i++ {
		if err := store.Append(ctx, "u1", RoleUser, "m"); err != nil {
			t.Fatalf("append: %v", err)
		}
		sess, err := store.GetOrCreate(ctx, "u1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if sess.LastActivity.Before(prev) {
			t.Fatalf("lastActivity went backwards: %v -> %v", prev, sess.LastActivity)
		}
		prev = sess.LastActivity
	}
}

func TestAppendTrimsConversation(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	// Interleave system turns with an overflowing number of user turns.
	store.Append(ctx, "u1", RoleSystem, "ctx-1")
	for i := 0; i < 15; i++ {
		store.Append(ctx, "u1", RoleUser, fmt.Sprintf("msg-%d", i))
	}
	store.Append(ctx, "u1", RoleSystem, "ctx-2")
	for i := 15; i < 30; i++ {
		store.Append(ctx, "u1", RoleUser, fmt.Sprintf("msg-%d", i))
	}

	turns, err := store.History(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	var system, conversation []Turn
	for _, tr := range turns {
		if tr.Role == RoleSystem {
			system = append(system, tr)
		} else {
			conversation = append(conversation, tr)
		}
	}

	if len(system) != 2 {
		t.Errorf("expected all 2 system turns retained, got %d", len(system))
	}
	if len(conversation) != DefaultMaxTurns {
		t.Fatalf("expected %d non-system turns, got %d", DefaultMaxTurns, len(conversation))
	}
	// The 20 most recent user turns are msg-10..msg-29.
	if conversation[0].Content != "msg-10" || conversation[len(conversation)-1].Content != "msg-29" {
		t.Errorf("wrong turns retained: first=%q last=%q",
			conversation[0].Content, conversation[len(conversation)-1].Content)
	}
}

func TestClear(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	store.Append(ctx, "u1", RoleUser, "hello")
	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	turns, _ := store.History(ctx, "u1", 0)
	if len(turns) != 0 {
		t.Errorf("expected empty history after clear, got %d turns", len(turns))
	}

	// Clearing an absent session is a no-op.
	if err := store.Clear(ctx, "ghost"); err != nil {
		t.Errorf("clear of absent session should not fail: %v", err)
	}
}

func TestSweepIdle(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now.Add(-25 * time.Hour) }
	store.Append(ctx, "stale", RoleUser, "old message")

	store.now = func() time.Time { return now }
	store.Append(ctx, "fresh", RoleUser, "new message")

	removed, err := store.SweepIdle(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 session removed, got %d", removed)
	}

	count, _ := store.ActiveSessions(ctx)
	if count != 1 {
		t.Errorf("expected 1 active session, got %d", count)
	}
	turns, _ := store.History(ctx, "fresh", 0)
	if len(turns) != 1 {
		t.Errorf("fresh session should be untouched, got %d turns", len(turns))
	}
}

func TestGetOrCreateSnapshot(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	store.Append(ctx, "u1", RoleUser, "hello")
	sess, _ := store.GetOrCreate(ctx, "u1")
	sess.Turns[0].Content = "mutated"

	turns, _ := store.History(ctx, "u1", 0)
	if turns[0].Content != "hello" {
		t.Error("stored turns must not be mutable through GetOrCreate")
	}
}

func TestSweeperLifecycle(t *testing.T) {
	store := NewInMemoryStore(0)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now.Add(-48 * time.Hour) }
	store.Append(ctx, "stale", RoleUser, "old")
	store.now = time.Now

	sweeper := NewSweeper(store, 10*time.Millisecond, 24*time.Hour)
	sweeper.Start()
	time.Sleep(50 * time.Millisecond)
	sweeper.Stop()

	count, _ := store.ActiveSessions(ctx)
	if count != 0 {
		t.Errorf("expected stale session swept, %d remain", count)
	}
}
