package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"iq-arena-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, err := store.GetSession(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	err := store.CreateSession(ctx, domain.QuizSession{
		ID:          "s1",
		QuestionIDs: []string{"q1", "q2"},
		StartedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	session, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Consumed || len(session.QuestionIDs) != 2 {
		t.Fatalf("unexpected session: %+v", session)
	}

	if err := store.ConsumeSession(ctx, "s1"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := store.ConsumeSession(ctx, "s1"); !errors.Is(err, domain.ErrSessionUsed) {
		t.Fatalf("expected session used, got %v", err)
	}
	session, _ = store.GetSession(ctx, "s1")
	if !session.Consumed {
		t.Fatalf("expected session consumed")
	}
}

func TestConsumeSessionHasSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()
	_ = store.CreateSession(ctx, domain.QuizSession{ID: "s1", QuestionIDs: []string{"q1"}})

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.ConsumeSession(ctx, "s1") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
