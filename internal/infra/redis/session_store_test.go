package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"iq-arena-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreRoundTripAndConsume(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr))
	started := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	err = store.CreateSession(ctx, domain.QuizSession{
		ID:          "s1",
		QuestionIDs: []string{"q2", "q1"},
		StartedAt:   started,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:session:s1"); ttl != 0 {
		t.Fatalf("session keys must not expire, got ttl %v", ttl)
	}

	session, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Consumed || !session.StartedAt.Equal(started) {
		t.Fatalf("unexpected session: %+v", session)
	}
	if len(session.QuestionIDs) != 2 || session.QuestionIDs[0] != "q2" {
		t.Fatalf("expected question order preserved, got %v", session.QuestionIDs)
	}

	if err := store.ConsumeSession(ctx, "s1"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := store.ConsumeSession(ctx, "s1"); !errors.Is(err, domain.ErrSessionUsed) {
		t.Fatalf("expected session used, got %v", err)
	}
	session, _ = store.GetSession(ctx, "s1")
	if !session.Consumed {
		t.Fatalf("expected consumed session")
	}
}

func TestConsumedSessionStillRejectsLongAfter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr))
	err = store.CreateSession(ctx, domain.QuizSession{
		ID:          "s1",
		QuestionIDs: []string{"q1"},
		StartedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := store.ConsumeSession(ctx, "s1"); err != nil {
		t.Fatalf("consume: %v", err)
	}

	mr.FastForward(30 * 24 * time.Hour)

	session, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("session should survive, got %v", err)
	}
	if !session.Consumed {
		t.Fatalf("expected consumed session")
	}
	if err := store.ConsumeSession(ctx, "s1"); !errors.Is(err, domain.ErrSessionUsed) {
		t.Fatalf("expected session used, got %v", err)
	}
}

func TestSessionStoreMissingSession(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr))

	if _, err := store.GetSession(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.ConsumeSession(ctx, "nope"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found on consume, got %v", err)
	}
	if mr.Exists("quiz:session:nope") {
		t.Fatalf("consume must not create missing sessions")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
