package memory

import (
	"context"
	"errors"
	"testing"

	"iq-arena-service/internal/domain"
)

func TestChallengeStoreCapacityClosesChallenge(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore()
	_ = store.CreateChallenge(ctx, domain.Challenge{ID: "c1", CreatorName: "Alice", MaxParticipants: 2})

	for i, name := range []string{"Bob", "Carol"} {
		p := domain.Participant{ID: name, ChallengeID: "c1", UserName: name, Score: 100 + i}
		if err := store.AddParticipant(ctx, p, 2); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	err := store.AddParticipant(ctx, domain.Participant{ID: "Dave", ChallengeID: "c1"}, 2)
	if !errors.Is(err, domain.ErrChallengeFull) {
		t.Fatalf("expected challenge full, got %v", err)
	}
	challenge, _ := store.GetChallenge(ctx, "c1")
	if !challenge.Closed {
		t.Fatalf("expected challenge closed after hitting capacity")
	}

	err = store.AddParticipant(ctx, domain.Participant{ID: "Eve", ChallengeID: "c1"}, 2)
	if !errors.Is(err, domain.ErrChallengeClosed) {
		t.Fatalf("expected challenge closed, got %v", err)
	}
	if n, _ := store.CountParticipants(ctx, "c1"); n != 2 {
		t.Fatalf("expected 2 participants, got %d", n)
	}
}

func TestChallengeStoreListsInArrivalOrder(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore()
	_ = store.CreateChallenge(ctx, domain.Challenge{ID: "c1"})

	for _, id := range []string{"p1", "p2", "p3"} {
		if err := store.AddParticipant(ctx, domain.Participant{ID: id, ChallengeID: "c1"}, 0); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	list, err := store.ListParticipants(ctx, "c1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "p1" || list[2].ID != "p3" {
		t.Fatalf("unexpected order: %+v", list)
	}

	if _, err := store.GetChallenge(ctx, "missing"); !errors.Is(err, domain.ErrChallengeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
