package memory

import (
	"context"
	"sync"

	"iq-arena-service/internal/domain"
)

// ChallengeStore keeps challenges and their participants in memory. It implements
// both app.ChallengeStore and app.ParticipantStore so the capacity check and the
// insert share one lock.
type ChallengeStore struct {
	mu           sync.RWMutex
	challenges   map[string]domain.Challenge
	participants map[string][]domain.Participant
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges:   make(map[string]domain.Challenge),
		participants: make(map[string][]domain.Participant),
	}
}

func (s *ChallengeStore) CreateChallenge(_ context.Context, challenge domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.ID] = challenge
	return nil
}

func (s *ChallengeStore) GetChallenge(_ context.Context, id string) (domain.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenge, ok := s.challenges[id]
	if !ok {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	return challenge, nil
}

func (s *ChallengeStore) CloseChallenge(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked(id)
}

func (s *ChallengeStore) closeLocked(id string) error {
	challenge, ok := s.challenges[id]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	challenge.Closed = true
	s.challenges[id] = challenge
	return nil
}

func (s *ChallengeStore) AddParticipant(_ context.Context, p domain.Participant, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.challenges[p.ChallengeID]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	if challenge.Closed {
		return domain.ErrChallengeClosed
	}
	if capacity > 0 && len(s.participants[p.ChallengeID]) >= capacity {
		_ = s.closeLocked(p.ChallengeID)
		return domain.ErrChallengeFull
	}
	s.participants[p.ChallengeID] = append(s.participants[p.ChallengeID], p)
	return nil
}

func (s *ChallengeStore) CountParticipants(_ context.Context, challengeID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants[challengeID]), nil
}

func (s *ChallengeStore) ListParticipants(_ context.Context, challengeID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.participants[challengeID]
	out := make([]domain.Participant, len(list))
	copy(out, list)
	return out, nil
}
