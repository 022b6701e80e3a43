package app

import (
	"context"
	"fmt"
	"sort"

	"iq-arena-service/internal/domain"

	"go.uber.org/zap"
)

// ChallengeStore persists challenges.
type ChallengeStore interface {
	CreateChallenge(ctx context.Context, challenge domain.Challenge) error
	// GetChallenge returns domain.ErrChallengeNotFound for unknown ids.
	GetChallenge(ctx context.Context, id string) (domain.Challenge, error)
	// CloseChallenge marks a challenge closed. Closing is never undone.
	CloseChallenge(ctx context.Context, id string) error
}

// ParticipantStore persists participants.
type ParticipantStore interface {
	// AddParticipant inserts p unless its challenge already holds capacity
	// participants, in which case the challenge is closed and
	// domain.ErrChallengeFull is returned.
	AddParticipant(ctx context.Context, p domain.Participant, capacity int) error
	CountParticipants(ctx context.Context, challengeID string) (int, error)
	// ListParticipants returns participants in arrival order.
	ListParticipants(ctx context.Context, challengeID string) ([]domain.Participant, error)
}

// Entry is a scored submission waiting to be placed in a challenge.
type Entry struct {
	UserName    string
	Score       int
	Title       string
	TimeTaken   float64
	ChallengeID string
}

// ChallengeService manages challenges, their participants and leaderboards.
type ChallengeService struct {
	challenges   ChallengeStore
	participants ParticipantStore
	opts         options
}

func NewChallengeService(challenges ChallengeStore, participants ParticipantStore, opts ...Option) *ChallengeService {
	return &ChallengeService{
		challenges:   challenges,
		participants: participants,
		opts:         buildOptions(opts),
	}
}

// Create opens a new, empty challenge seeded with the creator's result.
func (s *ChallengeService) Create(ctx context.Context, creatorName string, score int, title string) (domain.Challenge, error) {
	challenge := domain.Challenge{
		ID:              s.opts.newID(),
		CreatorName:     creatorName,
		CreatorScore:    score,
		CreatorTitle:    title,
		CreatedAt:       s.opts.now(),
		MaxParticipants: s.opts.rules.MaxParticipants,
	}
	if err := s.challenges.CreateChallenge(ctx, challenge); err != nil {
		return domain.Challenge{}, fmt.Errorf("create challenge: %w", err)
	}
	return challenge, nil
}

// Record places entry in its target challenge, or a new one when none is given,
// and always forks a fresh challenge for the submitter to share onward.
func (s *ChallengeService) Record(ctx context.Context, entry Entry) (domain.Result, error) {
	target, err := s.target(ctx, entry)
	if err != nil {
		return domain.Result{}, err
	}

	existing, err := s.participants.ListParticipants(ctx, target.ID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("list participants: %w", err)
	}
	percentile := Percentile(existing, entry.Score)

	participant := domain.Participant{
		ID:          s.opts.newID(),
		ChallengeID: target.ID,
		UserName:    entry.UserName,
		Score:       entry.Score,
		Title:       entry.Title,
		Percentile:  percentile,
		TimeTaken:   entry.TimeTaken,
		CreatedAt:   s.opts.now(),
	}
	if err := s.participants.AddParticipant(ctx, participant, s.capacity(target)); err != nil {
		if domain.KindOf(err) != domain.KindInternal {
			return domain.Result{}, err
		}
		return domain.Result{}, fmt.Errorf("add participant: %w", err)
	}

	shared, err := s.Create(ctx, entry.UserName, entry.Score, entry.Title)
	if err != nil {
		return domain.Result{}, err
	}

	return domain.Result{
		Score:             entry.Score,
		Percentile:        percentile,
		Title:             entry.Title,
		ChallengeID:       target.ID,
		SharedChallengeID: shared.ID,
		TotalParticipants: len(existing) + 1,
	}, nil
}

func (s *ChallengeService) target(ctx context.Context, entry Entry) (domain.Challenge, error) {
	if entry.ChallengeID == "" {
		return s.Create(ctx, entry.UserName, entry.Score, entry.Title)
	}

	challenge, err := s.challenges.GetChallenge(ctx, entry.ChallengeID)
	if err != nil {
		return domain.Challenge{}, err
	}
	if challenge.Closed {
		return domain.Challenge{}, domain.ErrChallengeClosed
	}

	count, err := s.participants.CountParticipants(ctx, challenge.ID)
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("count participants: %w", err)
	}
	if count >= s.capacity(challenge) {
		// The call that discovers the cap closes the challenge.
		if err := s.challenges.CloseChallenge(ctx, challenge.ID); err != nil {
			return domain.Challenge{}, fmt.Errorf("close challenge: %w", err)
		}
		s.opts.log.Info("challenge closed at capacity",
			zap.String("challenge_id", challenge.ID),
			zap.Int("participants", count),
		)
		return domain.Challenge{}, domain.ErrChallengeFull
	}
	return challenge, nil
}

func (s *ChallengeService) capacity(challenge domain.Challenge) int {
	if challenge.MaxParticipants > 0 {
		return challenge.MaxParticipants
	}
	return s.opts.rules.MaxParticipants
}

// Leaderboard ranks a challenge's participants by score, ties in arrival order.
func (s *ChallengeService) Leaderboard(ctx context.Context, challengeID string) (domain.Leaderboard, error) {
	if challengeID == "" {
		return domain.Leaderboard{}, domain.ErrMissingChallengeID
	}
	challenge, err := s.challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	participants, err := s.participants.ListParticipants(ctx, challengeID)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list participants: %w", err)
	}

	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Score > participants[j].Score
	})

	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for i, p := range participants {
		title := p.Title
		if title == "" {
			title = TitleFor(p.Score)
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:  i + 1,
			Name:  p.UserName,
			Score: p.Score,
			Title: title,
		})
	}

	return domain.Leaderboard{
		ChallengeRecord:   creatorRecord(challenge),
		Participants:      entries,
		TotalParticipants: len(entries),
	}, nil
}

func creatorRecord(c domain.Challenge) domain.CreatorRecord {
	record := domain.CreatorRecord{
		CreatorName:  c.CreatorName,
		CreatorScore: c.CreatorScore,
		CreatorTitle: c.CreatorTitle,
	}
	if record.CreatorName == "" {
		record.CreatorName = "Arena Master"
	}
	if record.CreatorTitle == "" {
		record.CreatorTitle = "Unknown"
	}
	return record
}
