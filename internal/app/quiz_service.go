package app

import (
	"context"
	"fmt"
	"math"

	"iq-arena-service/internal/domain"

	"go.uber.org/zap"
)

// QuestionStore serves the seeded question pool (Postgres, cache, static file).
type QuestionStore interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	GetQuestions(ctx context.Context, ids []string) ([]domain.Question, error)
}

// SessionStore persists quiz sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session domain.QuizSession) error
	// GetSession returns domain.ErrSessionNotFound for unknown ids.
	GetSession(ctx context.Context, id string) (domain.QuizSession, error)
	// ConsumeSession flips consumed to true. Exactly one caller wins; the rest
	// get domain.ErrSessionUsed.
	ConsumeSession(ctx context.Context, id string) error
}

// QuizService contains the session and submission use cases.
type QuizService struct {
	questions  QuestionStore
	sessions   SessionStore
	challenges *ChallengeService
	opts       options
}

func NewQuizService(questions QuestionStore, sessions SessionStore, challenges *ChallengeService, opts ...Option) *QuizService {
	return &QuizService{
		questions:  questions,
		sessions:   sessions,
		challenges: challenges,
		opts:       buildOptions(opts),
	}
}

// StartQuiz draws a random question set and persists a fresh session for it.
func (s *QuizService) StartQuiz(ctx context.Context) (domain.StartedQuiz, error) {
	pool, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return domain.StartedQuiz{}, fmt.Errorf("list questions: %w", err)
	}
	if len(pool) == 0 {
		return domain.StartedQuiz{}, domain.ErrNoQuestions
	}

	// The store may hand back a shared cached slice.
	drawn := make([]domain.Question, len(pool))
	copy(drawn, pool)
	ShuffleQuestions(drawn, s.opts.rnd)
	if n := s.opts.rules.QuestionsPerSession; n > 0 && len(drawn) > n {
		drawn = drawn[:n]
	}

	session := domain.QuizSession{
		ID:          s.opts.newID(),
		QuestionIDs: make([]string, 0, len(drawn)),
		StartedAt:   s.opts.now(),
	}
	public := make([]domain.PublicQuestion, 0, len(drawn))
	for _, q := range drawn {
		session.QuestionIDs = append(session.QuestionIDs, q.ID)
		public = append(public, q.Public())
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return domain.StartedQuiz{}, fmt.Errorf("create session: %w", err)
	}
	s.opts.log.Debug("quiz session issued",
		zap.String("session_id", session.ID),
		zap.Int("questions", len(public)),
	)
	return domain.StartedQuiz{QuizSessionID: session.ID, Questions: public}, nil
}

// SubmitTest validates a submission against its session, scores it and records
// the result in a challenge.
func (s *QuizService) SubmitTest(ctx context.Context, sub domain.Submission) (domain.Result, error) {
	if sub.QuizSessionID == "" || sub.Answers == nil || sub.UserName == "" ||
		math.IsNaN(sub.TimeTaken) || math.IsInf(sub.TimeTaken, 0) {
		return domain.Result{}, domain.ErrInvalidPayload
	}
	name := SanitizeName(sub.UserName)

	session, err := s.sessions.GetSession(ctx, sub.QuizSessionID)
	if err != nil {
		return domain.Result{}, err
	}
	if err := s.validate(session, sub); err != nil {
		return domain.Result{}, err
	}

	// Consume before scoring so a concurrent duplicate loses.
	if err := s.sessions.ConsumeSession(ctx, session.ID); err != nil {
		return domain.Result{}, err
	}

	// From here on the session is spent; failures leave it consumed.
	log := s.opts.log.With(zap.String("session_id", session.ID))
	questions, err := s.questions.GetQuestions(ctx, session.QuestionIDs)
	if err != nil {
		log.Error("session consumed but questions could not be loaded", zap.Error(err))
		return domain.Result{}, fmt.Errorf("load session questions: %w", err)
	}
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	correct, difficulty := Evaluate(sub.Answers, byID)
	score := ScaleScore(RawScore(correct, difficulty, sub.TimeTaken))
	title := TitleFor(score)

	result, err := s.challenges.Record(ctx, Entry{
		UserName:    name,
		Score:       score,
		Title:       title,
		TimeTaken:   sub.TimeTaken,
		ChallengeID: sub.ChallengeID,
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			log.Error("session consumed but result could not be recorded", zap.Error(err))
		}
		return domain.Result{}, err
	}
	log.Info("test evaluated",
		zap.Int("correct", correct),
		zap.Int("score", score),
		zap.String("challenge_id", result.ChallengeID),
		zap.String("shared_challenge_id", result.SharedChallengeID),
	)
	return result, nil
}

// validate runs the session checks in their fixed order.
func (s *QuizService) validate(session domain.QuizSession, sub domain.Submission) error {
	rules := s.opts.rules
	if session.Consumed {
		return domain.ErrSessionUsed
	}
	if s.opts.now().Sub(session.StartedAt) > rules.TimeLimit+rules.Grace {
		return domain.ErrSessionExpired
	}
	if len(sub.Answers) > len(session.QuestionIDs) {
		return domain.ErrInvalidAnswersLength
	}
	for _, ans := range sub.Answers {
		if !session.HasQuestion(ans.QuestionID) {
			return domain.ErrQuestionMismatch
		}
	}
	if sub.TimeTaken < rules.MinTimeTaken || sub.TimeTaken > rules.MaxTimeTaken {
		return domain.ErrInvalidTimeTaken
	}
	if len(session.QuestionIDs) == 0 {
		return domain.ErrEmptySession
	}
	return nil
}
