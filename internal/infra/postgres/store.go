package postgres

import (
	"context"
	"errors"
	"fmt"

	"iq-arena-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store persists questions, quiz sessions, challenges and participants in Postgres.
// It satisfies every app store interface plus the memory/redis QuestionLoader.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// LoadQuestions reads the whole pool ordered by id.
func (s *Store) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, text, options, correct_answer, difficulty FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return scanQuestions(rows)
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.LoadQuestions(ctx)
}

func (s *Store) GetQuestions(ctx context.Context, ids []string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, options, correct_answer, difficulty FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	return scanQuestions(rows)
}

// UpsertQuestions seeds the pool, replacing questions with the same id.
func (s *Store) UpsertQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(`INSERT INTO questions (id, text, options, correct_answer, difficulty)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, options = EXCLUDED.options,
				correct_answer = EXCLUDED.correct_answer, difficulty = EXCLUDED.difficulty`,
			q.ID, q.Text, q.Options, q.CorrectAnswer, q.Weight())
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, q := range questions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert question %s: %w", q.ID, err)
		}
	}
	return nil
}

func scanQuestions(rows pgx.Rows) ([]domain.Question, error) {
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Options, &q.CorrectAnswer, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CreateSession(ctx context.Context, session domain.QuizSession) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_sessions (id, question_ids, started_at, consumed) VALUES ($1, $2, $3, $4)`,
		session.ID, session.QuestionIDs, session.StartedAt, session.Consumed)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id string) (domain.QuizSession, error) {
	session := domain.QuizSession{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT question_ids, started_at, consumed FROM quiz_sessions WHERE id = $1`, id).
		Scan(&session.QuestionIDs, &session.StartedAt, &session.Consumed)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ConsumeSession is a conditional update, so only one concurrent caller succeeds.
func (s *Store) ConsumeSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quiz_sessions SET consumed = TRUE WHERE id = $1 AND NOT consumed`, id)
	if err != nil {
		return fmt.Errorf("consume session: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}
	return domain.ErrSessionUsed
}

func (s *Store) CreateChallenge(ctx context.Context, c domain.Challenge) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO challenges (id, creator_name, creator_score, creator_title, created_at, max_participants, closed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.CreatorName, c.CreatorScore, c.CreatorTitle, c.CreatedAt, c.MaxParticipants, c.Closed)
	if err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}
	return nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (domain.Challenge, error) {
	c := domain.Challenge{ID: id}
	err := s.pool.QueryRow(ctx,
		`SELECT creator_name, creator_score, creator_title, created_at, max_participants, closed
		FROM challenges WHERE id = $1`, id).
		Scan(&c.CreatorName, &c.CreatorScore, &c.CreatorTitle, &c.CreatedAt, &c.MaxParticipants, &c.Closed)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Challenge{}, domain.ErrChallengeNotFound
	}
	if err != nil {
		return domain.Challenge{}, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

func (s *Store) CloseChallenge(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE challenges SET closed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("close challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

// AddParticipant locks the challenge row so the capacity check and the insert are atomic.
func (s *Store) AddParticipant(ctx context.Context, p domain.Participant, capacity int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	var closed bool
	err = tx.QueryRow(ctx, `SELECT closed FROM challenges WHERE id = $1 FOR UPDATE`, p.ChallengeID).Scan(&closed)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrChallengeNotFound
	}
	if err != nil {
		return fmt.Errorf("lock challenge: %w", err)
	}
	if closed {
		return domain.ErrChallengeClosed
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM participants WHERE challenge_id = $1`, p.ChallengeID).Scan(&count); err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	if capacity > 0 && count >= capacity {
		if _, err := tx.Exec(ctx, `UPDATE challenges SET closed = TRUE WHERE id = $1`, p.ChallengeID); err != nil {
			return fmt.Errorf("close challenge: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return domain.ErrChallengeFull
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO participants (id, challenge_id, user_name, score, title, percentile, time_taken, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ChallengeID, p.UserName, p.Score, p.Title, p.Percentile, p.TimeTaken, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) CountParticipants(ctx context.Context, challengeID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM participants WHERE challenge_id = $1`, challengeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (s *Store) ListParticipants(ctx context.Context, challengeID string) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_name, score, title, percentile, time_taken, created_at
		FROM participants WHERE challenge_id = $1 ORDER BY seq`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		p := domain.Participant{ChallengeID: challengeID}
		if err := rows.Scan(&p.ID, &p.UserName, &p.Score, &p.Title, &p.Percentile, &p.TimeTaken, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
