package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"iq-arena-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	fieldQuestionIDs = "questionIds"
	fieldStartedAt   = "startedAt"
	fieldConsumedAt  = "consumedAt"
)

// consumeScript claims the session atomically: -1 when missing, 1 for the winner, 0 otherwise.
var consumeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2])
`)

// SessionStore is a Redis implementation of app.SessionStore.
// Sessions are stored as: HSET quiz:session:{id} questionIds {JSON} startedAt {RFC3339} [consumedAt {RFC3339}]
// Session keys never expire; consumed sessions must keep rejecting replays.
type SessionStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, now: time.Now}
}

func (s *SessionStore) CreateSession(ctx context.Context, session domain.QuizSession) error {
	ids, err := json.Marshal(session.QuestionIDs)
	if err != nil {
		return fmt.Errorf("marshal question ids: %w", err)
	}
	key := s.key(session.ID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		fieldQuestionIDs, ids,
		fieldStartedAt, session.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if session.Consumed {
		pipe.HSet(ctx, key, fieldConsumedAt, s.now().UTC().Format(time.RFC3339Nano))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (domain.QuizSession, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return domain.QuizSession{}, err
	}
	if len(fields) == 0 {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}

	session := domain.QuizSession{ID: id}
	if err := json.Unmarshal([]byte(fields[fieldQuestionIDs]), &session.QuestionIDs); err != nil {
		return domain.QuizSession{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	session.StartedAt, err = time.Parse(time.RFC3339Nano, fields[fieldStartedAt])
	if err != nil {
		return domain.QuizSession{}, fmt.Errorf("decode session %s start: %w", id, err)
	}
	_, session.Consumed = fields[fieldConsumedAt]
	return session, nil
}

func (s *SessionStore) ConsumeSession(ctx context.Context, id string) error {
	res, err := consumeScript.Run(ctx, s.client, []string{s.key(id)},
		fieldConsumedAt, s.now().UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return err
	}
	switch res {
	case -1:
		return domain.ErrSessionNotFound
	case 0:
		return domain.ErrSessionUsed
	default:
		return nil
	}
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
