package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"iq-arena-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

const poolKey = "pool"

// QuestionLoader fetches the question pool from a backing store (e.g., Postgres, seed file).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question pool with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu        sync.RWMutex
	rnd       *rand.Rand
	pool      []domain.Question
	byID      map[string]domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListQuestions returns the cached pool. Callers must not modify the slice.
func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	pool, _, err := r.load(ctx)
	return pool, err
}

// GetQuestions returns the pooled questions with the given ids; unknown ids are skipped.
func (r *QuestionRepository) GetQuestions(ctx context.Context, ids []string) ([]domain.Question, error) {
	_, byID, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *QuestionRepository) load(ctx context.Context) ([]domain.Question, map[string]domain.Question, error) {
	if pool, byID, ok := r.cached(r.clock()); ok {
		return pool, byID, nil
	}

	_, err, _ := r.sf.Do(poolKey, func() (interface{}, error) {
		now := r.clock()
		// Re-check cache in case another goroutine filled it.
		if _, _, ok := r.cached(now); ok {
			return nil, nil
		}

		pool, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]domain.Question, len(pool))
		for _, q := range pool {
			byID[q.ID] = q
		}

		r.mu.Lock()
		r.pool = pool
		r.byID = byID
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return nil, nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pool, r.byID, nil
}

func (r *QuestionRepository) cached(now time.Time) ([]domain.Question, map[string]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.byID != nil && r.expiresAt.After(now) {
		return r.pool, r.byID, true
	}
	return nil, nil, false
}

// Invalidate drops the cached pool, e.g. after re-seeding.
func (r *QuestionRepository) Invalidate() {
	r.mu.Lock()
	r.pool, r.byID, r.expiresAt = nil, nil, time.Time{}
	r.mu.Unlock()
}

// ttlWithJitter must be called with mu held.
func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a loader backed by a fixed slice (seed file, tests, demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, len(l.questions))
	copy(out, l.questions)
	return out, nil
}
