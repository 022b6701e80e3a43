package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"iq-arena-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the question pool from a backing store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question pool in Redis and falls back to a loader on cache miss.
// The pool is stored as: HSET questions:pool {questionID} {question JSON}
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	cached, err := r.client.HGetAll(ctx, poolKey).Result()
	if err == nil && len(cached) > 0 {
		return decodePool(cached)
	}

	result, err, _ := r.sf.Do(poolKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := r.client.HGetAll(ctx, poolKey).Result()
		if err == nil && len(cached) > 0 {
			return decodePool(cached)
		}

		pool, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return pool, nil
		}

		fields := make(map[string]interface{}, len(pool))
		for _, q := range pool {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			fields[q.ID] = raw
		}
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, poolKey)
		pipe.HSet(ctx, poolKey, fields)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, poolKey, ttl)
		}
		// A failed cache fill only costs another load.
		_, _ = pipe.Exec(ctx)

		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// GetQuestions reads only the requested ids, loading the pool on a cold cache.
func (r *QuestionRepository) GetQuestions(ctx context.Context, ids []string) ([]domain.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	values, err := r.client.HMGet(ctx, poolKey, ids...).Result()
	if err == nil {
		out := make([]domain.Question, 0, len(ids))
		complete := true
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				complete = false
				break
			}
			var q domain.Question
			if err := json.Unmarshal([]byte(s), &q); err != nil {
				return nil, fmt.Errorf("decode cached question: %w", err)
			}
			out = append(out, q)
		}
		if complete {
			return out, nil
		}
	}

	pool, err := r.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

// Invalidate drops the cached pool, e.g. after re-seeding.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, poolKey).Err()
}

const poolKey = "questions:pool"

func decodePool(cached map[string]string) ([]domain.Question, error) {
	pool := make([]domain.Question, 0, len(cached))
	for id, raw := range cached {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("decode cached question %s: %w", id, err)
		}
		pool = append(pool, q)
	}
	// Hash iteration order is random; keep the pool stable for seeded shuffles.
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
