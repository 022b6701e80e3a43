package app

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Source is the randomness used for shuffling. *rand.Rand satisfies it but is
// not safe for concurrent use; wrap it with NewLockedSource when shared.
type Source interface {
	Intn(n int) int
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedSource returns a goroutine-safe Source seeded with seed.
func NewLockedSource(seed int64) Source {
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// IDGenerator produces globally unique identifiers.
type IDGenerator func() string

// UUIDGenerator returns random v4 UUIDs from crypto/rand.
func UUIDGenerator() IDGenerator {
	return uuid.NewString
}

// ReaderIDGenerator derives v4 UUIDs from r, so a seeded reader gives a repeatable sequence.
func ReaderIDGenerator(r io.Reader) IDGenerator {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id, err := uuid.NewRandomFromReader(r)
		if err != nil {
			return uuid.NewString()
		}
		return id.String()
	}
}

func defaultSource() Source {
	return NewLockedSource(time.Now().UnixNano())
}
