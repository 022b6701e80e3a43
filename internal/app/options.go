package app

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	rules Rules
	now   func() time.Time
	rnd   Source
	newID IDGenerator
	log   *zap.Logger
}

// Option customizes QuizService and ChallengeService.
type Option func(*options)

// WithRules overrides DefaultRules.
func WithRules(rules Rules) Option {
	return func(o *options) { o.rules = rules }
}

// WithClock is mostly useful in tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRandom sets the shuffle source.
func WithRandom(rnd Source) Option {
	return func(o *options) { o.rnd = rnd }
}

// WithIDGenerator sets how session, challenge and participant ids are minted.
func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) { o.newID = gen }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func buildOptions(opts []Option) options {
	o := options{
		rules: DefaultRules(),
		now:   time.Now,
		newID: UUIDGenerator(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = defaultSource()
	}
	return o
}
