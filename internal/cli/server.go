package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iq-arena-service/internal/app"
	"iq-arena-service/internal/config"
	"iq-arena-service/internal/infra/memory"
	"iq-arena-service/internal/infra/postgres"
	infraredis "iq-arena-service/internal/infra/redis"
	"iq-arena-service/internal/logger"
	"iq-arena-service/internal/seed"
	transport "iq-arena-service/internal/transport/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the arena HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if *port != "" {
				cfg.Server.Port = *port
			}
			return runServer(cmd.Context(), cfg, log)
		},
	}
}

// bootstrap loads the configuration and builds the logger shared by every command.
func bootstrap(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

// stores is the persistence wiring picked from the configuration.
type stores struct {
	questions    app.QuestionStore
	sessions     app.SessionStore
	challenges   app.ChallengeStore
	participants app.ParticipantStore
	checks       map[string]transport.Pinger
	closers      []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores prefers Postgres for durable records and Redis for sessions and the
// question cache, falling back to process memory for whatever is not configured.
func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	s := &stores{checks: map[string]transport.Pinger{}}
	questionTTL := config.TTLDuration(cfg.Redis.QuestionTTL, 10*time.Minute)

	var loader memory.QuestionLoader
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		store := postgres.NewStore(pool)
		loader = store
		s.sessions = store
		s.challenges = store
		s.participants = store
		s.checks["postgres"] = store
		log.Info("using postgres storage")
	} else {
		questions, err := seed.Load(cfg.Questions.SeedFile)
		if err != nil {
			s.close()
			return nil, err
		}
		arena := memory.NewChallengeStore()
		loader = memory.NewStaticQuestionLoader(questions)
		s.sessions = memory.NewSessionStore()
		s.challenges = arena
		s.participants = arena
		log.Warn("no database configured, records are kept in memory", zap.Int("questions", len(questions)))
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = client.Close() })

		sessions := infraredis.NewSessionStore(client)
		s.sessions = sessions
		s.questions = infraredis.NewQuestionRepository(client, loader, questionTTL)
		s.checks["redis"] = sessions
		log.Info("using redis for sessions and question cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		s.questions = memory.NewQuestionRepository(loader, questionTTL)
	}
	return s, nil
}

func rulesFrom(cfg config.Config) app.Rules {
	rules := app.DefaultRules()
	rules.QuestionsPerSession = cfg.Quiz.QuestionsPerSession
	rules.TimeLimit = config.TTLDuration(cfg.Quiz.TimeLimit, rules.TimeLimit)
	rules.Grace = config.TTLDuration(cfg.Quiz.Grace, rules.Grace)
	rules.MinTimeTaken = cfg.Quiz.MinTimeTaken
	rules.MaxTimeTaken = cfg.Quiz.MaxTimeTaken
	rules.MaxParticipants = cfg.Challenge.MaxParticipants
	return rules
}

func runServer(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	opts := []app.Option{app.WithRules(rulesFrom(cfg)), app.WithLogger(log)}
	challenges := app.NewChallengeService(st.challenges, st.participants, opts...)
	quiz := app.NewQuizService(st.questions, st.sessions, challenges, opts...)
	handler := transport.NewHandler(quiz, challenges, transport.NewMetrics(), log, st.checks)
	router := transport.NewRouter(handler, transport.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit:      cfg.RateLimit.MaxRequests,
		RateWindow:     config.TTLDuration(cfg.RateLimit.Window, 15*time.Minute),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting arena service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	case err := <-errCh:
		log.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
