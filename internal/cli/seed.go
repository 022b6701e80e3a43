package cli

import (
	"context"
	"errors"
	"fmt"

	"iq-arena-service/internal/infra/postgres"
	"iq-arena-service/internal/seed"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads a question pool file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the question pool into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}
			if file == "" {
				file = cfg.Questions.SeedFile
			}
			return runSeed(cmd.Context(), cfg.Postgres.URL, file, log)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "question YAML file, defaults to the built-in pool")
	return cmd
}

func runSeed(ctx context.Context, dsn, file string, log *zap.Logger) error {
	questions, err := seed.Load(file)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.NewStore(pool).UpsertQuestions(ctx, questions); err != nil {
		return err
	}
	log.Info("question pool seeded", zap.Int("questions", len(questions)), zap.String("file", file))
	return nil
}
