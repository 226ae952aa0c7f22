package cli

import (
	"context"
	"fmt"

	"learning-friend-service/internal/content"
	"learning-friend-service/internal/domain"
	"learning-friend-service/internal/infra/postgres"
	"learning-friend-service/internal/logging"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewSeedCmd loads the built-in question banks into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert the built-in question banks into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			library, err := content.Builtin()
			if err != nil {
				return err
			}
			return seedBanks(cmd.Context(), postgres.NewBankStore(pool), library.Banks())
		},
	}
}

type bankSaver interface {
	SaveBank(ctx context.Context, bank domain.QuestionBank) error
}

type bankCounter interface {
	bankSaver
	CountBanks(ctx context.Context) (int, error)
}

// seedIfEmpty seeds banks only when the store holds no subjects yet.
func seedIfEmpty(ctx context.Context, store bankCounter, banks map[string]domain.QuestionBank) (bool, error) {
	n, err := store.CountBanks(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := seedBanks(ctx, store, banks); err != nil {
		return false, err
	}
	return true, nil
}

// seedBanks saves every bank concurrently and stops at the first failure.
func seedBanks(ctx context.Context, store bankSaver, banks map[string]domain.QuestionBank) error {
	g, ctx := errgroup.WithContext(ctx)
	for id, bank := range banks {
		id, bank := id, bank
		g.Go(func() error {
			if err := store.SaveBank(ctx, bank); err != nil {
				return fmt.Errorf("seed %s: %w", id, err)
			}
			logging.L().WithFields(logrus.Fields{
				"subject_id": id,
				"questions":  len(bank.Questions),
			}).Info("subject seeded")
			return nil
		})
	}
	return g.Wait()
}
