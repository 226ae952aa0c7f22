package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learning-friend-service/internal/app"
	"learning-friend-service/internal/config"
	"learning-friend-service/internal/content"
	"learning-friend-service/internal/infra/memory"
	"learning-friend-service/internal/infra/postgres"
	redisstore "learning-friend-service/internal/infra/redis"
	"learning-friend-service/internal/infra/sqlstore"
	"learning-friend-service/internal/logging"
	transport "learning-friend-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

const (
	defaultBankTTL    = 10 * time.Minute
	defaultSessionTTL = 2 * time.Hour
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// loadConfig reads the config file and installs the configured logger.
func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, fmt.Errorf("configure logging: %w", err)
	}
	logging.SetDefault(logger)
	return cfg, nil
}

// services holds everything the HTTP layer needs plus the resources to release on shutdown.
type services struct {
	quiz     *app.QuizService
	progress *app.ProgressService
	closers  []func() error
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logging.L().WithError(err).Warn("failed to release resource")
		}
	}
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	log := logging.L()
	svc := &services{}

	library, err := content.Builtin()
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, redisClient.Close)
	}

	var (
		pool   *pgxpool.Pool
		loader memory.BankLoader = library
	)
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		svc.closers = append(svc.closers, func() error { pool.Close(); return nil })
		bankStore := postgres.NewBankStore(pool)
		seeded, err := seedIfEmpty(ctx, bankStore, library.Banks())
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("seed empty subjects table: %w", err)
		}
		if seeded {
			log.Info("subjects table was empty, seeded built-in banks")
		}
		loader = bankStore
	}

	bankTTL := config.TTLDuration(cfg.Quiz.TTL, defaultBankTTL)
	var banks app.BankRepository
	if redisClient != nil {
		banks = redisstore.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Quiz.SessionTTL, defaultSessionTTL))
	} else {
		sessions = memory.NewSessionStore()
	}

	var progress app.ProgressStore
	switch {
	case cfg.Postgres.URL != "":
		db := sqlstore.OpenPostgres(cfg.Postgres.URL)
		svc.closers = append(svc.closers, db.Close)
		progress = sqlstore.NewProgressStore(db)
	case cfg.SQLite.Path != "":
		var db *bun.DB
		db, err = sqlstore.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, db.Close)
		progress = sqlstore.NewProgressStore(db)
	default:
		progress = memory.NewProgressStore()
	}

	log.WithFields(logrus.Fields{
		"redis":    redisClient != nil,
		"postgres": pool != nil,
		"sqlite":   cfg.SQLite.Path != "" && cfg.Postgres.URL == "",
	}).Info("storage configured")

	svc.quiz = app.NewQuizService(sessions, banks, library, progress)
	svc.progress = app.NewProgressService(progress)
	return svc, nil
}

// resolvePort prefers --port (or PORT), then server.port, then 8080.
func resolvePort(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg.Server.Port != "" {
		return cfg.Server.Port
	}
	return "8080"
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logging.L()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := resolvePort(portFlag, cfg)

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(svc.quiz, svc.progress),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("starting learning friend service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
