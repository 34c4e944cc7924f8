package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/esports-bracket/config"
	"github.com/Dosada05/esports-bracket/db"
	"github.com/Dosada05/esports-bracket/handlers"
	"github.com/Dosada05/esports-bracket/repositories"
	api "github.com/Dosada05/esports-bracket/routes"
	"github.com/Dosada05/esports-bracket/services"
	"github.com/Dosada05/esports-bracket/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("env", cfg.AppEnv),
		slog.String("snapshot_backend", cfg.SnapshotBackend))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	snapshots, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing snapshot store: %w", err)
	}
	logger.Info("bracket snapshot store initialized", slog.String("backend", cfg.SnapshotBackend))

	tournamentRepo := repositories.NewTournamentRepository(dbConn)
	teamRepo := repositories.NewTeamRepository(dbConn)
	matchRepo := repositories.NewMatchRepository(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)

	adapter := services.NewBracketAdapter(cfg.Bracket())
	authService := services.NewAuthService(userRepo, logger)
	registrationService := services.NewRegistrationService(dbConn, tournamentRepo, teamRepo, cfg.Bracket(), logger)
	matchService := services.NewMatchService(dbConn, tournamentRepo, matchRepo, snapshots, adapter, logger)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, teamRepo, matchRepo, snapshots, adapter, logger)

	if err := authService.EnsureOperator(ctx, cfg.OperatorUsername, cfg.OperatorPassword); err != nil {
		return fmt.Errorf("bootstrapping operator account: %w", err)
	}

	scheduler, err := services.NewScheduler(tournamentService, services.SchedulerConfig{
		Interval:           cfg.SchedulerInterval,
		SnapshotAutoRepair: cfg.SnapshotAutoRepair,
	}, logger)
	if err != nil {
		return err
	}

	production := cfg.IsProduction()
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey, logger, production)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, logger, production)
	teamHandler := handlers.NewTeamHandler(registrationService, logger, production)
	matchHandler := handlers.NewMatchHandler(matchService, logger, production)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Config{
		Logger:         logger,
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.CORSOrigins,
		HealthChecks: map[string]handlers.Checker{
			"postgres":  dbConn.PingContext,
			"snapshots": snapshots.Ping,
		},
	}, authHandler, tournamentHandler, teamHandler, matchHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	scheduler.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := scheduler.Shutdown(); err != nil {
			logger.Error("scheduler shutdown failed", slog.Any("error", err))
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}

func newSnapshotStore(ctx context.Context, cfg *config.Config) (storage.SnapshotStore, error) {
	if cfg.SnapshotBackend == config.SnapshotBackendR2 {
		return storage.NewCloudflareR2Store(ctx, storage.CloudflareR2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			Endpoint:        cfg.R2.Endpoint,
			Prefix:          cfg.R2.Prefix,
			UsePathStyle:    cfg.R2.UsePathStyle,
		})
	}
	return storage.NewFilesystemStore(cfg.SnapshotDir)
}
