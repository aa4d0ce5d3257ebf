package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/config"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/database"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/handler"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/logger"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/repository"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/router"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/service"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/validator"
	"github.com/phamphong9981/phamnguyenbang-fe-sub001/internal/worker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Dur("tick_interval", cfg.TickInterval).
		Bool("allow_tab_review", cfg.AllowTabReview).
		Msg("Starting mock exam backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	groupRepo := repository.NewExamGroupRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	queue := service.NewQueue(rdb)
	authService := service.NewAuthService(cfg, rdb)
	groupService := service.NewExamGroupService(groupRepo, rdb, log)
	gradingService := service.NewGradingService(groupService, queue, log)
	leaderboardService := service.NewLeaderboardService(rdb, submissionRepo, cfg.LeaderboardSize, log)
	liveService := service.NewLiveSessionService(
		groupService,
		gradingService,
		service.NewSessionStore(rdb, cfg.SessionTTL),
		queue,
		service.LiveSessionConfig{
			TickInterval:       cfg.TickInterval,
			AllowReview:        cfg.AllowTabReview,
			SnapshotEveryTicks: cfg.SnapshotEveryTicks,
		},
		log,
	)
	gradingService.GuardLiveSessions(liveService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		ExamGroup:      handler.NewExamGroupHandler(groupService, gradingService, leaderboardService, log),
		WS:             handler.NewWSHandler(liveService, log, cfg.AllowedOrigins),
		Health:         handler.NewHealthHandler(database.NewHealthChecker(pool, rdb), log),
		StudentSession: handler.NewStudentSessionHandler(authService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workers, workerCtx := errgroup.WithContext(workerCtx)

	autosaveWorker := worker.NewAutosaveWorker(submissionRepo, rdb, log)
	scoringWorker := worker.NewScoringWorker(submissionRepo, rdb, log)

	workers.Go(func() error {
		autosaveWorker.Start(workerCtx)
		return nil
	})
	workers.Go(func() error {
		scoringWorker.Start(workerCtx)
		return nil
	})

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all exam groups into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := groupService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout). Hijacked
	// WebSocket connections are not tracked by Shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Pause live sessions so each writes its final snapshot.
	if err := liveService.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Live session shutdown error")
	}

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	if err := workers.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
