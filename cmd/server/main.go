package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ederson/cardforge/internal/api"
	"github.com/ederson/cardforge/internal/autoscan"
	"github.com/ederson/cardforge/internal/checkpoint"
	"github.com/ederson/cardforge/internal/config"
	"github.com/ederson/cardforge/internal/db"
	"github.com/ederson/cardforge/internal/drafting"
	"github.com/ederson/cardforge/internal/extract"
	"github.com/ederson/cardforge/internal/jobs"
	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/repository/sqlite"
	"github.com/ederson/cardforge/internal/scheduler"
	"github.com/ederson/cardforge/internal/services"
	"github.com/ederson/cardforge/internal/srs"
	"github.com/ederson/cardforge/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("CardForge Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("redis_addr=%s", cfg.RedisAddr)
	log.Debug("scan_worker_count=%d", cfg.ScanWorkerCount)
	log.Debug("scan_queue_size=%d", cfg.ScanQueueSize)
	log.Debug("extractor_base_url=%s", cfg.ExtractorBaseURL)
	log.Debug("drafter_base_url=%s", cfg.DrafterBaseURL)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Scan checkpoints live in Redis when configured, otherwise in SQLite
	// next to the rest of the data.
	var checkpointStore checkpoint.Store
	if cfg.RedisAddr != "" {
		redisStore, err := checkpoint.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		checkpointStore = redisStore
		log.Info("scan checkpoints stored in redis at %s", cfg.RedisAddr)
	} else {
		checkpointStore = checkpoint.NewSQLiteStore(database.DB)
		log.Info("scan checkpoints stored in sqlite")
	}

	// Repositories
	profileRepo := sqlite.NewProfileRepository(database.DB)
	deckRepo := sqlite.NewDeckRepository(database.DB)
	cardRepo := sqlite.NewCardRepository(database.DB)
	progressRepo := sqlite.NewProgressRepository(database.DB)
	examRepo := sqlite.NewExamRepository(database.DB)

	// Collaborators and worker pool
	extractClient := extract.New(cfg.ExtractorBaseURL)
	draftClient := drafting.New(cfg.DrafterBaseURL)
	scanPool := worker.NewPool(cfg.ScanWorkerCount, cfg.ScanQueueSize)
	jobQueue := jobs.NewWorkerQueue(scanPool)

	scanOpts := autoscan.Options{
		Retry:                autoscan.RetryPolicy{MaxAttempts: cfg.ScanMaxAttempts},
		MaxConsecutiveErrors: cfg.ScanMaxConsecutiveErrors,
		PageDelimiter:        cfg.ScanPageDelimiter,
	}
	batchOpts := srs.BatchOptions{
		PageSize:        cfg.StudyPageSize,
		NewCardCap:      cfg.NewCardCap,
		InterleaveRatio: cfg.NewCardInterleave,
	}

	// Services
	profileService := services.NewProfileService(profileRepo)
	deckService := services.NewDeckService(deckRepo)
	cardService := services.NewCardService(cardRepo, deckRepo)
	studyService := services.NewStudyService(cardRepo, progressRepo, deckRepo, batchOpts)
	examService := services.NewExamService(examRepo, cardRepo)
	scanService := services.NewScanService(deckRepo, cardService, extractClient, draftClient, checkpointStore, jobQueue, scanOpts)

	srv := &api.Server{
		DB:             database.DB,
		ProfileService: profileService,
		DeckService:    deckService,
		CardService:    cardService,
		StudyService:   studyService,
		ExamService:    examService,
		ScanService:    scanService,
	}

	scanPool.Start(context.Background())

	sched := scheduler.New(examService, time.Duration(cfg.SessionSweepMinutes)*time.Minute)
	sched.Start()

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping scheduler")
	sched.Stop()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping worker pool")
	scanPool.Stop()

	log.Info("===========================================")
	log.Info("CardForge Server Stopped")
	log.Info("===========================================")
}
