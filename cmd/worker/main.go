package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sellersync/internal/config"
	"sellersync/internal/database"
	"sellersync/internal/fetch"
	"sellersync/internal/logger"
	"sellersync/internal/scheduler"
	"sellersync/internal/states"
	"sellersync/internal/store"
	syncjob "sellersync/internal/sync"
	"sellersync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	level := cfg.LogLevel
	if cfg.SyncDebug {
		level = "debug"
	}
	logger := logger.New(level, cfg.Env)

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}

	// Wire the sync pipeline
	fetcher := fetch.New(logger)
	reconciler := store.NewReconciler(db.DB, fetcher, logger, cfg.UploadDir)
	orchestrator := syncjob.NewOrchestrator(cfg, fetcher, reconciler, logger)

	// Recurring fan-out trigger
	publisher := scheduler.NewKafkaPublisher(cfg.KafkaBrokers, cfg.SyncTopic)
	stagger := time.Duration(cfg.StaggerSeconds) * time.Second
	sched := scheduler.New(db.DB, publisher, logger, states.Codes(), stagger)
	if err := sched.Start(cfg.SyncSchedule); err != nil {
		logger.Fatal("Failed to start scheduler: %v", err)
	}

	// Initialize worker
	w := worker.New(cfg, logger, db.DB, orchestrator)

	// Start worker
	logger.Info("Starting worker...")
	go w.Start()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	sched.Stop()
	w.Stop()
	publisher.Close()
}
