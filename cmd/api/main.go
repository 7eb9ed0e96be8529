package main

import (
	"log"
	"time"

	"sellersync/internal/api"
	"sellersync/internal/config"
	"sellersync/internal/database"
	"sellersync/internal/fetch"
	"sellersync/internal/logger"
	"sellersync/internal/scheduler"
	"sellersync/internal/states"
	"sellersync/internal/store"
	syncjob "sellersync/internal/sync"
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

	// Wire the sync pipeline for the manual triggers
	fetcher := fetch.New(logger)
	reconciler := store.NewReconciler(db.DB, fetcher, logger, cfg.UploadDir)
	orchestrator := syncjob.NewOrchestrator(cfg, fetcher, reconciler, logger)

	publisher := scheduler.NewKafkaPublisher(cfg.KafkaBrokers, cfg.SyncTopic)
	defer publisher.Close()

	stagger := time.Duration(cfg.StaggerSeconds) * time.Second
	sched := scheduler.New(db.DB, publisher, logger, states.Codes(), stagger)

	// Initialize API server
	server := api.New(cfg, logger, db, sched, orchestrator, reconciler)

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
