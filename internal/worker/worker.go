package worker

import (
	"context"
	"encoding/json"
	"time"

	"sellersync/internal/config"
	"sellersync/internal/logger"
	"sellersync/internal/models"
	"sellersync/internal/scheduler"
	syncjob "sellersync/internal/sync"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Worker consumes state sync jobs from the queue and runs them one at
// a time. Sequential consumption preserves the stagger the scheduler
// applied; a panicking or failing job is marked failed and the loop
// moves on, so no state can take the others down.
type Worker struct {
	config       *config.Config
	logger       *logger.Logger
	db           *gorm.DB
	reader       *kafka.Reader
	orchestrator *syncjob.Orchestrator
}

func New(cfg *config.Config, log *logger.Logger, db *gorm.DB, orchestrator *syncjob.Orchestrator) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.KafkaBrokers},
		GroupID:        "sellersync-worker",
		Topic:          cfg.SyncTopic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config:       cfg,
		logger:       log,
		db:           db,
		reader:       reader,
		orchestrator: orchestrator,
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for state sync jobs...")

	for {
		message, err := w.reader.ReadMessage(context.Background())
		if err != nil {
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		var event scheduler.JobEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse job event: %v", err)
			continue
		}

		w.runJob(event)
	}
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}

func (w *Worker) runJob(event scheduler.JobEvent) {
	// The scheduler staggers jobs by run-at time; honor it.
	if wait := time.Until(event.RunAt); wait > 0 {
		time.Sleep(wait)
	}

	ctx := context.Background()
	now := time.Now()

	w.db.Model(&models.SyncJob{}).
		Where("id = ?", event.JobID).
		Updates(map[string]interface{}{"status": models.JobRunning, "started_at": now})

	err := w.runIsolated(ctx, event.StateCode)

	finished := time.Now()
	updates := map[string]interface{}{
		"status":      models.JobDone,
		"finished_at": finished,
	}
	if err != nil {
		w.logger.Error("state sync failed (state=%s): %v", event.StateCode, err)
		msg := err.Error()
		updates["status"] = models.JobFailed
		updates["error"] = msg
	}

	w.db.Model(&models.SyncJob{}).
		Where("id = ?", event.JobID).
		Updates(updates)
}

// runIsolated keeps a panic inside one state's job from taking down
// the consumer loop.
func (w *Worker) runIsolated(ctx context.Context, stateCode string) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &panicError{value: recovered}
		}
	}()

	return w.orchestrator.SyncState(ctx, stateCode)
}

type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	return "panic during state sync: " + toString(e.value)
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	b, _ := json.Marshal(v)
	return string(b)
}
