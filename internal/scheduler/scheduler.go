// Package scheduler fans the full sync out into one staggered job per
// state and re-triggers the fan-out on a fixed cron schedule.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sellersync/internal/logger"
	"sellersync/internal/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// JobEvent is the queue payload for one state sync job.
type JobEvent struct {
	JobID     string    `json:"job_id"`
	StateCode string    `json:"state_code"`
	RunAt     time.Time `json:"run_at"`
}

type Scheduler struct {
	db        *gorm.DB
	publisher Publisher
	logger    *logger.Logger
	states    []string
	stagger   time.Duration
	cron      *cron.Cron
}

func New(db *gorm.DB, publisher Publisher, log *logger.Logger, stateCodes []string, stagger time.Duration) *Scheduler {
	return &Scheduler{
		db:        db,
		publisher: publisher,
		logger:    log,
		states:    stateCodes,
		stagger:   stagger,
		cron:      cron.New(),
	}
}

// EnqueueAllStates queues one sync job per state, staggered to avoid
// bursting the remote source. A state that already has a pending job
// is skipped, so re-triggering while a fan-out is in flight queues
// nothing extra. Returns the number of jobs queued.
func (s *Scheduler) EnqueueAllStates(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	// Clear the batch cursor left behind by the old single-pass sync.
	if err := db.Where("key = ?", models.LegacyCursorKey).Delete(&models.SyncOption{}).Error; err != nil {
		s.logger.Error("legacy cursor cleanup failed: %v", err)
	}

	queued := 0
	offset := time.Duration(0)

	for _, code := range s.states {
		var pending int64
		err := db.Model(&models.SyncJob{}).
			Where("state_code = ? AND status = ?", code, models.JobPending).
			Count(&pending).Error
		if err != nil {
			return queued, fmt.Errorf("pending job lookup failed for %s: %w", code, err)
		}
		if pending > 0 {
			continue
		}

		job := models.SyncJob{
			StateCode: code,
			Status:    models.JobPending,
			RunAt:     time.Now().Add(offset),
		}
		if err := db.Create(&job).Error; err != nil {
			return queued, fmt.Errorf("job create failed for %s: %w", code, err)
		}

		event, err := json.Marshal(JobEvent{
			JobID:     job.ID,
			StateCode: code,
			RunAt:     job.RunAt,
		})
		if err != nil {
			return queued, fmt.Errorf("job event marshal failed for %s: %w", code, err)
		}

		if err := s.publisher.Publish(ctx, code, event); err != nil {
			// Roll the row back so a later fan-out can requeue it.
			db.Delete(&models.SyncJob{}, "id = ?", job.ID)
			return queued, fmt.Errorf("job publish failed for %s: %w", code, err)
		}

		queued++
		offset += s.stagger
	}

	s.logger.Info("queued %d state sync jobs (%d states total)", queued, len(s.states))
	return queued, nil
}

// Start registers the recurring fan-out trigger and starts the cron
// loop. Schedule accepts cron syntax or descriptors like "@weekly".
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.EnqueueAllStates(context.Background()); err != nil {
			s.logger.Error("scheduled fan-out failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for a running trigger to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
