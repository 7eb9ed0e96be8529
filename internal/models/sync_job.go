package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobPending JobStatus = "PENDING"
	JobRunning JobStatus = "RUNNING"
	JobDone    JobStatus = "DONE"
	JobFailed  JobStatus = "FAILED"
)

// SyncJob is one scheduled per-state sync. The scheduler refuses to
// queue a second job for a state that already has a pending one.
type SyncJob struct {
	ID         string     `json:"id" gorm:"type:uuid;primary_key"`
	StateCode  string     `json:"state_code" gorm:"index;not null"`
	Status     JobStatus  `json:"status" gorm:"index;default:PENDING"`
	RunAt      time.Time  `json:"run_at"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Error      *string    `json:"error"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SyncOption is a key/value row for sync bookkeeping. Today it only
// carries the legacy single-cursor key that the scheduler clears.
type SyncOption struct {
	Key       string    `json:"key" gorm:"primary_key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LegacyCursorKey is the batch cursor left behind by the old
// single-pass sync; the fan-out deletes it on every run.
const LegacyCursorKey = "seller_sync_cursor"

func (j *SyncJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	return nil
}
