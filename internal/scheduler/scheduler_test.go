package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"sellersync/internal/database"
	"sellersync/internal/logger"
	"sellersync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	messages []JobEvent
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	if f.err != nil {
		return f.err
	}
	var event JobEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	f.messages = append(f.messages, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newTestScheduler(t *testing.T, pub Publisher, stateCodes []string) (*Scheduler, *database.Database) {
	t.Helper()

	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.New("error", "test")
	return New(db.DB, pub, log, stateCodes, 15*time.Second), db
}

func TestEnqueueAllStatesStaggersJobs(t *testing.T) {
	pub := &fakePublisher{}
	sched, db := newTestScheduler(t, pub, []string{"CO", "CA", "NY"})

	queued, err := sched.EnqueueAllStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, queued)
	require.Len(t, pub.messages, 3)

	var jobs []models.SyncJob
	require.NoError(t, db.DB.Order("run_at").Find(&jobs).Error)
	require.Len(t, jobs, 3)

	for _, job := range jobs {
		assert.Equal(t, models.JobPending, job.Status)
	}

	// Each job runs 15s after the previous one
	gap1 := jobs[1].RunAt.Sub(jobs[0].RunAt)
	gap2 := jobs[2].RunAt.Sub(jobs[1].RunAt)
	assert.InDelta(t, 15, gap1.Seconds(), 1)
	assert.InDelta(t, 15, gap2.Seconds(), 1)
}

func TestEnqueueAllStatesIsIdempotent(t *testing.T) {
	pub := &fakePublisher{}
	sched, db := newTestScheduler(t, pub, []string{"CO", "CA"})

	queued, err := sched.EnqueueAllStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	// Everything still pending; a second trigger queues nothing
	queued, err = sched.EnqueueAllStates(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
	assert.Len(t, pub.messages, 2)

	var jobs int64
	db.DB.Model(&models.SyncJob{}).Count(&jobs)
	assert.EqualValues(t, 2, jobs)
}

func TestEnqueueRequeuesFinishedStates(t *testing.T) {
	pub := &fakePublisher{}
	sched, db := newTestScheduler(t, pub, []string{"CO"})

	_, err := sched.EnqueueAllStates(context.Background())
	require.NoError(t, err)

	require.NoError(t, db.DB.Model(&models.SyncJob{}).
		Where("state_code = ?", "CO").
		Update("status", models.JobDone).Error)

	queued, err := sched.EnqueueAllStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}

func TestEnqueueClearsLegacyCursor(t *testing.T) {
	pub := &fakePublisher{}
	sched, db := newTestScheduler(t, pub, []string{"CO"})

	require.NoError(t, db.DB.Create(&models.SyncOption{Key: models.LegacyCursorKey, Value: "MT"}).Error)

	_, err := sched.EnqueueAllStates(context.Background())
	require.NoError(t, err)

	var options int64
	db.DB.Model(&models.SyncOption{}).Count(&options)
	assert.Zero(t, options)
}

func TestEnqueueRollsBackOnPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	sched, db := newTestScheduler(t, pub, []string{"CO", "CA"})

	queued, err := sched.EnqueueAllStates(context.Background())
	assert.Error(t, err)
	assert.Zero(t, queued)

	// The failed job row is removed so the next fan-out can retry it
	var jobs int64
	db.DB.Model(&models.SyncJob{}).Count(&jobs)
	assert.Zero(t, jobs)
}
