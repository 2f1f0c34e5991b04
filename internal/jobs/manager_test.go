package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	blenderrors "github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitForStatus(t *testing.T, manager *Manager, jobID string, status model.JobStatus) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = manager.GetJob(jobID)
		return err == nil && job.Status == status
	}, 2*time.Second, 5*time.Millisecond, "job %s never reached status %s", jobID, status)
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	manager := NewManager(2, zaptest.NewLogger(t))
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeBlendFiles, map[string]string{
		"external_path": "results-filled-20.txt",
	})
	require.NotEmpty(t, jobID)

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)

	assert.Equal(t, model.JobTypeBlendFiles, job.Type)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, "results-filled-20.txt", job.Metadata["external_path"])
}

func TestJobManager_GetJobNotFound(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	_, err := manager.GetJob("nope")
	assert.True(t, errors.Is(err, blenderrors.ErrJobNotFound))

	err = manager.ExecuteJob("nope", func(ctx context.Context, job *model.Job) error { return nil })
	assert.True(t, errors.Is(err, blenderrors.ErrJobNotFound))
}

func TestJobManager_ExecuteJob(t *testing.T) {
	manager := NewManager(2, zaptest.NewLogger(t))
	manager.Start()
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeBlendFiles, nil)

	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		manager.UpdateJobProgress(jobID, 50, 100, "Halfway done")
		manager.UpdateJobProgress(jobID, 100, 100, "Completed")
		manager.SetJobStats(jobID, model.BlendStats{LinesWritten: 100})
		return nil
	})
	require.NoError(t, err)

	job := waitForStatus(t, manager, jobID, model.JobStatusCompleted)

	require.NotNil(t, job.Progress)
	assert.Equal(t, 100, job.Progress.Current)
	assert.Equal(t, 100, job.Progress.Total)
	assert.Equal(t, float64(100), job.Progress.GetProgressPercentage())
	require.NotNil(t, job.Stats)
	assert.Equal(t, 100, job.Stats.LinesWritten)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	metrics := manager.GetMetrics()
	assert.Equal(t, int64(1), metrics.JobsCreated)
	assert.Equal(t, int64(1), metrics.JobsCompleted)
	assert.Equal(t, int64(1), metrics.JobsByStatus[model.JobStatusCompleted])
	assert.Equal(t, int64(0), manager.GetCurrentWorkload())
	assert.Equal(t, 1.0, manager.GetJobSuccessRate())
}

func TestJobManager_ExecuteJobTwice(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeBlendFiles, nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error { return nil }))

	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error { return nil })
	assert.Error(t, err)
}

func TestJobManager_FailedJob(t *testing.T) {
	manager := NewManager(1, zaptest.NewLogger(t))
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeBlendFiles, nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return errors.New("external:3: missing ':' separator")
	}))

	job := waitForStatus(t, manager, jobID, model.JobStatusFailed)
	assert.Contains(t, job.Error, "missing ':' separator")
	assert.Equal(t, 0.0, manager.GetJobSuccessRate())
	assert.Equal(t, int64(1), manager.GetMetrics().JobsFailed)
}

func TestJobManager_StopCancelsRunningJobs(t *testing.T) {
	manager := NewManager(1, zaptest.NewLogger(t))
	manager.Start()

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeReload, nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	<-started
	manager.Stop()
	manager.Stop() // second call is a no-op

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)
	assert.Equal(t, int64(1), manager.GetMetrics().JobsCancelled)

	// No new work is accepted after Stop
	next := manager.CreateJob(model.JobTypeReload, nil)
	err = manager.ExecuteJob(next, func(ctx context.Context, job *model.Job) error { return nil })
	assert.Error(t, err)
}

func TestJobManager_ListJobs(t *testing.T) {
	manager := NewManager(2, nil)
	defer manager.Stop()

	first := manager.CreateJob(model.JobTypeBlendFiles, nil)
	time.Sleep(time.Millisecond)
	second := manager.CreateJob(model.JobTypeReload, nil)

	require.NoError(t, manager.ExecuteJob(first, func(ctx context.Context, job *model.Job) error { return nil }))
	waitForStatus(t, manager, first, model.JobStatusCompleted)

	all := manager.ListJobs(nil)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID, "newest job first")

	pending := model.JobStatusPending
	onlyPending := manager.ListJobs(&pending)
	require.Len(t, onlyPending, 1)
	assert.Equal(t, second, onlyPending[0].ID)
}

func TestJobManager_CleanupOldJobs(t *testing.T) {
	manager := NewManager(1, nil)
	defer manager.Stop()

	done := manager.CreateJob(model.JobTypeBlendFiles, nil)
	pending := manager.CreateJob(model.JobTypeBlendFiles, nil)
	require.NoError(t, manager.ExecuteJob(done, func(ctx context.Context, job *model.Job) error { return nil }))
	waitForStatus(t, manager, done, model.JobStatusCompleted)

	assert.Equal(t, 1, manager.CleanupOldJobs(0))

	_, err := manager.GetJob(done)
	assert.Error(t, err)
	_, err = manager.GetJob(pending)
	assert.NoError(t, err)
}
