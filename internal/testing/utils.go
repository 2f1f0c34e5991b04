// Package testing provides fixtures and job helpers shared by the blender's tests.
package testing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-recommendation-blender/config"
	"github.com/gcbaptista/go-recommendation-blender/model"
	"github.com/gcbaptista/go-recommendation-blender/services"
)

// WriteInputs writes the external and forked files into a fresh temp dir and
// returns settings pointing at them. The data dir is a "data" subdirectory.
func WriteInputs(t *testing.T, external, forked string) (config.BlendSettings, config.ServerSettings) {
	t.Helper()
	dir := t.TempDir()

	blendSettings := config.DefaultBlendSettings()
	blendSettings.ExternalPath = filepath.Join(dir, config.DefaultExternalPath)
	blendSettings.ForkedPath = filepath.Join(dir, config.DefaultForkedPath)
	require.NoError(t, os.WriteFile(blendSettings.ExternalPath, []byte(external), 0600))
	require.NoError(t, os.WriteFile(blendSettings.ForkedPath, []byte(forked), 0600))

	serverSettings := config.DefaultSettings().Server
	serverSettings.DataDir = filepath.Join(dir, "data")
	return blendSettings, serverSettings
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 5 * time.Millisecond,
	}
}

// WaitForJobStatus polls a job until it reaches a finished status and fails
// the test unless that status is want.
func WaitForJobStatus(t *testing.T, jobManager services.JobManager, jobID string, want model.JobStatus, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not finish within %v", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
				require.Equal(t, want, job.Status, "Job %s finished with error %q", jobID, job.Error)
				return job
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s",
						jobID,
						job.Progress.Current,
						job.Progress.Total,
						job.Progress.Message)
				}
			}
		}
	}
}

// WaitForJobCompletion polls a job until it completes successfully
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string) *model.Job {
	t.Helper()
	return WaitForJobStatus(t, jobManager, jobID, model.JobStatusCompleted, DefaultJobPollingOptions())
}

// AssertJobCompleted verifies that a blend job completed successfully and recorded its stats
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedLines int) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
	if assert.NotNil(t, job.Stats, "Job should carry blend stats") {
		assert.Equal(t, expectedLines, job.Stats.LinesWritten, "Lines written should match")
	}
}
