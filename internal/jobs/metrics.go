package jobs

import (
	"maps"
	"sync"
	"time"

	"github.com/gcbaptista/go-recommendation-blender/model"
)

// recentWindow is how many execution times are kept per job type
const recentWindow = 100

// JobMetricsData is a point-in-time copy of JobMetrics, safe to serialise
type JobMetricsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	JobsCancelled        int64                     `json:"jobs_cancelled"`
	TotalExecutionTime   time.Duration             `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	JobsByType           map[model.JobType]int64   `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	LastUpdated          time.Time                 `json:"last_updated"`
}

// JobMetrics tracks counters and timings for background blend jobs
type JobMetrics struct {
	mu           sync.RWMutex
	data         JobMetricsData
	recentByType map[model.JobType][]time.Duration
}

// NewJobMetrics creates a new metrics collector
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		data: JobMetricsData{
			JobsByType:   make(map[model.JobType]int64),
			JobsByStatus: make(map[model.JobStatus]int64),
			LastUpdated:  time.Now(),
		},
		recentByType: make(map[model.JobType][]time.Duration),
	}
}

// RecordJobCreated counts a new pending job
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.JobsCreated++
	m.data.JobsByType[jobType]++
	m.data.JobsByStatus[model.JobStatusPending]++
	m.data.LastUpdated = time.Now()
}

// RecordJobStatusChange moves one job between status buckets
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.data.JobsByStatus[oldStatus] > 0 {
		m.data.JobsByStatus[oldStatus]--
	}
	m.data.JobsByStatus[newStatus]++
	if newStatus == model.JobStatusCancelled {
		m.data.JobsCancelled++
	}
	m.data.LastUpdated = time.Now()
}

// RecordJobCompleted records successful job completion
func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.JobsCompleted++
	m.data.TotalExecutionTime += executionTime
	m.data.AverageExecutionTime = m.data.TotalExecutionTime / time.Duration(m.data.JobsCompleted)

	recent := append(m.recentByType[jobType], executionTime)
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	m.recentByType[jobType] = recent

	m.data.LastUpdated = time.Now()
}

// RecordJobFailed records job failure
func (m *JobMetrics) RecordJobFailed(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data.JobsFailed++
	m.data.LastUpdated = time.Now()
}

// GetMetrics returns a deep copy of the current metrics
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.data
	out.JobsByType = maps.Clone(m.data.JobsByType)
	out.JobsByStatus = maps.Clone(m.data.JobsByStatus)
	return out
}

// GetAverageExecutionTimeByType averages the most recent executions of a job type
func (m *JobMetrics) GetAverageExecutionTimeByType(jobType model.JobType) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	times := m.recentByType[jobType]
	if len(times) == 0 {
		return 0
	}

	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}

// GetSuccessRate returns the success rate (0.0 to 1.0)
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	finished := m.data.JobsCompleted + m.data.JobsFailed
	if finished == 0 {
		return 1.0 // No jobs yet, assume 100% success
	}
	return float64(m.data.JobsCompleted) / float64(finished)
}

// GetCurrentWorkload returns the number of pending or running jobs
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data.JobsByStatus[model.JobStatusPending] + m.data.JobsByStatus[model.JobStatusRunning]
}
