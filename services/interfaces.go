package services

import (
	"context"
	"time"

	"github.com/gcbaptista/go-recommendation-blender/config"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

// BlendRequest carries two sets of lines to blend in memory.
// Nil limits fall back to the configured ones; an explicit 0 is honoured.
type BlendRequest struct {
	External    []string `json:"external"`
	Forked      []string `json:"forked"`
	ForkedLimit *int     `json:"forked_limit,omitempty"`
	ResultLimit *int     `json:"result_limit,omitempty"`
}

// BlendResult is the outcome of a BlendRequest
type BlendResult struct {
	Lines []model.MergedLine `json:"lines"`
	Stats model.BlendStats   `json:"stats"`
	Took  int64              `json:"took"` // milliseconds
}

// LineBlender blends lines supplied by the caller
type LineBlender interface {
	BlendLines(req BlendRequest) (*BlendResult, error)
}

// FileBlender blends the configured input files
type FileBlender interface {
	Settings() config.BlendSettings
	BlendFiles(ctx context.Context) (model.BlendStats, error)
	BlendFilesAsync(jobType model.JobType) (string, error) // Returns job ID
}

// RecommendationReader serves the most recent file blend
type RecommendationReader interface {
	GetRecommendations(key string) ([]string, error)
	ListKeys() []string
	ResultVersion() uint64
	ResultUpdatedAt() time.Time
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
}

// BlendService is everything the HTTP API needs
type BlendService interface {
	LineBlender
	FileBlender
	RecommendationReader
	JobManager
}

// LookupAnalytics records recommendation lookups and reports on them
type LookupAnalytics interface {
	TrackLookup(event model.LookupEvent)
	GetDashboardData() (model.AnalyticsDashboard, error)
}
