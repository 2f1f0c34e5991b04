// Package engine wires the blender, the result store and the job manager into
// the service used by the HTTP API and the file watcher.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-recommendation-blender/config"
	"github.com/gcbaptista/go-recommendation-blender/internal/blend"
	"github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/internal/jobs"
	"github.com/gcbaptista/go-recommendation-blender/internal/source"
	"github.com/gcbaptista/go-recommendation-blender/model"
	"github.com/gcbaptista/go-recommendation-blender/services"
	"github.com/gcbaptista/go-recommendation-blender/store"
)

// Engine blends recommendation files and serves the latest result.
// It implements the services.BlendService interface.
type Engine struct {
	settings   config.BlendSettings
	dataDir    string
	results    *store.ResultStore
	jobManager *jobs.Manager
	logger     *zap.Logger

	// blendMu serialises file blends so two reloads never interleave their Replace calls
	blendMu sync.Mutex
}

var _ services.BlendService = (*Engine)(nil)

// NewEngine creates an engine and restores the last snapshot from dataDir, if any.
// An empty dataDir disables persistence.
func NewEngine(settings config.BlendSettings, server config.ServerSettings, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	eng := &Engine{
		settings:   settings,
		dataDir:    server.DataDir,
		results:    store.NewResultStore(),
		jobManager: jobs.NewManager(server.MaxWorkers, logger),
		logger:     logger.Named("engine"),
	}
	eng.jobManager.Start()
	eng.loadSnapshot()
	return eng
}

// Close stops background jobs
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// Settings returns the blend settings the engine was configured with
func (e *Engine) Settings() config.BlendSettings {
	return e.settings
}

// Results exposes the underlying result store
func (e *Engine) Results() *store.ResultStore {
	return e.results
}

func (e *Engine) blender(forkedLimit, resultLimit int, externalName, forkedName string) *blend.Blender {
	return blend.NewBlender(blend.Options{
		ForkedLimit:  forkedLimit,
		ResultLimit:  resultLimit,
		ExternalName: externalName,
		ForkedName:   forkedName,
	}, e.logger)
}

// BlendLines blends caller-supplied lines without touching the result store.
func (e *Engine) BlendLines(req services.BlendRequest) (*services.BlendResult, error) {
	limits := config.BlendSettings{
		ForkedLimit: e.settings.ForkedLimit,
		ResultLimit: e.settings.ResultLimit,
	}
	if req.ForkedLimit != nil {
		limits.ForkedLimit = *req.ForkedLimit
	}
	if req.ResultLimit != nil {
		limits.ResultLimit = *req.ResultLimit
	}
	if problems := limits.ValidateLimits(); len(problems) > 0 {
		return nil, errors.NewValidationError("limits", problems[0])
	}

	start := time.Now()
	b := e.blender(limits.ForkedLimit, limits.ResultLimit, blend.SourceExternal, blend.SourceForked)
	lines, stats, err := b.Blend(req.External, req.Forked)
	if err != nil {
		return nil, err
	}

	return &services.BlendResult{
		Lines: lines,
		Stats: stats,
		Took:  time.Since(start).Milliseconds(),
	}, nil
}

// BlendFiles reads both configured files, blends them, replaces the result
// store and persists a snapshot. On failure the previous result stays in place.
func (e *Engine) BlendFiles(ctx context.Context) (model.BlendStats, error) {
	return e.blendFiles(ctx, nil)
}

type progressFunc func(current, total int, message string)

func (e *Engine) blendFiles(ctx context.Context, progress progressFunc) (model.BlendStats, error) {
	if progress == nil {
		progress = func(int, int, string) {}
	}

	e.blendMu.Lock()
	defer e.blendMu.Unlock()

	progress(0, 3, "reading input files")
	external, err := source.ReadLines(e.settings.ExternalPath)
	if err != nil {
		return model.BlendStats{}, err
	}
	forked, err := source.ReadLines(e.settings.ForkedPath)
	if err != nil {
		return model.BlendStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.BlendStats{}, err
	}

	progress(1, 3, fmt.Sprintf("blending %d lines", len(external)))
	b := e.blender(e.settings.ForkedLimit, e.settings.ResultLimit, e.settings.ExternalPath, e.settings.ForkedPath)
	lines, stats, err := b.Blend(external, forked)
	if err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	progress(2, 3, "storing result")
	version := e.results.Replace(lines)
	if err := e.saveSnapshot(); err != nil {
		e.logger.Warn("failed to persist blend result", zap.Error(err))
	}
	progress(3, 3, "done")

	e.logger.Info("blended input files",
		zap.String("external", e.settings.ExternalPath),
		zap.String("forked", e.settings.ForkedPath),
		zap.Int("lines", stats.LinesWritten),
		zap.Int("missing_forked", stats.MissingForked),
		zap.Uint64("version", version))
	return stats, nil
}

// BlendFilesAsync starts a background file blend and returns its job ID.
func (e *Engine) BlendFilesAsync(jobType model.JobType) (string, error) {
	jobID := e.jobManager.CreateJob(jobType, map[string]string{
		"external_path": e.settings.ExternalPath,
		"forked_path":   e.settings.ForkedPath,
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		stats, err := e.blendFiles(ctx, func(current, total int, message string) {
			e.jobManager.UpdateJobProgress(jobID, current, total, message)
		})
		e.jobManager.SetJobStats(jobID, stats)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to start blend job: %w", err)
	}

	return jobID, nil
}

// GetRecommendations returns the merged values for key from the latest file blend
func (e *Engine) GetRecommendations(key string) ([]string, error) {
	return e.results.Get(key)
}

// ListKeys returns the keys of the latest file blend in file order
func (e *Engine) ListKeys() []string {
	return e.results.Keys()
}

// ResultUpdatedAt returns when the stored result was last replaced; zero if never
func (e *Engine) ResultUpdatedAt() time.Time {
	return e.results.UpdatedAt()
}

// ResultVersion returns how many file blends have been stored
func (e *Engine) ResultVersion() uint64 {
	return e.results.Version()
}

// GetJob retrieves a job by ID
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs lists jobs, optionally filtered by status
func (e *Engine) ListJobs(status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(status)
}

// GetJobMetrics returns job performance metrics
func (e *Engine) GetJobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate
func (e *Engine) GetJobSuccessRate() float64 {
	return e.jobManager.GetJobSuccessRate()
}

// GetCurrentWorkload returns the number of pending or running jobs
func (e *Engine) GetCurrentWorkload() int64 {
	return e.jobManager.GetCurrentWorkload()
}
