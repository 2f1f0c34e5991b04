package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	blenderrors "github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/internal/jobs"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

// jobMetricsProvider is implemented by engines that track job metrics
type jobMetricsProvider interface {
	GetJobMetrics() jobs.JobMetricsData
	GetJobSuccessRate() float64
	GetCurrentWorkload() int64
}

// GetJobHandler handles requests to get job status by ID
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := api.engine.GetJob(jobID)
	if err != nil {
		if errors.Is(err, blenderrors.ErrJobNotFound) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "job lookup", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler handles requests to list jobs, optionally filtered by ?status=
func (api *API) ListJobsHandler(c *gin.Context) {
	statusParam := c.Query("status")

	var statusFilter *model.JobStatus
	if statusParam != "" {
		result := ValidateJobStatus(statusParam)
		if result.HasErrors() {
			SendValidationError(c, result)
			return
		}
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	jobList := api.engine.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobList,
		"total": len(jobList),
	})
}

// GetJobMetricsHandler handles requests to get job performance metrics
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	provider, ok := api.engine.(jobMetricsProvider)
	if !ok {
		SendError(c, http.StatusNotImplemented, ErrorCodeInternalError, "Job metrics not supported by this engine")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics":          provider.GetJobMetrics(),
		"success_rate":     provider.GetJobSuccessRate(),
		"current_workload": provider.GetCurrentWorkload(),
	})
}
