package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-recommendation-blender/services"
)

// API holds dependencies for API handlers, primarily the blend service.
type API struct {
	engine    services.BlendService
	analytics services.LookupAnalytics
	logger    *zap.Logger
}

// NewAPI creates a new API handler structure. A nil logger disables logging.
func NewAPI(engine services.BlendService, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		engine: engine,
		logger: logger.Named("api"),
	}
}

// RouteOptions tunes the middleware installed by SetupRoutes
type RouteOptions struct {
	MaxRequestBytes int64
	// Analytics, when set, records recommendation lookups and serves GET /analytics
	Analytics services.LookupAnalytics
}

// SetupRoutes defines all the API routes for the blender.
func SetupRoutes(router *gin.Engine, engine services.BlendService, logger *zap.Logger, opts RouteOptions) {
	apiHandler := NewAPI(engine, logger)
	apiHandler.analytics = opts.Analytics

	router.Use(RequestIDMiddleware(), RequestLoggerMiddleware(apiHandler.logger), CORSMiddleware())
	if opts.MaxRequestBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(opts.MaxRequestBytes))
	}

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Blend routes
	blendRoutes := router.Group("/blend")
	{
		blendRoutes.POST("", apiHandler.BlendLinesHandler)       // Blend lines sent in the request body
		blendRoutes.POST("/jobs", apiHandler.BlendFilesHandler) // Blend the configured files in the background
	}

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
	}

	// Results of the latest file blend
	recRoutes := router.Group("/recommendations")
	{
		recRoutes.GET("", apiHandler.ListRecommendationsHandler)
		recRoutes.GET("/:key", apiHandler.GetRecommendationsHandler)
	}

	if apiHandler.analytics != nil {
		router.GET("/analytics", apiHandler.GetAnalyticsHandler)
	}
}

// GetAnalyticsHandler returns the lookup analytics dashboard
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	dashboard, err := api.analytics.GetDashboardData()
	if err != nil {
		SendInternalError(c, "retrieve analytics data", err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// HealthCheckHandler reports liveness and the version of the stored blend
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "recommendation-blender",
		"result_version": api.engine.ResultVersion(),
		"timestamp":      fmt.Sprintf("%d", time.Now().Unix()),
	})
}
