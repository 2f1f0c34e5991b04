// Package api provides the HTTP surface of the blender.
package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-recommendation-blender/model"
	"github.com/gcbaptista/go-recommendation-blender/services"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateBlendRequest checks the shape of a blend request. Line contents are
// not inspected here; malformed lines surface as parse errors from the blend.
func ValidateBlendRequest(req *services.BlendRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req == nil {
		result.AddError("request_body", "Blend request is required")
		return result
	}

	if len(req.External) == 0 {
		result.AddError("external", "At least one external line is required")
	}
	if req.ForkedLimit != nil && *req.ForkedLimit < 0 {
		result.AddError("forked_limit", "Forked limit cannot be negative")
	}
	if req.ResultLimit != nil && *req.ResultLimit < 0 {
		result.AddError("result_limit", "Result limit cannot be negative")
	}

	return result
}

// ValidateKey validates a recommendation key path parameter
func ValidateKey(key string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if key == "" {
		result.AddError("key", "Key is required")
		return result
	}

	if strings.TrimSpace(key) != key {
		result.AddError("key", "Key cannot have leading or trailing whitespace")
	}

	return result
}

// ValidateJobStatus validates a job status filter
func ValidateJobStatus(status string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch model.JobStatus(status) {
	case model.JobStatusPending, model.JobStatusRunning, model.JobStatusCompleted,
		model.JobStatusFailed, model.JobStatusCancelling, model.JobStatusCancelled:
	default:
		result.AddError("status", "Unknown job status '"+status+"'")
	}

	return result
}

// ValidatePagination validates and normalizes pagination parameters
func ValidatePagination(page, pageSize int) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	if page < 1 {
		result.AddError("page", "Page must be greater than 0")
	}
	if pageSize < 1 {
		result.AddError("page_size", "Page size must be greater than 0")
	} else if pageSize > maxPageSize {
		result.AddError("page_size", "Page size cannot exceed 1000")
	}

	return page, pageSize, result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}

// ValidateQueryBinding validates query parameter binding
func ValidateQueryBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindQuery(target); err != nil {
		result.AddError("query_parameters", "Invalid query parameters: "+err.Error())
	}

	return result
}
