package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-recommendation-blender/internal/blend"
	blenderrors "github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/model"
	"github.com/gcbaptista/go-recommendation-blender/services"
)

// BlendResponse is returned by POST /blend
type BlendResponse struct {
	Lines []model.MergedLine `json:"lines"`
	Text  []string           `json:"text"` // Same lines rendered as key:v1,v2,...
	Stats model.BlendStats   `json:"stats"`
	Took  int64              `json:"took"`
}

// BlendLinesHandler blends the external and forked lines carried in the body.
// Request Body: services.BlendRequest
func (api *API) BlendLinesHandler(c *gin.Context) {
	var req services.BlendRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if result := ValidateBlendRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	blendResult, err := api.engine.BlendLines(req)
	if err != nil {
		var parseErr *blenderrors.ParseError
		var validationErr *blenderrors.ValidationError
		switch {
		case errors.As(err, &parseErr):
			SendParseError(c, parseErr)
		case errors.As(err, &validationErr):
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, validationErr.Error())
		default:
			SendInternalError(c, "blend", err)
		}
		return
	}

	text := make([]string, 0, len(blendResult.Lines))
	for _, line := range blendResult.Lines {
		text = append(text, blend.FormatLine(line))
	}

	c.JSON(http.StatusOK, BlendResponse{
		Lines: blendResult.Lines,
		Text:  text,
		Stats: blendResult.Stats,
		Took:  blendResult.Took,
	})
}

// BlendFilesHandler starts a background blend of the configured input files.
func (api *API) BlendFilesHandler(c *gin.Context) {
	jobID, err := api.engine.BlendFilesAsync(model.JobTypeBlendFiles)
	if err != nil {
		SendJobExecutionError(c, "blend", err)
		return
	}

	settings := api.engine.Settings()
	api.logger.Info("blend job accepted", zap.String("job_id", jobID))
	c.JSON(http.StatusAccepted, gin.H{
		"status":        "accepted",
		"message":       "Blend of '" + settings.ExternalPath + "' and '" + settings.ForkedPath + "' started",
		"job_id":        jobID,
		"external_path": settings.ExternalPath,
		"forked_path":   settings.ForkedPath,
	})
}
