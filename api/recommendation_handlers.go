package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-recommendation-blender/internal/blend"
	blenderrors "github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

// resultUpdatedAt renders a never-blended store as null
func resultUpdatedAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ListRecommendationsHandler lists the keys of the latest file blend.
// Query: page, page_size
func (api *API) ListRecommendationsHandler(c *gin.Context) {
	var query struct {
		Page     int `form:"page"`
		PageSize int `form:"page_size"`
	}
	if result := ValidateQueryBinding(c, &query); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	page, pageSize, result := ValidatePagination(query.Page, query.PageSize)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	keys := api.engine.ListKeys()
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(keys) {
		start = len(keys)
	}
	if end > len(keys) {
		end = len(keys)
	}

	c.JSON(http.StatusOK, gin.H{
		"keys":       keys[start:end],
		"total":      len(keys),
		"page":       page,
		"page_size":  pageSize,
		"version":    api.engine.ResultVersion(),
		"updated_at": resultUpdatedAt(api.engine.ResultUpdatedAt()),
	})
}

// GetRecommendationsHandler returns the merged values stored for a key.
// With ?format=text the line is returned as plain "key:v1,v2,..." text.
func (api *API) GetRecommendationsHandler(c *gin.Context) {
	key := c.Param("key")
	if result := ValidateKey(key); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	start := time.Now()
	values, err := api.engine.GetRecommendations(key)
	api.trackLookup(key, values, err, time.Since(start))
	if err != nil {
		if errors.Is(err, blenderrors.ErrKeyNotFound) {
			SendKeyNotFoundError(c, key)
			return
		}
		SendInternalError(c, "lookup", err)
		return
	}

	if strings.EqualFold(c.Query("format"), "text") {
		c.String(http.StatusOK, "%s\n", blend.FormatLine(model.MergedLine{Key: key, Values: values}))
		return
	}

	c.JSON(http.StatusOK, model.MergedLine{Key: key, Values: values})
}

func (api *API) trackLookup(key string, values []string, err error, took time.Duration) {
	if api.analytics == nil {
		return
	}
	api.analytics.TrackLookup(model.LookupEvent{
		Key:          key,
		Found:        err == nil,
		ValueCount:   len(values),
		ResponseTime: took,
	})
}
