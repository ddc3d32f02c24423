package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediakit/convert/internal/command"
	"github.com/mediakit/convert/internal/metrics"
	"github.com/mediakit/convert/pkg/models"
)

// createConversionRequest is the JSON body for queue-only job creation,
// when the source object is already in storage.
type createConversionRequest struct {
	SourceKey  string               `json:"source_key" binding:"required"`
	OutputName string               `json:"output_name"`
	Priority   int                  `json:"priority"`
	Config     models.ConvertConfig `json:"config"`
}

// createConversion creates a conversion job and enqueues it. The source
// arrives either as a multipart upload under the "video" field, or as a
// JSON body referencing an object already in storage.
func (api *API) createConversion(c *gin.Context) {
	var (
		sourceKey  string
		outputName string
		priority   int
		convCfg    models.ConvertConfig
	)

	jobID := uuid.New().String()

	if file, err := c.FormFile("video"); err == nil {
		tempPath := filepath.Join(os.TempDir(), jobID)
		if err := c.SaveUploadedFile(file, tempPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}
		defer os.Remove(tempPath)

		sourceKey = fmt.Sprintf("sources/%s/%s", jobID, file.Filename)
		if err := api.storage.UploadFile(c.Request.Context(), sourceKey, tempPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to upload: %v", err)})
			return
		}

		convCfg = formConfig(c)
		outputName = c.PostForm("output_name")
		priority, _ = strconv.Atoi(c.PostForm("priority"))
	} else {
		var req createConversionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sourceKey = req.SourceKey
		outputName = req.OutputName
		priority = req.Priority
		convCfg = req.Config
	}

	if convCfg.Preset == "" {
		convCfg.Preset = api.cfg.Converter.DefaultPreset
	}
	if _, ok := command.Presets[convCfg.Preset]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown preset %q", convCfg.Preset)})
		return
	}
	if outputName == "" {
		base := filepath.Base(sourceKey)
		outputName = base[:len(base)-len(filepath.Ext(base))] + ".flv"
	}

	job := &models.ConversionJob{
		ID:         jobID,
		SourceKey:  sourceKey,
		OutputName: outputName,
		Status:     models.JobStatusQueued,
		Priority:   priority,
		Config:     convCfg,
	}

	if err := api.repo.CreateJob(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create job: %v", err)})
		return
	}

	if err := api.queue.PublishJob(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to enqueue job: %v", err)})
		return
	}

	metrics.JobsCreatedTotal.WithLabelValues(convCfg.Preset).Inc()
	if depth, err := api.queue.GetQueueDepth(); err == nil {
		metrics.JobsQueueDepth.Set(float64(depth))
	}

	c.JSON(http.StatusCreated, job)
}

// formConfig reads conversion settings from multipart form fields.
func formConfig(c *gin.Context) models.ConvertConfig {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(c.PostForm(key))
		return n
	}
	return models.ConvertConfig{
		Preset:        c.PostForm("preset"),
		Width:         atoi("width"),
		Height:        atoi("height"),
		SampleRate:    atoi("sample_rate"),
		OutputFormat:  c.PostForm("output_format"),
		SnapshotCount: atoi("snapshot_count"),
	}
}

// getConversion returns a job, preferring the cache.
func (api *API) getConversion(c *gin.Context) {
	jobID := c.Param("id")
	ctx := c.Request.Context()

	if api.cache != nil {
		if job, err := api.cache.GetJob(ctx, jobID); err == nil && job != nil {
			if pct, err := api.cache.GetJobProgress(ctx, jobID); err == nil && pct >= 0 {
				job.Progress = pct
			}
			c.JSON(http.StatusOK, job)
			return
		}
	}

	job, err := api.repo.GetJob(ctx, jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	if api.cache != nil {
		api.cache.SetJob(ctx, job, time.Hour)
	}

	c.JSON(http.StatusOK, job)
}

// listConversions returns a page of jobs.
func (api *API) listConversions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	jobs, err := api.repo.ListJobs(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversions": jobs,
		"limit":       limit,
		"offset":      offset,
	})
}

// getConversionResult returns the conversion record for a completed job,
// with presigned URLs for the output and snapshots.
func (api *API) getConversionResult(c *gin.Context) {
	jobID := c.Param("id")
	ctx := c.Request.Context()

	conv, err := api.repo.GetConversionByJob(ctx, jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversion not found"})
		return
	}

	convertedURL, err := api.storage.GetURL(ctx, conv.ConvertedKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to sign URL: %v", err)})
		return
	}

	snapshotURLs := make(map[int]string, len(conv.Snapshots))
	for sec, key := range conv.Snapshots {
		if url, err := api.storage.GetURL(ctx, key); err == nil {
			snapshotURLs[sec] = url
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"conversion":    conv,
		"converted_url": convertedURL,
		"snapshot_urls": snapshotURLs,
	})
}

// createWebhookRequest registers a callback URL for job events.
type createWebhookRequest struct {
	URL    string               `json:"url" binding:"required,url"`
	Events models.WebhookEvents `json:"events"`
	Secret string               `json:"secret"`
}

func (api *API) createWebhook(c *gin.Context) {
	var req createWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hook := &models.Webhook{
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
		IsActive: true,
	}

	if err := api.repo.CreateWebhook(c.Request.Context(), hook); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create webhook: %v", err)})
		return
	}

	// Never echo the secret back
	hook.Secret = ""
	c.JSON(http.StatusCreated, hook)
}
