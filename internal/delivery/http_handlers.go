package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/internal/export"
	"campaignexport/internal/usecase"
	"campaignexport/pkg/logger"

	"github.com/gin-gonic/gin"
)

// handles HTTP requests
type HTTPHandlers struct {
	generationService *usecase.GenerationService
	locationService   *usecase.LocationService
	logger            *logger.Logger
}

func NewHTTPHandlers(
	generationService *usecase.GenerationService,
	locationService *usecase.LocationService,
	logger *logger.Logger,
) *HTTPHandlers {
	return &HTTPHandlers{
		generationService: generationService,
		locationService:   locationService,
		logger:            logger,
	}
}

// SubmitExport accepts a generation request and returns the job handle immediately.
func (h *HTTPHandlers) SubmitExport(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	var req domain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	handle, err := h.generationService.Submit(ctx, req)
	if err != nil {
		h.respondError(c, "Failed to submit export", err)
		return
	}

	c.Header("Location", "/api/v1/exports/"+handle.ID)
	c.JSON(http.StatusAccepted, gin.H{
		"job":        handle,
		"request_id": requestID,
	})
}

func (h *HTTPHandlers) ListExports(c *gin.Context) {
	jobs := h.generationService.List(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"data":       jobs,
		"total":      len(jobs),
		"request_id": c.GetString("request_id"),
	})
}

// GetExport returns the job snapshot for polling.
func (h *HTTPHandlers) GetExport(c *gin.Context) {
	snapshot, err := h.generationService.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get export", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job":        snapshot,
		"progress":   snapshot.Progress(),
		"request_id": c.GetString("request_id"),
	})
}

// DownloadExport streams the cached artifact as an attachment.
func (h *HTTPHandlers) DownloadExport(c *gin.Context) {
	artifact, err := h.generationService.Download(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		h.respondError(c, "Failed to download export", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	c.Header("X-Checksum-SHA256", artifact.Checksum)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

func (h *HTTPHandlers) ListLocations(c *gin.Context) {
	locations, err := h.locationService.ListLocations(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list locations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       locations,
		"total":      len(locations),
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) GetLocationTargeting(c *gin.Context) {
	config, err := h.locationService.GetTargeting(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Failed to get targeting config", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location_id": c.Param("id"),
		"targeting":   config,
		"request_id":  c.GetString("request_id"),
	})
}

// SaveLocation creates or replaces the location named in the path.
func (h *HTTPHandlers) SaveLocation(c *gin.Context) {
	var record domain.LocationRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return
	}
	record.ID = c.Param("id")

	loc, err := h.locationService.SaveLocation(c.Request.Context(), record)
	if err != nil {
		h.respondError(c, "Failed to save location", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location":   loc,
		"request_id": c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) SaveLocationTargeting(c *gin.Context) {
	var record domain.TargetingRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body",
			"message":    err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return
	}

	config, err := h.locationService.SaveTargeting(c.Request.Context(), c.Param("id"), record)
	if err != nil {
		h.respondError(c, "Failed to save targeting config", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location_id": c.Param("id"),
		"targeting":   config,
		"request_id":  c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) DeleteLocation(c *gin.Context) {
	if err := h.locationService.DeleteLocation(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "Failed to delete location", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandlers) InvalidateLocationCache(c *gin.Context) {
	invalidated := h.locationService.InvalidateCache(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"invalidated": invalidated,
		"request_id":  c.GetString("request_id"),
	})
}

// GetColumns returns the bulk import header row in wire order.
func (h *HTTPHandlers) GetColumns(c *gin.Context) {
	columns := export.Columns()

	c.JSON(http.StatusOK, gin.H{
		"columns":    columns,
		"count":      len(columns),
		"request_id": c.GetString("request_id"),
	})
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "Campaign Export Service",
		"version":     "1.0.0",
		"description": "Generates ad platform bulk import files from locations and ad variants",
		"endpoints": gin.H{
			"exports": gin.H{
				"submit":   "POST /api/v1/exports",
				"list":     "GET /api/v1/exports",
				"status":   "GET /api/v1/exports/{id}",
				"download": "GET /api/v1/exports/{id}/download?format=csv|xlsx",
			},
			"locations": gin.H{
				"list":       "GET /api/v1/locations",
				"save":       "PUT /api/v1/locations/{id}",
				"delete":     "DELETE /api/v1/locations/{id}",
				"targeting":  "GET|PUT /api/v1/locations/{id}/targeting",
				"invalidate": "POST /api/v1/locations/cache/invalidate",
			},
			"columns": "GET /api/v1/columns",
		},
		"request_id": c.GetString("request_id"),
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "campaign-export",
		"version":    "1.0.0",
		"request_id": c.GetString("request_id"),
	})
}

// respondError maps domain errors onto status codes and the common error body.
func (h *HTTPHandlers) respondError(c *gin.Context, title string, err error) {
	status := StatusFor(err)
	requestID := c.GetString("request_id")

	log := h.logger.WithContext(c.Request.Context()).WithError(err)
	if status >= http.StatusInternalServerError {
		log.Error(title)
	} else {
		log.Warn(title)
	}

	body := gin.H{
		"error":      title,
		"message":    err.Error(),
		"request_id": requestID,
	}
	var inputErr *domain.InputError
	if errors.As(err, &inputErr) {
		body["problems"] = inputErr.Problems
	}
	c.JSON(status, body)
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrLocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrArtifactNotReady):
		return http.StatusConflict
	case errors.Is(err, domain.ErrArtifactExpired):
		return http.StatusGone
	case errors.Is(err, usecase.ErrReadOnlyDirectory):
		return http.StatusMethodNotAllowed
	case errors.Is(err, usecase.ErrServiceClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
