package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smolin/antiplag/internal/domain"
	"github.com/smolin/antiplag/internal/repository"
)

// SourceHandler handles monitored source management endpoints.
type SourceHandler struct {
	sources *repository.SourceRepository
}

// NewSourceHandler creates a new source handler.
// Parameters:
//   - sources: source repository.
// Returns:
//   - *SourceHandler: initialized handler.
func NewSourceHandler(sources *repository.SourceRepository) *SourceHandler {
	return &SourceHandler{
		sources: sources,
	}
}

// createSourceRequest is the payload for registering a community to watch.
type createSourceRequest struct {
	Name           string `json:"name" binding:"required"`
	ExternalID     int64  `json:"external_id" binding:"required"`
	RecipientID    int64  `json:"recipient_id" binding:"required"`
	CheckText      *bool  `json:"check_text"`
	CheckImages    *bool  `json:"check_images"`
	ExcludeReposts *bool  `json:"exclude_reposts"`
}

// CreateSource handles POST /api/v1/sources.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) CreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	source := &domain.MonitoredSource{
		ID:             uuid.New().String(),
		Name:           req.Name,
		ExternalID:     req.ExternalID,
		RecipientID:    req.RecipientID,
		IsActive:       true,
		CheckText:      boolOr(req.CheckText, true),
		CheckImages:    boolOr(req.CheckImages, true),
		ExcludeReposts: boolOr(req.ExcludeReposts, true),
	}
	if err := h.sources.Create(c.Request.Context(), source); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create source: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, source)
}

// ListSources handles GET /api/v1/sources.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) ListSources(c *gin.Context) {
	sources, err := h.sources.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list sources: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// GetSource handles GET /api/v1/sources/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SourceHandler) GetSource(c *gin.Context) {
	source, err := h.sources.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get source: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, source)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
