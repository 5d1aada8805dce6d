package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/smolin/antiplag/internal/repository"
	"github.com/smolin/antiplag/internal/storage"
)

// CaseHandler handles plagiarism case review endpoints.
type CaseHandler struct {
	cases *repository.CaseRepository
	store storage.ObjectStorage // nil when no evidence archive is configured
}

// NewCaseHandler creates a new case handler.
// Parameters:
//   - cases: case repository.
//   - store: evidence archive, may be nil.
// Returns:
//   - *CaseHandler: initialized handler.
func NewCaseHandler(cases *repository.CaseRepository, store storage.ObjectStorage) *CaseHandler {
	return &CaseHandler{
		cases: cases,
		store: store,
	}
}

// ListCases handles GET /api/v1/cases.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CaseHandler) ListCases(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	cases, err := h.cases.List(c.Request.Context(), c.Query("source_id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list cases: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cases":  cases,
		"limit":  limit,
		"offset": offset,
	})
}

// GetCase handles GET /api/v1/cases/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CaseHandler) GetCase(c *gin.Context) {
	result, err := h.cases.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get case: " + err.Error(),
		})
		return
	}

	evidenceURLs := make([]string, 0, len(result.EvidenceKeys))
	if h.store != nil {
		for _, key := range result.EvidenceKeys {
			evidenceURLs = append(evidenceURLs, h.store.GetURL(key))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"case":          result,
		"evidence_urls": evidenceURLs,
	})
}

// ConfirmCase handles POST /api/v1/cases/:id/confirm, marking a case as
// verified plagiarism after human review.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CaseHandler) ConfirmCase(c *gin.Context) {
	h.review(c, true, false)
}

// RejectCase handles POST /api/v1/cases/:id/false-positive.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CaseHandler) RejectCase(c *gin.Context) {
	h.review(c, false, true)
}

func (h *CaseHandler) review(c *gin.Context, confirmed, falsePositive bool) {
	id := c.Param("id")
	if err := h.cases.SetReview(c.Request.Context(), id, confirmed, falsePositive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update case: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":             id,
		"confirmed":      confirmed,
		"false_positive": falsePositive,
	})
}
