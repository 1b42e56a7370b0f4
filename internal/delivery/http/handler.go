package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ethicalmeat/backend/internal/domain"
	"github.com/ethicalmeat/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline *usecase.Pipeline
	store    domain.MappingStore
}

// NewHandler creates a new HTTP handler. The store may be nil when no mapping
// database is configured; barcode lookups then report 404.
func NewHandler(pipeline *usecase.Pipeline, store domain.MappingStore) *Handler {
	return &Handler{
		pipeline: pipeline,
		store:    store,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ethicalmeat-backend",
		"version": "1.0.0",
	})
}

// classifyRequest is one product record submitted for classification.
type classifyRequest struct {
	Barcode         string   `json:"barcode"`
	Name            string   `json:"name" binding:"required"`
	Brands          string   `json:"brands"`
	Categories      string   `json:"categories"`
	IngredientsText string   `json:"ingredients_text"`
	Origins         []string `json:"origins"`
}

// Classify runs one product through the filter, classifier and rating mapper.
func (h *Handler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request: " + err.Error(),
		})
		return
	}

	product := domain.ProductRecord{
		Barcode:         req.Barcode,
		Name:            req.Name,
		Brands:          req.Brands,
		Categories:      req.Categories,
		IngredientsText: req.IngredientsText,
		Origins:         req.Origins,
	}

	rated, isMeat := h.pipeline.ProcessOne(c.Request.Context(), product)

	c.JSON(http.StatusOK, gin.H{
		"is_meat": isMeat,
		"product": rated,
	})
}

// RunPipeline triggers a batch run against the configured product source.
// The response carries the run id and the per-stage statistics; the rated
// products themselves go to the mapping store, not over the wire.
func (h *Handler) RunPipeline(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	result, err := h.pipeline.Run(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no product source configured"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "pipeline run failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":         result.RunID,
		"started_at":     result.StartedAt,
		"finished_at":    result.FinishedAt,
		"fetched":        result.Fetched,
		"filter_stats":   result.FilterStats,
		"classify_stats": result.ClassifyStats,
		"map_stats":      result.MapStats,
	})
}

// RatingByBarcode looks up the stored welfare rating for a barcode.
func (h *Handler) RatingByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no mapping store configured"})
		return
	}

	rated, err := h.store.LookupBarcode(c.Request.Context(), barcode)
	if err != nil {
		if errors.Is(err, domain.ErrRatingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no rating found for barcode " + barcode})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, rated)
}
