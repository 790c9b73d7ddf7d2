package handlers

import (
	"errors"
	"log"
	"net/http"

	"bistro-analytics-api/pkg/models"
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondInsights attaches the generated insights next to the data payload.
func respondInsights(c *gin.Context, data any, insights any) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     data,
		"insights": insights,
	})
}

// cached serves from cache or computes, then writes the envelope. Every
// plain data endpoint in this package goes through it.
func cached(c *gin.Context, cache *services.CacheService, key string, compute func() (any, error)) {
	data, err := cache.GetOrSet(key, compute)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, data)
}

// respondError maps service errors to HTTP statuses: filter problems are the
// caller's fault, everything else is ours. Internal details never leak into
// the response body.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrFilter) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}
	log.Printf("ERROR: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "internal error",
	})
}

// parseFilter normalizes the request's query parameters; on failure it
// writes the 400 response and reports false.
func parseFilter(c *gin.Context, defaultLimit int) (models.QueryFilter, bool) {
	f, err := services.NormalizeFilter(c.Request.URL.Query(), defaultLimit)
	if err != nil {
		respondError(c, err)
		return models.QueryFilter{}, false
	}
	return f, true
}
