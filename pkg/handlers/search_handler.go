package handlers

import (
	"net/http"
	"strconv"

	"bistro-analytics-api/pkg/models"
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// SearchHandler serves the term lookup across products, customers and sales.
type SearchHandler struct {
	Service *services.AnalyticsService
}

func NewSearchHandler(service *services.AnalyticsService) *SearchHandler {
	return &SearchHandler{Service: service}
}

// Search looks up entities by term (type query parameter, product default)
// and echoes the resolved page back next to the results.
func (h *SearchHandler) Search(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", models.SearchDefaultLimit)
	if limit > models.MaxLimit {
		limit = models.MaxLimit
	}

	data, err := h.Service.Search(c.Request.Context(), c.Query("term"), c.Query("type"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
		},
	})
}

// queryInt reads a positive integer query parameter, falling back to the
// default on anything else.
func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
