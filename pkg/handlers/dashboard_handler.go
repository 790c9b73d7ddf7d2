package handlers

import (
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the landing overview.
type DashboardHandler struct {
	Service      *services.AnalyticsService
	Cache        *services.CacheService
	DefaultLimit int
}

func NewDashboardHandler(service *services.AnalyticsService, cache *services.CacheService, defaultLimit int) *DashboardHandler {
	return &DashboardHandler{
		Service:      service,
		Cache:        cache,
		DefaultLimit: defaultLimit,
	}
}

// GetOverview returns totals, period comparison, top products, channel
// split and status distribution in one payload.
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}

	data, err := h.Cache.GetOrSet(services.CacheKey("dashboard", f), func() (any, error) {
		return h.Service.DashboardOverview(c.Request.Context(), f)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, data)
}
