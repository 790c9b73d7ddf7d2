package handlers

import (
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// FiltersHandler serves the selectable dimension values for the filter UI.
type FiltersHandler struct {
	Service *services.AnalyticsService
	Cache   *services.CacheService
}

func NewFiltersHandler(service *services.AnalyticsService, cache *services.CacheService) *FiltersHandler {
	return &FiltersHandler{
		Service: service,
		Cache:   cache,
	}
}

func (h *FiltersHandler) GetOptions(c *gin.Context) {
	cached(c, h.Cache, "filters:options", func() (any, error) {
		return h.Service.FilterOptions(c.Request.Context())
	})
}
