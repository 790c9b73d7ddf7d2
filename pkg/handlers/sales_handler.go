package handlers

import (
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// SalesHandler serves the sales breakdown endpoints.
type SalesHandler struct {
	Service      *services.AnalyticsService
	Cache        *services.CacheService
	DefaultLimit int
}

func NewSalesHandler(service *services.AnalyticsService, cache *services.CacheService, defaultLimit int) *SalesHandler {
	return &SalesHandler{
		Service:      service,
		Cache:        cache,
		DefaultLimit: defaultLimit,
	}
}

// GetAnalytics returns every sales breakdown in one payload. The
// granularity query parameter selects the calendar bucket (hour, day,
// week, month).
func (h *SalesHandler) GetAnalytics(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	granularity := c.DefaultQuery("granularity", "day")

	cached(c, h.Cache, services.CacheKey("sales", f)+"&granularity="+granularity, func() (any, error) {
		return h.Service.SalesAnalytics(c.Request.Context(), f, granularity)
	})
}

func (h *SalesHandler) GetByPeriod(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	granularity := c.DefaultQuery("granularity", "day")

	cached(c, h.Cache, services.CacheKey("sales", f)+"&view=period&granularity="+granularity, func() (any, error) {
		return h.Service.Source().SalesByPeriod(c.Request.Context(), f, granularity)
	})
}

func (h *SalesHandler) GetByChannel(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("sales", f)+"&view=channel", func() (any, error) {
		return h.Service.Source().SalesByChannel(c.Request.Context(), f)
	})
}

func (h *SalesHandler) GetByStore(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("sales", f)+"&view=store", func() (any, error) {
		return h.Service.Source().SalesByStore(c.Request.Context(), f)
	})
}

func (h *SalesHandler) GetHourlyDistribution(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("sales", f)+"&view=hourly", func() (any, error) {
		return h.Service.Source().SalesByHour(c.Request.Context(), f)
	})
}

func (h *SalesHandler) GetWeekdayDistribution(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("sales", f)+"&view=weekday", func() (any, error) {
		return h.Service.WeekdaySales(c.Request.Context(), f)
	})
}

func (h *SalesHandler) GetByCategory(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("sales", f)+"&view=category", func() (any, error) {
		return h.Service.Source().SalesByCategory(c.Request.Context(), f)
	})
}
