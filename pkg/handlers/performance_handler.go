package handlers

import (
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// PerformanceHandler serves the operations endpoints.
type PerformanceHandler struct {
	Service      *services.AnalyticsService
	Cache        *services.CacheService
	DefaultLimit int
}

func NewPerformanceHandler(service *services.AnalyticsService, cache *services.CacheService, defaultLimit int) *PerformanceHandler {
	return &PerformanceHandler{
		Service:      service,
		Cache:        cache,
		DefaultLimit: defaultLimit,
	}
}

// GetAnalytics bundles the operations family in one payload.
func (h *PerformanceHandler) GetAnalytics(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("performance", f), func() (any, error) {
		return h.Service.PerformanceAnalytics(c.Request.Context(), f)
	})
}

// GetDeliveryAnalytics bundles the delivery family in one payload.
func (h *PerformanceHandler) GetDeliveryAnalytics(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("delivery", f), func() (any, error) {
		return h.Service.DeliveryAnalytics(c.Request.Context(), f)
	})
}

// GetDeliveryTime returns the weekday×hour grid plus degradation insights.
func (h *PerformanceHandler) GetDeliveryTime(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cells, insights, err := h.Service.DeliveryTimes(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondInsights(c, cells, insights)
}

func (h *PerformanceHandler) GetDeliveryByRegion(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("delivery", f)+"&view=region", func() (any, error) {
		return h.Service.Source().DeliveryByRegion(c.Request.Context(), f)
	})
}

func (h *PerformanceHandler) GetStoreEfficiency(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("performance", f)+"&view=stores", func() (any, error) {
		return h.Service.StoreEfficiency(c.Request.Context(), f)
	})
}

func (h *PerformanceHandler) GetChannelPerformance(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("performance", f)+"&view=channels", func() (any, error) {
		return h.Service.ChannelPerformance(c.Request.Context(), f)
	})
}

func (h *PerformanceHandler) GetPeakHours(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("performance", f)+"&view=peak", func() (any, error) {
		return h.Service.PeakHours(c.Request.Context(), f)
	})
}

func (h *PerformanceHandler) GetCancellations(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("performance", f)+"&view=cancellation", func() (any, error) {
		return h.Service.Source().CancellationReasons(c.Request.Context(), f)
	})
}

// GetTicketComparison returns store and channel tickets plus low-performer
// insights.
func (h *PerformanceHandler) GetTicketComparison(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	groups, insights, err := h.Service.TicketComparison(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondInsights(c, groups, insights)
}

func (h *PerformanceHandler) GetCapacity(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("performance", f)+"&view=capacity", func() (any, error) {
		return h.Service.Capacity(c.Request.Context(), f)
	})
}

func (h *PerformanceHandler) GetOperationalTimes(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("performance", f)+"&view=times", func() (any, error) {
		return h.Service.OperationalTimes(c.Request.Context(), f)
	})
}
