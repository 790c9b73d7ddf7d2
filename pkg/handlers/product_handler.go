package handlers

import (
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves the product report endpoints.
type ProductHandler struct {
	Service      *services.AnalyticsService
	Cache        *services.CacheService
	DefaultLimit int
}

func NewProductHandler(service *services.AnalyticsService, cache *services.CacheService, defaultLimit int) *ProductHandler {
	return &ProductHandler{
		Service:      service,
		Cache:        cache,
		DefaultLimit: defaultLimit,
	}
}

// GetAnalytics bundles the whole product family in one payload.
func (h *ProductHandler) GetAnalytics(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("products", f), func() (any, error) {
		return h.Service.ProductAnalytics(c.Request.Context(), f)
	})
}

func (h *ProductHandler) GetTopProducts(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("products", f)+"&view=top", func() (any, error) {
		return h.Service.Source().TopProducts(c.Request.Context(), f)
	})
}

func (h *ProductHandler) GetLowPerforming(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("products", f)+"&view=low", func() (any, error) {
		return h.Service.Source().LowPerformingProducts(c.Request.Context(), f)
	})
}

func (h *ProductHandler) GetByCategory(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("products", f)+"&view=category", func() (any, error) {
		return h.Service.Source().SalesByCategory(c.Request.Context(), f)
	})
}

func (h *ProductHandler) GetCustomizations(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("products", f)+"&view=customized", func() (any, error) {
		return h.Service.Source().CustomizedProducts(c.Request.Context(), f)
	})
}

func (h *ProductHandler) GetTopItems(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("products", f)+"&view=items", func() (any, error) {
		return h.Service.Source().TopItems(c.Request.Context(), f)
	})
}

// GetLowMargin returns the margin ranking with tiers and the low-margin
// summary insight. Not cached through the shared helper because the
// insight rides next to the data.
func (h *ProductHandler) GetLowMargin(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	rows, insight, err := h.Service.ProductMargins(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondInsights(c, rows, insight)
}

// GetByDayHour answers which products lead per channel, weekday and hour.
func (h *ProductHandler) GetByDayHour(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	rows, insight, err := h.Service.ProductsByDayHour(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondInsights(c, rows, insight)
}
