package handlers

import (
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// InsightsHandler serves the insight-first endpoints: the same engine
// output as the report endpoints, but with the narrative as the payload.
type InsightsHandler struct {
	Service      *services.AnalyticsService
	DefaultLimit int
}

func NewInsightsHandler(service *services.AnalyticsService, defaultLimit int) *InsightsHandler {
	return &InsightsHandler{
		Service:      service,
		DefaultLimit: defaultLimit,
	}
}

func (h *InsightsHandler) GetTicketTrend(c *gin.Context) {
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

func (h *InsightsHandler) GetLowMargin(c *gin.Context) {
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

func (h *InsightsHandler) GetDeliveryDegradation(c *gin.Context) {
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

func (h *InsightsHandler) GetProductByChannelDayHour(c *gin.Context) {
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
