package handlers

import (
	"net/http"
	"time"

	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping() error
}

// AdminHandler serves the operational surface: health, cache admin and
// request monitoring.
type AdminHandler struct {
	DB         Pinger
	Cache      *services.CacheService
	Monitoring *services.MonitoringService
}

func NewAdminHandler(db Pinger, cache *services.CacheService, monitoring *services.MonitoringService) *AdminHandler {
	return &AdminHandler{
		DB:         db,
		Cache:      cache,
		Monitoring: monitoring,
	}
}

func (h *AdminHandler) Health(c *gin.Context) {
	database := "connected"
	status := http.StatusOK
	if err := h.DB.Ping(); err != nil {
		database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success":   status == http.StatusOK,
		"database":  database,
		"cache":     h.Cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *AdminHandler) CacheStats(c *gin.Context) {
	respondOK(c, h.Cache.Stats())
}

// ClearCache drops cached entries; the optional prefix query parameter
// limits eviction to one report family.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	evicted := h.Cache.ClearPrefix(c.Query("prefix"))
	respondOK(c, gin.H{"evicted": evicted})
}

// GetMonitoring returns aggregated request metrics for the trailing period
// (1h, 24h or 7d).
func (h *AdminHandler) GetMonitoring(c *gin.Context) {
	var hours int
	switch c.DefaultQuery("period", "24h") {
	case "1h":
		hours = 1
	case "7d":
		hours = 24 * 7
	default:
		hours = 24
	}
	respondOK(c, h.Monitoring.GetMonitoringData(hours))
}
