package handlers

import (
	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// CustomerHandler serves the customer behavior endpoints.
type CustomerHandler struct {
	Service      *services.AnalyticsService
	Cache        *services.CacheService
	DefaultLimit int
}

func NewCustomerHandler(service *services.AnalyticsService, cache *services.CacheService, defaultLimit int) *CustomerHandler {
	return &CustomerHandler{
		Service:      service,
		Cache:        cache,
		DefaultLimit: defaultLimit,
	}
}

// GetAnalytics bundles the customer family in one payload: rankings,
// segments, buckets and churn risk all derived from one customer scan.
func (h *CustomerHandler) GetAnalytics(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f), func() (any, error) {
		return h.Service.CustomerAnalytics(c.Request.Context(), f)
	})
}

// GetRFM returns the RFM segment distribution.
func (h *CustomerHandler) GetRFM(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f)+"&view=rfm", func() (any, error) {
		return h.Service.RFMSegments(c.Request.Context(), f)
	})
}

func (h *CustomerHandler) GetTopCustomers(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f)+"&view=top", func() (any, error) {
		return h.Service.TopCustomers(c.Request.Context(), f)
	})
}

// GetChurnRisk lists established customers that have gone quiet.
func (h *CustomerHandler) GetChurnRisk(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f)+"&view=churn", func() (any, error) {
		data, err := h.Service.CustomerAnalytics(c.Request.Context(), f)
		if err != nil {
			return nil, err
		}
		return data.ChurnRisk, nil
	})
}

func (h *CustomerHandler) GetLTV(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f)+"&view=ltv", func() (any, error) {
		data, err := h.Service.CustomerAnalytics(c.Request.Context(), f)
		if err != nil {
			return nil, err
		}
		return data.LTV, nil
	})
}

func (h *CustomerHandler) GetFrequency(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f)+"&view=frequency", func() (any, error) {
		data, err := h.Service.CustomerAnalytics(c.Request.Context(), f)
		if err != nil {
			return nil, err
		}
		return data.Frequency, nil
	})
}

func (h *CustomerHandler) GetNewVsReturning(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f)+"&view=new", func() (any, error) {
		data, err := h.Service.CustomerAnalytics(c.Request.Context(), f)
		if err != nil {
			return nil, err
		}
		return data.NewVsReturning, nil
	})
}

func (h *CustomerHandler) GetRetention(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}
	cached(c, h.Cache, services.CacheKey("customers", f)+"&view=retention", func() (any, error) {
		data, err := h.Service.CustomerAnalytics(c.Request.Context(), f)
		if err != nil {
			return nil, err
		}
		return data.Retention, nil
	})
}
