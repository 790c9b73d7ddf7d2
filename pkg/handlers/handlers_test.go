package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"bistro-analytics-api/pkg/models"
	"bistro-analytics-api/pkg/services"
)

// stubSource overrides the row-source operations the tests exercise; the
// embedded interface leaves the rest unimplemented.
type stubSource struct {
	services.RowSource
	channels     []models.ChannelSales
	margins      []models.ProductMargin
	saleRecords  []models.SaleRecord
	topProducts  []models.ProductSales
	channelCalls int
	err          error
}

func (s *stubSource) SalesByChannel(_ context.Context, _ models.QueryFilter) ([]models.ChannelSales, error) {
	s.channelCalls++
	return s.channels, s.err
}

func (s *stubSource) ProductMargins(_ context.Context, _ models.QueryFilter) ([]models.ProductMargin, error) {
	return s.margins, s.err
}

func (s *stubSource) SaleRecords(_ context.Context, _ models.QueryFilter, _ int) ([]models.SaleRecord, error) {
	return s.saleRecords, s.err
}

func (s *stubSource) TopProducts(_ context.Context, _ models.QueryFilter) ([]models.ProductSales, error) {
	return s.topProducts, s.err
}

func (s *stubSource) SearchProducts(_ context.Context, _ string, _, _ int) ([]models.ProductSales, error) {
	return s.topProducts, s.err
}

func newTestRouter(src services.RowSource) (*gin.Engine, *services.CacheService) {
	gin.SetMode(gin.TestMode)

	cache := services.NewCacheService(nil, time.Minute)
	service := services.NewAnalyticsService(src, services.NewDerivator())

	salesHandler := NewSalesHandler(service, cache, 20)
	insightsHandler := NewInsightsHandler(service, 20)

	r := gin.New()
	r.GET("/api/sales/channel", salesHandler.GetByChannel)
	r.GET("/api/insights/low-margin", insightsHandler.GetLowMargin)
	return r, cache
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Insights json.RawMessage `json:"insights"`
	Error    string          `json:"error"`
}

func doRequest(t *testing.T, r *gin.Engine, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestGetByChannelEnvelope(t *testing.T) {
	src := &stubSource{channels: []models.ChannelSales{{ChannelName: "iFood", OrderCount: 12, Revenue: 840}}}
	r, _ := newTestRouter(src)

	w, env := doRequest(t, r, "GET", "/api/sales/channel")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "iFood")
	assert.Empty(t, env.Error)
}

func TestGetByChannelServesFromCache(t *testing.T) {
	src := &stubSource{channels: []models.ChannelSales{{ChannelName: "Rappi"}}}
	r, _ := newTestRouter(src)

	doRequest(t, r, "GET", "/api/sales/channel?storeId=3")
	doRequest(t, r, "GET", "/api/sales/channel?storeId=3")
	assert.Equal(t, 1, src.channelCalls)

	// A different filter is a different cache entry.
	doRequest(t, r, "GET", "/api/sales/channel?storeId=4")
	assert.Equal(t, 2, src.channelCalls)
}

func TestBadFilterReturns400(t *testing.T) {
	r, _ := newTestRouter(&stubSource{})

	w, env := doRequest(t, r, "GET", "/api/sales/channel?startDate=bogus")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "startDate")
}

func TestSourceErrorReturns500WithoutDetails(t *testing.T) {
	src := &stubSource{err: errors.New("Error 1045: access denied for user")}
	r, _ := newTestRouter(src)

	w, env := doRequest(t, r, "GET", "/api/sales/channel")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "internal error", env.Error)
	assert.NotContains(t, w.Body.String(), "1045")
}

func TestSourceErrorsNeverCached(t *testing.T) {
	src := &stubSource{err: errors.New("transient")}
	r, _ := newTestRouter(src)

	doRequest(t, r, "GET", "/api/sales/channel")
	src.err = nil
	src.channels = []models.ChannelSales{{ChannelName: "iFood"}}

	w, env := doRequest(t, r, "GET", "/api/sales/channel")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestInsightsEndpointAttachesInsights(t *testing.T) {
	src := &stubSource{margins: []models.ProductMargin{
		{ProductName: "Combo Kids P #004", MarginPercent: models.Float(10)},
	}}
	r, _ := newTestRouter(src)

	w, env := doRequest(t, r, "GET", "/api/insights/low-margin")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "Critical")
	assert.Contains(t, string(env.Insights), "critical")
}

func newExportRouter(src services.RowSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	exportHandler := NewExportHandler(services.NewExportService(src, 100), 20)

	r := gin.New()
	r.GET("/api/export", exportHandler.Export)
	return r
}

func TestExportSalesHeaders(t *testing.T) {
	src := &stubSource{saleRecords: []models.SaleRecord{
		{ID: 1, CreatedAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC), Status: models.StatusCompleted},
	}}
	r := newExportRouter(src)

	req, _ := http.NewRequest("GET", "/api/export?format=csv", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export_sales")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Equal(t, "1", w.Header().Get("X-Record-Count"))
	assert.Contains(t, w.Body.String(), "ID,Date,Customer")
}

func TestExportTypedDataset(t *testing.T) {
	src := &stubSource{topProducts: []models.ProductSales{
		{ProductID: 7, ProductName: "Pizza Calabresa G #021", TimesSold: 42},
	}}
	r := newExportRouter(src)

	req, _ := http.NewRequest("GET", "/api/export?type=products&format=csv", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export_products")
	assert.Contains(t, w.Body.String(), "ID,Product,Category")
	assert.Contains(t, w.Body.String(), "Pizza Calabresa G #021")
}

func TestExportUnknownTypeReturns400(t *testing.T) {
	r := newExportRouter(&stubSource{})

	req, _ := http.NewRequest("GET", "/api/export?type=stores", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "type")
}

func TestExportBadFormat(t *testing.T) {
	r := newExportRouter(&stubSource{})

	req, _ := http.NewRequest("GET", "/api/export?format=pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "format")
}

func newSearchRouter(src services.RowSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	searchHandler := NewSearchHandler(services.NewAnalyticsService(src, services.NewDerivator()))

	r := gin.New()
	r.GET("/api/search", searchHandler.Search)
	return r
}

func TestSearchEnvelope(t *testing.T) {
	src := &stubSource{topProducts: []models.ProductSales{
		{ProductID: 7, ProductName: "Pizza Calabresa G #021"},
	}}
	r := newSearchRouter(src)

	w, env := doRequest(t, r, "GET", "/api/search?term=pizza&type=product&page=2&limit=10")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), "Pizza Calabresa G #021")
	assert.Contains(t, w.Body.String(), `"page":2`)
	assert.Contains(t, w.Body.String(), `"limit":10`)
}

func TestSearchShortTermReturns400(t *testing.T) {
	r := newSearchRouter(&stubSource{})

	w, env := doRequest(t, r, "GET", "/api/search?term=p")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "term")
}

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache := services.NewCacheService(nil, time.Minute)
	adminHandler := NewAdminHandler(stubPinger{}, cache, services.NewMonitoringService())

	r := gin.New()
	r.GET("/health", adminHandler.Health)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "connected")
	assert.Contains(t, w.Body.String(), "timestamp")
}

func TestHealthDatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache := services.NewCacheService(nil, time.Minute)
	adminHandler := NewAdminHandler(stubPinger{err: errors.New("refused")}, cache, services.NewMonitoringService())

	r := gin.New()
	r.GET("/health", adminHandler.Health)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestClearCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cache := services.NewCacheService(nil, time.Minute)
	cache.Set("sales:a", 1)
	cache.Set("dashboard:b", 2)
	adminHandler := NewAdminHandler(stubPinger{}, cache, services.NewMonitoringService())

	r := gin.New()
	r.POST("/api/admin/cache/clear", adminHandler.ClearCache)

	req, _ := http.NewRequest("POST", "/api/admin/cache/clear?prefix=sales", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, cache.Stats().Entries)
}
