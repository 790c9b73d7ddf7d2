package main

import (
	"log"

	config "bistro-analytics-api/configs"
	"bistro-analytics-api/pkg/handlers"
	"bistro-analytics-api/pkg/services"
	"bistro-analytics-api/pkg/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("FATAL: failed to open database: %v", err)
	}
	defer db.Close()

	rowSource := store.New(db)

	monitoringService := services.NewMonitoringService()
	cacheService := services.NewCacheService(cfg.CacheTTLs, cfg.CacheDefaultTTL)
	analyticsService := services.NewAnalyticsService(rowSource, services.NewDerivator())
	exportService := services.NewExportService(rowSource, cfg.ExportMaxRecords)

	dashboardHandler := handlers.NewDashboardHandler(analyticsService, cacheService, cfg.DefaultLimit)
	salesHandler := handlers.NewSalesHandler(analyticsService, cacheService, cfg.DefaultLimit)
	productHandler := handlers.NewProductHandler(analyticsService, cacheService, cfg.DefaultLimit)
	customerHandler := handlers.NewCustomerHandler(analyticsService, cacheService, cfg.DefaultLimit)
	performanceHandler := handlers.NewPerformanceHandler(analyticsService, cacheService, cfg.DefaultLimit)
	insightsHandler := handlers.NewInsightsHandler(analyticsService, cfg.DefaultLimit)
	filtersHandler := handlers.NewFiltersHandler(analyticsService, cacheService)
	searchHandler := handlers.NewSearchHandler(analyticsService)
	exportHandler := handlers.NewExportHandler(exportService, cfg.DefaultLimit)
	adminHandler := handlers.NewAdminHandler(rowSource, cacheService, monitoringService)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(monitoringService.LoggingMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	r.Use(cors.New(corsConfig))

	r.GET("/health", adminHandler.Health)

	api := r.Group("/api")
	{
		api.GET("/dashboard", dashboardHandler.GetOverview)

		api.GET("/analytics/sales", salesHandler.GetAnalytics)
		api.GET("/analytics/products", productHandler.GetAnalytics)
		api.GET("/analytics/customers", customerHandler.GetAnalytics)
		api.GET("/analytics/delivery", performanceHandler.GetDeliveryAnalytics)
		api.GET("/analytics/performance", performanceHandler.GetAnalytics)

		sales := api.Group("/sales")
		{
			sales.GET("/period", salesHandler.GetByPeriod)
			sales.GET("/channel", salesHandler.GetByChannel)
			sales.GET("/store", salesHandler.GetByStore)
			sales.GET("/hourly", salesHandler.GetHourlyDistribution)
			sales.GET("/weekday", salesHandler.GetWeekdayDistribution)
			sales.GET("/category", salesHandler.GetByCategory)
		}

		products := api.Group("/products")
		{
			products.GET("/top", productHandler.GetTopProducts)
			products.GET("/low-performing", productHandler.GetLowPerforming)
			products.GET("/category", productHandler.GetByCategory)
			products.GET("/customizations", productHandler.GetCustomizations)
			products.GET("/items", productHandler.GetTopItems)
			products.GET("/low-margin", productHandler.GetLowMargin)
			products.GET("/by-day-hour", productHandler.GetByDayHour)
		}

		customers := api.Group("/customers")
		{
			customers.GET("/rfm", customerHandler.GetRFM)
			customers.GET("/churn", customerHandler.GetChurnRisk)
			customers.GET("/ltv", customerHandler.GetLTV)
			customers.GET("/top", customerHandler.GetTopCustomers)
			customers.GET("/frequency", customerHandler.GetFrequency)
			customers.GET("/new", customerHandler.GetNewVsReturning)
			customers.GET("/retention", customerHandler.GetRetention)
		}

		performance := api.Group("/performance")
		{
			performance.GET("/delivery-time", performanceHandler.GetDeliveryTime)
			performance.GET("/delivery-region", performanceHandler.GetDeliveryByRegion)
			performance.GET("/store-efficiency", performanceHandler.GetStoreEfficiency)
			performance.GET("/channel", performanceHandler.GetChannelPerformance)
			performance.GET("/peak-hours", performanceHandler.GetPeakHours)
			performance.GET("/cancellation", performanceHandler.GetCancellations)
			performance.GET("/ticket-comparison", performanceHandler.GetTicketComparison)
			performance.GET("/capacity", performanceHandler.GetCapacity)
			performance.GET("/operational-times", performanceHandler.GetOperationalTimes)
		}

		insights := api.Group("/insights")
		{
			insights.GET("/ticket-trend", insightsHandler.GetTicketTrend)
			insights.GET("/low-margin", insightsHandler.GetLowMargin)
			insights.GET("/delivery-degradation", insightsHandler.GetDeliveryDegradation)
			insights.GET("/product-by-channel-day-hour", insightsHandler.GetProductByChannelDayHour)
		}

		api.GET("/filters/options", filtersHandler.GetOptions)
		api.GET("/search", searchHandler.Search)
		api.GET("/export", exportHandler.Export)

		admin := api.Group("/admin")
		{
			admin.GET("/cache/stats", adminHandler.CacheStats)
			admin.POST("/cache/clear", adminHandler.ClearCache)
			admin.GET("/monitoring", adminHandler.GetMonitoring)
		}
	}

	log.Printf("Starting analytics API on port %s (env: %s)", cfg.Port, cfg.Environment)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: server stopped: %v", err)
	}
}
