package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bistro-analytics-api/pkg/models"
)

// searchCall captures one term-lookup invocation.
type searchCall struct {
	Op    string
	Term  string
	Page  int
	Limit int
}

// fakeSource satisfies RowSource with canned rows. Filters passed to each
// operation are recorded so tests can assert on what the service requested.
type fakeSource struct {
	mu       sync.Mutex
	filters  map[string][]models.QueryFilter
	searches []searchCall
	errs     map[string]error

	revenue       models.RevenueSummary
	periods       []models.PeriodSales
	hourly        []models.HourlySales
	weekdays      []models.WeekdaySales
	stores        []models.StoreSales
	channels      []models.ChannelSales
	categories    []models.CategorySales
	statusShares  []models.StatusShare
	topProducts   []models.ProductSales
	lowProducts   []models.ProductSales
	margins       []models.ProductMargin
	dayHour       []models.ProductDayHour
	items         []models.ItemStats
	customized    []models.CustomizedProduct
	customers     []models.CustomerStats
	spans         []models.CustomerSpan
	deliveryCells []models.DeliveryTimeCell
	regions       []models.RegionDelivery
	neighborhoods []models.NeighborhoodVolume
	deliveryStats models.DeliveryStats
	couriers      []models.CourierPerformance
	efficiency    []models.StoreEfficiency
	channelPerf   []models.ChannelPerformance
	peakHours     []models.PeakHour
	capacity      []models.CapacityCell
	ticketGroups  []models.TicketGroup
	production    models.OperationalTime
	delivery      models.OperationalTime
	cancellations []models.CancellationReason
	storeOpts     []models.FilterOption
	channelOpts   []models.FilterOption
	categoryOpts  []models.FilterOption
	saleRecords   []models.SaleRecord
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		filters: make(map[string][]models.QueryFilter),
		errs:    make(map[string]error),
	}
}

func (s *fakeSource) record(op string, f models.QueryFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters[op] = append(s.filters[op], f)
	return s.errs[op]
}

func (s *fakeSource) calls(op string) []models.QueryFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters[op]
}

func (s *fakeSource) RevenueSummary(_ context.Context, f models.QueryFilter) (models.RevenueSummary, error) {
	return s.revenue, s.record("RevenueSummary", f)
}

func (s *fakeSource) SalesByPeriod(_ context.Context, f models.QueryFilter, _ string) ([]models.PeriodSales, error) {
	return s.periods, s.record("SalesByPeriod", f)
}

func (s *fakeSource) SalesByHour(_ context.Context, f models.QueryFilter) ([]models.HourlySales, error) {
	return s.hourly, s.record("SalesByHour", f)
}

func (s *fakeSource) SalesByWeekday(_ context.Context, f models.QueryFilter) ([]models.WeekdaySales, error) {
	return s.weekdays, s.record("SalesByWeekday", f)
}

func (s *fakeSource) SalesByStore(_ context.Context, f models.QueryFilter) ([]models.StoreSales, error) {
	return s.stores, s.record("SalesByStore", f)
}

func (s *fakeSource) SalesByChannel(_ context.Context, f models.QueryFilter) ([]models.ChannelSales, error) {
	return s.channels, s.record("SalesByChannel", f)
}

func (s *fakeSource) SalesByCategory(_ context.Context, f models.QueryFilter) ([]models.CategorySales, error) {
	return s.categories, s.record("SalesByCategory", f)
}

func (s *fakeSource) StatusDistribution(_ context.Context, f models.QueryFilter) ([]models.StatusShare, error) {
	return s.statusShares, s.record("StatusDistribution", f)
}

func (s *fakeSource) TopProducts(_ context.Context, f models.QueryFilter) ([]models.ProductSales, error) {
	return s.topProducts, s.record("TopProducts", f)
}

func (s *fakeSource) LowPerformingProducts(_ context.Context, f models.QueryFilter) ([]models.ProductSales, error) {
	return s.lowProducts, s.record("LowPerformingProducts", f)
}

func (s *fakeSource) ProductMargins(_ context.Context, f models.QueryFilter) ([]models.ProductMargin, error) {
	return s.margins, s.record("ProductMargins", f)
}

func (s *fakeSource) ProductsByDayHour(_ context.Context, f models.QueryFilter) ([]models.ProductDayHour, error) {
	return s.dayHour, s.record("ProductsByDayHour", f)
}

func (s *fakeSource) TopItems(_ context.Context, f models.QueryFilter) ([]models.ItemStats, error) {
	return s.items, s.record("TopItems", f)
}

func (s *fakeSource) CustomizedProducts(_ context.Context, f models.QueryFilter) ([]models.CustomizedProduct, error) {
	return s.customized, s.record("CustomizedProducts", f)
}

func (s *fakeSource) CustomerStats(_ context.Context, f models.QueryFilter) ([]models.CustomerStats, error) {
	rows := make([]models.CustomerStats, len(s.customers))
	copy(rows, s.customers)
	return rows, s.record("CustomerStats", f)
}

func (s *fakeSource) CustomerSpans(_ context.Context, f models.QueryFilter) ([]models.CustomerSpan, error) {
	return s.spans, s.record("CustomerSpans", f)
}

func (s *fakeSource) DeliveryTimeCells(_ context.Context, f models.QueryFilter) ([]models.DeliveryTimeCell, error) {
	rows := make([]models.DeliveryTimeCell, len(s.deliveryCells))
	copy(rows, s.deliveryCells)
	return rows, s.record("DeliveryTimeCells", f)
}

func (s *fakeSource) DeliveryByRegion(_ context.Context, f models.QueryFilter) ([]models.RegionDelivery, error) {
	return s.regions, s.record("DeliveryByRegion", f)
}

func (s *fakeSource) NeighborhoodVolumes(_ context.Context, f models.QueryFilter) ([]models.NeighborhoodVolume, error) {
	return s.neighborhoods, s.record("NeighborhoodVolumes", f)
}

func (s *fakeSource) DeliveryStats(_ context.Context, f models.QueryFilter) (models.DeliveryStats, error) {
	return s.deliveryStats, s.record("DeliveryStats", f)
}

func (s *fakeSource) CourierPerformance(_ context.Context, f models.QueryFilter) ([]models.CourierPerformance, error) {
	return s.couriers, s.record("CourierPerformance", f)
}

func (s *fakeSource) StoreEfficiency(_ context.Context, f models.QueryFilter) ([]models.StoreEfficiency, error) {
	rows := make([]models.StoreEfficiency, len(s.efficiency))
	copy(rows, s.efficiency)
	return rows, s.record("StoreEfficiency", f)
}

func (s *fakeSource) ChannelPerformance(_ context.Context, f models.QueryFilter) ([]models.ChannelPerformance, error) {
	rows := make([]models.ChannelPerformance, len(s.channelPerf))
	copy(rows, s.channelPerf)
	return rows, s.record("ChannelPerformance", f)
}

func (s *fakeSource) PeakHours(_ context.Context, f models.QueryFilter) ([]models.PeakHour, error) {
	rows := make([]models.PeakHour, len(s.peakHours))
	copy(rows, s.peakHours)
	return rows, s.record("PeakHours", f)
}

func (s *fakeSource) CapacityCells(_ context.Context, f models.QueryFilter) ([]models.CapacityCell, error) {
	rows := make([]models.CapacityCell, len(s.capacity))
	copy(rows, s.capacity)
	return rows, s.record("CapacityCells", f)
}

func (s *fakeSource) TicketGroups(_ context.Context, f models.QueryFilter) ([]models.TicketGroup, error) {
	return s.ticketGroups, s.record("TicketGroups", f)
}

func (s *fakeSource) ProductionTime(_ context.Context, f models.QueryFilter) (models.OperationalTime, error) {
	return s.production, s.record("ProductionTime", f)
}

func (s *fakeSource) DeliveryTime(_ context.Context, f models.QueryFilter) (models.OperationalTime, error) {
	return s.delivery, s.record("DeliveryTime", f)
}

func (s *fakeSource) CancellationReasons(_ context.Context, f models.QueryFilter) ([]models.CancellationReason, error) {
	return s.cancellations, s.record("CancellationReasons", f)
}

func (s *fakeSource) Stores(_ context.Context) ([]models.FilterOption, error) {
	return s.storeOpts, s.record("Stores", models.QueryFilter{})
}

func (s *fakeSource) Channels(_ context.Context) ([]models.FilterOption, error) {
	return s.channelOpts, s.record("Channels", models.QueryFilter{})
}

func (s *fakeSource) Categories(_ context.Context) ([]models.FilterOption, error) {
	return s.categoryOpts, s.record("Categories", models.QueryFilter{})
}

func (s *fakeSource) SaleRecords(_ context.Context, f models.QueryFilter, limit int) ([]models.SaleRecord, error) {
	f.Limit = limit
	return s.saleRecords, s.record("SaleRecords", f)
}

func (s *fakeSource) search(op, term string, page, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, searchCall{Op: op, Term: term, Page: page, Limit: limit})
	return s.errs[op]
}

func (s *fakeSource) SearchProducts(_ context.Context, term string, page, limit int) ([]models.ProductSales, error) {
	return s.topProducts, s.search("SearchProducts", term, page, limit)
}

func (s *fakeSource) SearchCustomers(_ context.Context, term string, page, limit int) ([]models.CustomerStats, error) {
	return s.customers, s.search("SearchCustomers", term, page, limit)
}

func (s *fakeSource) SearchSales(_ context.Context, term string, page, limit int) ([]models.SaleRecord, error) {
	return s.saleRecords, s.search("SearchSales", term, page, limit)
}

func newTestService(src RowSource) *AnalyticsService {
	return NewAnalyticsService(src, fixedDerivator(testNow))
}

func TestDashboardOverview(t *testing.T) {
	src := newFakeSource()
	src.revenue = models.RevenueSummary{TotalRevenue: 1000, TotalSales: 50, AvgTicket: models.Float(20)}
	src.topProducts = []models.ProductSales{{ProductName: "Pizza Margherita M #001"}}
	src.channels = []models.ChannelSales{{ChannelName: "iFood"}}
	src.statusShares = []models.StatusShare{{Status: models.StatusCompleted, Count: 48}}

	out, err := newTestService(src).DashboardOverview(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 20,
	})

	assert.NoError(t, err)
	assert.InDelta(t, 1000.0, out.Summary.TotalRevenue, 1e-9)
	assert.Len(t, out.TopProducts, 1)
	assert.Len(t, out.ByChannel, 1)
	assert.Len(t, out.StatusShares, 1)
	// Without a date range there is no previous period to compare against.
	assert.Nil(t, out.Comparison)

	// The product ranking runs with the dashboard limit, not the request one.
	tops := src.calls("TopProducts")
	assert.Len(t, tops, 1)
	assert.Equal(t, models.DashboardProductLimit, tops[0].Limit)
}

func TestDashboardOverviewComparison(t *testing.T) {
	src := newFakeSource()
	src.revenue = models.RevenueSummary{TotalRevenue: 1200, TotalSales: 60}

	f := models.QueryFilter{
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		Weekday:   models.Absent, Hour: models.Absent, Limit: 20,
	}
	out, err := newTestService(src).DashboardOverview(context.Background(), f)

	assert.NoError(t, err)
	assert.NotNil(t, out.Comparison)

	// Exactly two summary fetches: the current window once, reused by the
	// comparison, and the shifted previous window.
	calls := src.calls("RevenueSummary")
	assert.Len(t, calls, 2)
	var sawPrevious bool
	for _, call := range calls {
		if call.EndDate.Equal(f.StartDate.Add(-time.Second)) {
			sawPrevious = true
		}
	}
	assert.True(t, sawPrevious)
}

func TestDashboardOverviewPropagatesError(t *testing.T) {
	src := newFakeSource()
	src.errs["StatusDistribution"] = errors.New("db gone")

	out, err := newTestService(src).DashboardOverview(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 20,
	})

	assert.Nil(t, out)
	assert.EqualError(t, err, "db gone")
}

func TestSalesAnalyticsResolvesWeekdayNames(t *testing.T) {
	src := newFakeSource()
	src.weekdays = []models.WeekdaySales{{Weekday: 1, OrderCount: 10}, {Weekday: 7, OrderCount: 30}}

	out, err := newTestService(src).SalesAnalytics(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 20,
	}, "day")

	assert.NoError(t, err)
	assert.Equal(t, "Sunday", out.ByWeekday[0].WeekdayName)
	assert.Equal(t, "Saturday", out.ByWeekday[1].WeekdayName)
}

func TestProductMarginsAttachesTiersAndSummary(t *testing.T) {
	src := newFakeSource()
	src.margins = []models.ProductMargin{
		{ProductName: "Combo Kids P #004", MarginPercent: models.Float(12)},
		{ProductName: "Suco G #003", MarginPercent: models.Float(45)},
	}

	rows, insight, err := newTestService(src).ProductMargins(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 20,
	})

	assert.NoError(t, err)
	assert.Equal(t, TierCritical, rows[0].MarginTier)
	assert.Equal(t, TierHealthy, rows[1].MarginTier)
	assert.NotNil(t, insight)
	assert.Equal(t, models.SeverityCritical, insight.Severity)
}

func TestRFMSegmentsFetchesUnlimited(t *testing.T) {
	src := newFakeSource()
	src.customers = []models.CustomerStats{
		{CustomerID: 1, Frequency: 6, TotalSpent: 900, LastPurchase: testNow.AddDate(0, 0, -5)},
		{CustomerID: 2, Frequency: 6, TotalSpent: 700, LastPurchase: testNow.AddDate(0, 0, -8)},
		{CustomerID: 3, Frequency: 1, TotalSpent: 40, LastPurchase: testNow.AddDate(0, 0, -10)},
	}

	segments, err := newTestService(src).RFMSegments(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 5,
	})

	assert.NoError(t, err)
	calls := src.calls("CustomerStats")
	assert.Len(t, calls, 1)
	assert.Equal(t, 0, calls[0].Limit)

	// Largest population first.
	assert.Equal(t, SegmentVIP, segments[0].Segment)
	assert.Equal(t, 2, segments[0].CustomerCount)
	assert.InDelta(t, 1600.0, segments[0].Revenue, 1e-9)
	assert.Equal(t, SegmentNew, segments[1].Segment)
}

func TestCustomerAnalytics(t *testing.T) {
	src := newFakeSource()
	src.customers = []models.CustomerStats{
		{CustomerID: 1, Frequency: 4, TotalSpent: 600, LastPurchase: testNow.AddDate(0, 0, -10)},
		{CustomerID: 2, Frequency: 1, TotalSpent: 90, LastPurchase: testNow.AddDate(0, 0, -20)},
		{CustomerID: 3, Frequency: 5, TotalSpent: 1200, LastPurchase: testNow.AddDate(0, 0, -100)},
	}
	src.spans = []models.CustomerSpan{
		{CustomerID: 1, FirstPurchase: testNow.AddDate(0, 0, -50), LastPurchase: testNow.AddDate(0, 0, -10), TotalSpent: 600},
	}

	out, err := newTestService(src).CustomerAnalytics(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 2,
	})

	assert.NoError(t, err)
	assert.Len(t, out.TopCustomers, 2)
	// Customer 1 stayed recent and loyal; customer 3 went quiet.
	assert.Equal(t, SegmentLoyal, out.TopCustomers[0].Segment)
	assert.NotEmpty(t, out.Segments)
	assert.Len(t, out.Frequency, 2)
	assert.Len(t, out.NewVsReturning, 2)
	assert.NotEmpty(t, out.LTV)
	assert.Len(t, out.Retention, 1)
	assert.Len(t, out.ChurnRisk, 1)
	assert.Equal(t, 3, out.ChurnRisk[0].CustomerID)
}

func TestDeliveryTimesSharesBaseline(t *testing.T) {
	src := newFakeSource()
	src.deliveryCells = []models.DeliveryTimeCell{
		{Weekday: 6, Hour: 19, AvgMinutes: 90},
		{Weekday: 2, Hour: 14, AvgMinutes: 30},
		{Weekday: 3, Hour: 12, AvgMinutes: 30},
	}

	cells, insights, err := newTestService(src).DeliveryTimes(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 20,
	})

	assert.NoError(t, err)
	assert.Len(t, cells, 3)
	// Baseline 50: only the 90-minute cell crosses 60.
	assert.Len(t, insights, 1)
	assert.InDelta(t, 50.0, insights[0].Baseline, 1e-9)
	assert.InDelta(t, cells[0].DeviationPercent.Float64, insights[0].DeviationPercent, 1e-9)
}

func TestTicketComparison(t *testing.T) {
	src := newFakeSource()
	src.ticketGroups = []models.TicketGroup{
		{Type: models.TicketGroupStore, Name: "A", AvgTicket: models.Float(120)},
		{Type: models.TicketGroupStore, Name: "B", AvgTicket: models.Float(120)},
		{Type: models.TicketGroupStore, Name: "C", AvgTicket: models.Float(60)},
	}

	groups, insights, err := newTestService(src).TicketComparison(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 20,
	})

	assert.NoError(t, err)
	assert.Len(t, groups, 3)
	assert.Len(t, insights, 2)
	assert.Equal(t, "C", insights[0].Subject)
}

func TestPerformanceAnalyticsEnriches(t *testing.T) {
	src := newFakeSource()
	src.efficiency = []models.StoreEfficiency{
		{StoreName: "A", TotalOrders: 10, CompletedOrders: 10},
	}
	src.channelPerf = []models.ChannelPerformance{
		{ChannelName: "iFood", TotalOrders: 10, CompletedOrders: 7},
	}
	src.peakHours = []models.PeakHour{{Hour: 12, OrderCount: 10}}

	out, err := newTestService(src).PerformanceAnalytics(context.Background(), models.QueryFilter{
		Weekday: models.Absent, Hour: models.Absent, Limit: 20,
	})

	assert.NoError(t, err)
	assert.Equal(t, TierExcellent, out.Stores[0].CompletionTier)
	assert.Equal(t, TierPoor, out.Channels[0].CompletionTier)
	assert.Equal(t, VolumeMedium, out.PeakHours[0].VolumeCategory)
}

func TestFilterOptions(t *testing.T) {
	src := newFakeSource()
	src.storeOpts = []models.FilterOption{{ID: 1, Name: "Bistro Centro"}}
	src.channelOpts = []models.FilterOption{{ID: 1, Name: "iFood", Type: "D"}}
	src.categoryOpts = []models.FilterOption{{ID: 1, Name: "Pizzas"}}

	out, err := newTestService(src).FilterOptions(context.Background())

	assert.NoError(t, err)
	assert.Len(t, out.Stores, 1)
	assert.Len(t, out.Channels, 1)
	assert.Len(t, out.Categories, 1)
}

func TestRunAllFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := runAll(context.Background(),
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			// Cancelled once the failing task returns.
			<-ctx.Done()
			return nil
		},
	)
	assert.Equal(t, boom, err)
}
