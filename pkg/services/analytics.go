package services

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"bistro-analytics-api/pkg/models"
)

// SalesSource provides the raw sales aggregations. Implementations apply the
// filter verbatim and return rows without derived classifications.
type SalesSource interface {
	RevenueSummary(ctx context.Context, f models.QueryFilter) (models.RevenueSummary, error)
	SalesByPeriod(ctx context.Context, f models.QueryFilter, granularity string) ([]models.PeriodSales, error)
	SalesByHour(ctx context.Context, f models.QueryFilter) ([]models.HourlySales, error)
	SalesByWeekday(ctx context.Context, f models.QueryFilter) ([]models.WeekdaySales, error)
	SalesByStore(ctx context.Context, f models.QueryFilter) ([]models.StoreSales, error)
	SalesByChannel(ctx context.Context, f models.QueryFilter) ([]models.ChannelSales, error)
	SalesByCategory(ctx context.Context, f models.QueryFilter) ([]models.CategorySales, error)
	StatusDistribution(ctx context.Context, f models.QueryFilter) ([]models.StatusShare, error)
}

type ProductSource interface {
	TopProducts(ctx context.Context, f models.QueryFilter) ([]models.ProductSales, error)
	LowPerformingProducts(ctx context.Context, f models.QueryFilter) ([]models.ProductSales, error)
	ProductMargins(ctx context.Context, f models.QueryFilter) ([]models.ProductMargin, error)
	ProductsByDayHour(ctx context.Context, f models.QueryFilter) ([]models.ProductDayHour, error)
	TopItems(ctx context.Context, f models.QueryFilter) ([]models.ItemStats, error)
	CustomizedProducts(ctx context.Context, f models.QueryFilter) ([]models.CustomizedProduct, error)
}

type CustomerSource interface {
	CustomerStats(ctx context.Context, f models.QueryFilter) ([]models.CustomerStats, error)
	CustomerSpans(ctx context.Context, f models.QueryFilter) ([]models.CustomerSpan, error)
}

type DeliverySource interface {
	DeliveryTimeCells(ctx context.Context, f models.QueryFilter) ([]models.DeliveryTimeCell, error)
	DeliveryByRegion(ctx context.Context, f models.QueryFilter) ([]models.RegionDelivery, error)
	NeighborhoodVolumes(ctx context.Context, f models.QueryFilter) ([]models.NeighborhoodVolume, error)
	DeliveryStats(ctx context.Context, f models.QueryFilter) (models.DeliveryStats, error)
	CourierPerformance(ctx context.Context, f models.QueryFilter) ([]models.CourierPerformance, error)
}

type PerformanceSource interface {
	StoreEfficiency(ctx context.Context, f models.QueryFilter) ([]models.StoreEfficiency, error)
	ChannelPerformance(ctx context.Context, f models.QueryFilter) ([]models.ChannelPerformance, error)
	PeakHours(ctx context.Context, f models.QueryFilter) ([]models.PeakHour, error)
	CapacityCells(ctx context.Context, f models.QueryFilter) ([]models.CapacityCell, error)
	TicketGroups(ctx context.Context, f models.QueryFilter) ([]models.TicketGroup, error)
	ProductionTime(ctx context.Context, f models.QueryFilter) (models.OperationalTime, error)
	DeliveryTime(ctx context.Context, f models.QueryFilter) (models.OperationalTime, error)
	CancellationReasons(ctx context.Context, f models.QueryFilter) ([]models.CancellationReason, error)
}

type OptionsSource interface {
	Stores(ctx context.Context) ([]models.FilterOption, error)
	Channels(ctx context.Context) ([]models.FilterOption, error)
	Categories(ctx context.Context) ([]models.FilterOption, error)
}

// ExportSource is the dataset contract behind the typed export: one method
// per export type. Three of them overlap the report sources on purpose so
// the export service can depend on this interface alone.
type ExportSource interface {
	SaleRecords(ctx context.Context, f models.QueryFilter, limit int) ([]models.SaleRecord, error)
	TopProducts(ctx context.Context, f models.QueryFilter) ([]models.ProductSales, error)
	CustomerStats(ctx context.Context, f models.QueryFilter) ([]models.CustomerStats, error)
	NeighborhoodVolumes(ctx context.Context, f models.QueryFilter) ([]models.NeighborhoodVolume, error)
}

type SearchSource interface {
	SearchProducts(ctx context.Context, term string, page, limit int) ([]models.ProductSales, error)
	SearchCustomers(ctx context.Context, term string, page, limit int) ([]models.CustomerStats, error)
	SearchSales(ctx context.Context, term string, page, limit int) ([]models.SaleRecord, error)
}

// RowSource is the full data contract the analytics service depends on.
// pkg/store satisfies it against MySQL; tests satisfy it with fakes.
type RowSource interface {
	SalesSource
	ProductSource
	CustomerSource
	DeliverySource
	PerformanceSource
	OptionsSource
	ExportSource
	SearchSource
}

// AnalyticsService composes raw aggregations from the row source with the
// derivator, classifier and insight generators into report payloads.
type AnalyticsService struct {
	source    RowSource
	derivator *Derivator
}

func NewAnalyticsService(source RowSource, derivator *Derivator) *AnalyticsService {
	return &AnalyticsService{source: source, derivator: derivator}
}

// Source exposes the raw row source for endpoints that serve a single
// aggregation without derived fields.
func (s *AnalyticsService) Source() RowSource {
	return s.source
}

// WeekdaySales resolves weekday names on the raw distribution.
func (s *AnalyticsService) WeekdaySales(ctx context.Context, f models.QueryFilter) ([]models.WeekdaySales, error) {
	rows, err := s.source.SalesByWeekday(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].WeekdayName = models.WeekdayName(rows[i].Weekday)
	}
	return rows, nil
}

// runAll executes the tasks concurrently and returns the first error. A
// failing task cancels the shared context so the remaining queries abort
// instead of finishing work nobody will read.
func runAll(ctx context.Context, tasks ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errs := make(chan error, len(tasks))
	for _, task := range tasks {
		go func(task func(context.Context) error) {
			err := task(ctx)
			if err != nil {
				cancel()
			}
			errs <- err
		}(task)
	}
	var first error
	for range tasks {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// DashboardOverview is the landing payload: totals, period-over-period
// comparison, top products, channel split and status distribution.
type DashboardOverview struct {
	Summary      models.RevenueSummary `json:"summary"`
	Comparison   *models.Comparison    `json:"comparison,omitempty"`
	TopProducts  []models.ProductSales `json:"top_products"`
	ByChannel    []models.ChannelSales `json:"sales_by_channel"`
	StatusShares []models.StatusShare  `json:"status_distribution"`
}

func (s *AnalyticsService) DashboardOverview(ctx context.Context, f models.QueryFilter) (*DashboardOverview, error) {
	topFilter := f
	topFilter.Limit = models.DashboardProductLimit

	out := &DashboardOverview{}
	var (
		previous    models.RevenueSummary
		hasPrevious bool
	)
	err := runAll(ctx,
		func(ctx context.Context) error {
			var err error
			out.Summary, err = s.source.RevenueSummary(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			prev, ok := f.PreviousPeriod()
			if !ok {
				return nil
			}
			var err error
			previous, err = s.source.RevenueSummary(ctx, prev)
			if err != nil {
				return err
			}
			hasPrevious = true
			return nil
		},
		func(ctx context.Context) error {
			var err error
			out.TopProducts, err = s.source.TopProducts(ctx, topFilter)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.ByChannel, err = s.source.SalesByChannel(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.StatusShares, err = s.source.StatusDistribution(ctx, f)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	// The current summary is fetched once; the comparison reuses it.
	if hasPrevious {
		cmp := CompareRevenue(out.Summary, previous)
		out.Comparison = &cmp
	}
	return out, nil
}

// SalesAnalytics bundles the full set of sales breakdowns.
type SalesAnalytics struct {
	ByPeriod   []models.PeriodSales   `json:"by_period"`
	ByHour     []models.HourlySales   `json:"by_hour"`
	ByWeekday  []models.WeekdaySales  `json:"by_weekday"`
	ByStore    []models.StoreSales    `json:"by_store"`
	ByChannel  []models.ChannelSales  `json:"by_channel"`
	ByCategory []models.CategorySales `json:"by_category"`
}

func (s *AnalyticsService) SalesAnalytics(ctx context.Context, f models.QueryFilter, granularity string) (*SalesAnalytics, error) {
	out := &SalesAnalytics{}
	err := runAll(ctx,
		func(ctx context.Context) error {
			var err error
			out.ByPeriod, err = s.source.SalesByPeriod(ctx, f, granularity)
			return err
		},
		func(ctx context.Context) error {
			rows, err := s.source.SalesByHour(ctx, f)
			out.ByHour = rows
			return err
		},
		func(ctx context.Context) error {
			rows, err := s.source.SalesByWeekday(ctx, f)
			if err != nil {
				return err
			}
			for i := range rows {
				rows[i].WeekdayName = models.WeekdayName(rows[i].Weekday)
			}
			out.ByWeekday = rows
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.ByStore, err = s.source.SalesByStore(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.ByChannel, err = s.source.SalesByChannel(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.ByCategory, err = s.source.SalesByCategory(ctx, f)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProductMargins ranks products by margin ascending with tiers attached and
// a summary insight when low-margin products exist.
func (s *AnalyticsService) ProductMargins(ctx context.Context, f models.QueryFilter) ([]models.ProductMargin, *models.Insight, error) {
	rows, err := s.source.ProductMargins(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	EnrichMargins(rows)
	return rows, LowMarginSummary(rows), nil
}

// ProductsByDayHour returns the channel×weekday×hour product ranking with
// weekday names resolved and a narrative for the top combination.
func (s *AnalyticsService) ProductsByDayHour(ctx context.Context, f models.QueryFilter) ([]models.ProductDayHour, *models.Insight, error) {
	rows, err := s.source.ProductsByDayHour(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return rows, DescribeTopCombination(rows), nil
}

// ProductAnalytics bundles the product report family.
type ProductAnalytics struct {
	Top        []models.ProductSales      `json:"top_products"`
	Low        []models.ProductSales      `json:"low_performers"`
	Margins    []models.ProductMargin     `json:"margins"`
	Items      []models.ItemStats         `json:"top_items"`
	Customized []models.CustomizedProduct `json:"most_customized"`
}

func (s *AnalyticsService) ProductAnalytics(ctx context.Context, f models.QueryFilter) (*ProductAnalytics, error) {
	out := &ProductAnalytics{}
	err := runAll(ctx,
		func(ctx context.Context) error {
			var err error
			out.Top, err = s.source.TopProducts(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.Low, err = s.source.LowPerformingProducts(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			rows, err := s.source.ProductMargins(ctx, f)
			if err != nil {
				return err
			}
			EnrichMargins(rows)
			out.Margins = rows
			return nil
		},
		func(ctx context.Context) error {
			var err error
			out.Items, err = s.source.TopItems(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.Customized, err = s.source.CustomizedProducts(ctx, f)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TopCustomers returns the spend ranking with RFM fields attached.
func (s *AnalyticsService) TopCustomers(ctx context.Context, f models.QueryFilter) ([]models.CustomerStats, error) {
	rows, err := s.source.CustomerStats(ctx, f)
	if err != nil {
		return nil, err
	}
	s.derivator.EnrichCustomers(rows)
	return rows, nil
}

// SegmentCount is one RFM segment with its population and value.
type SegmentCount struct {
	Segment       string  `json:"segment"`
	CustomerCount int     `json:"customer_count"`
	Revenue       float64 `json:"total_revenue"`
}

// RFMSegments classifies every customer in the filtered set and returns the
// segment distribution, largest population first.
func (s *AnalyticsService) RFMSegments(ctx context.Context, f models.QueryFilter) ([]SegmentCount, error) {
	unlimited := f
	unlimited.Limit = 0
	rows, err := s.source.CustomerStats(ctx, unlimited)
	if err != nil {
		return nil, err
	}
	s.derivator.EnrichCustomers(rows)
	return segmentCounts(rows), nil
}

func sortSegmentCounts(counts []SegmentCount) {
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].CustomerCount > counts[j].CustomerCount
	})
}

// CustomerAnalytics bundles the customer-behavior report family. Customer
// stats are fetched once and fanned into the derived views.
type CustomerAnalytics struct {
	TopCustomers   []models.CustomerStats   `json:"top_customers"`
	Segments       []SegmentCount           `json:"rfm_segments"`
	Frequency      []models.FrequencyBucket `json:"purchase_frequency"`
	Retention      []models.RetentionBucket `json:"retention"`
	NewVsReturning []models.NewVsReturning  `json:"new_vs_returning"`
	LTV            []models.LTVSegment      `json:"ltv_segments"`
	ChurnRisk      []models.CustomerStats   `json:"churn_risk"`
}

func (s *AnalyticsService) CustomerAnalytics(ctx context.Context, f models.QueryFilter) (*CustomerAnalytics, error) {
	unlimited := f
	unlimited.Limit = 0

	out := &CustomerAnalytics{}
	var all []models.CustomerStats
	err := runAll(ctx,
		func(ctx context.Context) error {
			var err error
			all, err = s.source.CustomerStats(ctx, unlimited)
			return err
		},
		func(ctx context.Context) error {
			spans, err := s.source.CustomerSpans(ctx, unlimited)
			if err != nil {
				return err
			}
			out.Retention = BucketRetention(spans)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	s.derivator.EnrichCustomers(all)
	limit := f.Limit
	if limit <= 0 || limit > len(all) {
		limit = min(models.TopCustomersLimit, len(all))
	} else {
		limit = min(limit, len(all))
	}
	out.TopCustomers = all[:limit]
	out.Segments = segmentCounts(all)
	out.Frequency = BucketFrequency(all)
	out.NewVsReturning = BucketNewVsReturning(all)
	out.LTV = BucketLTV(all)
	out.ChurnRisk = s.derivator.ChurnRisk(all)
	return out, nil
}

func segmentCounts(rows []models.CustomerStats) []SegmentCount {
	bySegment := make(map[string]*SegmentCount)
	order := make([]string, 0)
	for _, r := range rows {
		c, ok := bySegment[r.Segment]
		if !ok {
			c = &SegmentCount{Segment: r.Segment}
			bySegment[r.Segment] = c
			order = append(order, r.Segment)
		}
		c.CustomerCount++
		c.Revenue += r.TotalSpent
	}
	out := make([]SegmentCount, 0, len(order))
	for _, seg := range order {
		out = append(out, *bySegment[seg])
	}
	sortSegmentCounts(out)
	return out
}

// DeliveryTimes returns the weekday×hour grid with deviations against the
// overall average plus degradation insights for the worst cells.
func (s *AnalyticsService) DeliveryTimes(ctx context.Context, f models.QueryFilter) ([]models.DeliveryTimeCell, []models.Insight, error) {
	cells, err := s.source.DeliveryTimeCells(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	baseline := EnrichDeliveryCells(cells)
	return cells, AnalyzeDeliveryDegradation(cells, baseline), nil
}

// DeliveryAnalytics bundles the delivery report family.
type DeliveryAnalytics struct {
	Stats         models.DeliveryStats        `json:"stats"`
	ByRegion      []models.RegionDelivery     `json:"by_region"`
	Neighborhoods []models.NeighborhoodVolume `json:"top_neighborhoods"`
	TimeGrid      []models.DeliveryTimeCell   `json:"time_grid"`
	Couriers      []models.CourierPerformance `json:"courier_performance"`
	Insights      []models.Insight            `json:"insights,omitempty"`
}

func (s *AnalyticsService) DeliveryAnalytics(ctx context.Context, f models.QueryFilter) (*DeliveryAnalytics, error) {
	out := &DeliveryAnalytics{}
	err := runAll(ctx,
		func(ctx context.Context) error {
			var err error
			out.Stats, err = s.source.DeliveryStats(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.ByRegion, err = s.source.DeliveryByRegion(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.Neighborhoods, err = s.source.NeighborhoodVolumes(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			cells, err := s.source.DeliveryTimeCells(ctx, f)
			if err != nil {
				return err
			}
			baseline := EnrichDeliveryCells(cells)
			out.TimeGrid = cells
			out.Insights = AnalyzeDeliveryDegradation(cells, baseline)
			return nil
		},
		func(ctx context.Context) error {
			var err error
			out.Couriers, err = s.source.CourierPerformance(ctx, f)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StoreEfficiency returns the per-store scorecard with completion tiers.
func (s *AnalyticsService) StoreEfficiency(ctx context.Context, f models.QueryFilter) ([]models.StoreEfficiency, error) {
	rows, err := s.source.StoreEfficiency(ctx, f)
	if err != nil {
		return nil, err
	}
	EnrichStoreEfficiency(rows)
	return rows, nil
}

// ChannelPerformance returns per-channel results with completion tiers.
func (s *AnalyticsService) ChannelPerformance(ctx context.Context, f models.QueryFilter) ([]models.ChannelPerformance, error) {
	rows, err := s.source.ChannelPerformance(ctx, f)
	if err != nil {
		return nil, err
	}
	EnrichChannelPerformance(rows)
	return rows, nil
}

// PeakHours grades hourly volume against the mean across returned hours.
func (s *AnalyticsService) PeakHours(ctx context.Context, f models.QueryFilter) ([]models.PeakHour, error) {
	rows, err := s.source.PeakHours(ctx, f)
	if err != nil {
		return nil, err
	}
	EnrichPeakHours(rows)
	return rows, nil
}

// Capacity labels each store×hour cell with its load tier.
func (s *AnalyticsService) Capacity(ctx context.Context, f models.QueryFilter) ([]models.CapacityCell, error) {
	rows, err := s.source.CapacityCells(ctx, f)
	if err != nil {
		return nil, err
	}
	EnrichCapacity(rows)
	return rows, nil
}

// TicketComparison returns store and channel ticket averages plus the
// low-performer insights.
func (s *AnalyticsService) TicketComparison(ctx context.Context, f models.QueryFilter) ([]models.TicketGroup, []models.Insight, error) {
	groups, err := s.source.TicketGroups(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	return groups, AnalyzeTicketTrend(groups), nil
}

// OperationalTimes holds production and delivery time summaries side by side.
type OperationalTimes struct {
	Production models.OperationalTime `json:"production"`
	Delivery   models.OperationalTime `json:"delivery"`
}

func (s *AnalyticsService) OperationalTimes(ctx context.Context, f models.QueryFilter) (*OperationalTimes, error) {
	out := &OperationalTimes{}
	err := runAll(ctx,
		func(ctx context.Context) error {
			var err error
			out.Production, err = s.source.ProductionTime(ctx, f)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.Delivery, err = s.source.DeliveryTime(ctx, f)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PerformanceAnalytics bundles the operations report family.
type PerformanceAnalytics struct {
	Stores        []models.StoreEfficiency    `json:"store_efficiency"`
	Channels      []models.ChannelPerformance `json:"channel_performance"`
	PeakHours     []models.PeakHour           `json:"peak_hours"`
	Cancellations []models.CancellationReason `json:"cancellation_reasons"`
}

func (s *AnalyticsService) PerformanceAnalytics(ctx context.Context, f models.QueryFilter) (*PerformanceAnalytics, error) {
	out := &PerformanceAnalytics{}
	err := runAll(ctx,
		func(ctx context.Context) error {
			rows, err := s.source.StoreEfficiency(ctx, f)
			if err != nil {
				return err
			}
			EnrichStoreEfficiency(rows)
			out.Stores = rows
			return nil
		},
		func(ctx context.Context) error {
			rows, err := s.source.ChannelPerformance(ctx, f)
			if err != nil {
				return err
			}
			EnrichChannelPerformance(rows)
			out.Channels = rows
			return nil
		},
		func(ctx context.Context) error {
			rows, err := s.source.PeakHours(ctx, f)
			if err != nil {
				return err
			}
			EnrichPeakHours(rows)
			out.PeakHours = rows
			return nil
		},
		func(ctx context.Context) error {
			var err error
			out.Cancellations, err = s.source.CancellationReasons(ctx, f)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search entity types.
const (
	SearchTypeProduct  = "product"
	SearchTypeCustomer = "customer"
	SearchTypeSale     = "sale"
)

// Search runs a term lookup against one entity family. The term is
// sanitized before it reaches a LIKE pattern and must keep at least two
// characters afterwards. Page and limit must already be normalized.
func (s *AnalyticsService) Search(ctx context.Context, term, typ string, page, limit int) (any, error) {
	term = SanitizeSearchTerm(term)
	if utf8.RuneCountInString(term) < models.MinSearchTermLength {
		return nil, &FilterError{Field: "term", Reason: fmt.Sprintf("must have at least %d characters", models.MinSearchTermLength)}
	}

	switch typ {
	case SearchTypeProduct, "":
		return s.source.SearchProducts(ctx, term, page, limit)
	case SearchTypeCustomer:
		return s.source.SearchCustomers(ctx, term, page, limit)
	case SearchTypeSale:
		return s.source.SearchSales(ctx, term, page, limit)
	default:
		return nil, &FilterError{Field: "type", Reason: "must be product, customer or sale"}
	}
}

// FilterOptions is the selectable dimension values for the filter UI.
type FilterOptions struct {
	Stores     []models.FilterOption `json:"stores"`
	Channels   []models.FilterOption `json:"channels"`
	Categories []models.FilterOption `json:"categories"`
}

func (s *AnalyticsService) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	out := &FilterOptions{}
	err := runAll(ctx,
		func(ctx context.Context) error {
			var err error
			out.Stores, err = s.source.Stores(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.Channels, err = s.source.Channels(ctx)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.Categories, err = s.source.Categories(ctx)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}
