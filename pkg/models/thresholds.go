package models

// Classification thresholds and minimum-sample floors.
//
// These values were tuned against production dashboards. Callers must not
// restate a literal; every boundary lives here.
const (
	// Margin tiers (percent, inclusive boundaries).
	MarginCriticalBelow = 20.0 // margin < 20  → Critical
	MarginHealthyFrom   = 30.0 // margin >= 30 → Healthy; in between → Warning

	// Completion-rate tiers (percent).
	CompletionExcellentFrom = 90.0
	CompletionGoodFrom      = 80.0

	// Operational capacity (orders per store per hour).
	CapacityOverloadFrom = 20
	CapacityHighFrom     = 10
	CapacityNormalFrom   = 5

	// Peak-hour volume relative to the mean hourly order count.
	PeakHourHighMultiplier = 1.5

	// Insight multipliers.
	LowPerformerRatio     = 0.8 // below 0.8× the group's own average ticket
	DeliveryDegradedRatio = 1.2 // above 1.2× the overall delivery average

	// Minimum-sample floors; groups below these counts are excluded so small
	// samples cannot produce misleading extremes.
	MinDeliverySamplesPerCell = 3 // delivery time by weekday×hour
	MinDeliverySamplesRegion  = 5 // delivery performance by region
	MinSalesForMarginRanking  = 5 // low-margin product listing

	// RFM segmentation bounds (days / completed orders).
	RFMRecencyActive    = 30
	RFMRecencyWarm      = 60
	RFMRecencyLost      = 90
	RFMFrequencyVIP     = 5
	RFMFrequencyLoyal   = 3
	RFMFrequencyPromise = 2

	// Churn-risk listing.
	ChurnMinOrders     = 3
	ChurnInactiveDays  = 60
	ChurnRiskHighDays  = 90
	ChurnRiskListLimit = 10
)

// Default result limits per caller.
const (
	DefaultTopLimit       = 20
	DashboardProductLimit = 10
	TopCustomersLimit     = 15
	MaxLimit              = 1000
	ExportMaxRecords      = 10000
)

// Entity search bounds.
const (
	MinSearchTermLength = 2
	SearchDefaultLimit  = 50
)
